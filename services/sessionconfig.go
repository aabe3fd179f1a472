package services

import (
	"encoding/json"
	"fmt"

	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// ValidationError rejects a config import. The whole file is refused on the
// first structural violation; there is no partial import.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid session config: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ExportConfig serializes a SessionConfig to its JSON interchange form.
func ExportConfig(cfg *types.SessionConfig) ([]byte, error) {
	if cfg == nil {
		return nil, invalid("config", "nothing to export")
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// ImportConfig parses and validates a previously exported config. Any
// structural violation rejects the whole import; the caller's in-memory
// configuration stays untouched.
func ImportConfig(data []byte) (*types.SessionConfig, error) {
	var cfg types.SessionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, invalid("json", err.Error())
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig checks the structural invariants of a session config.
func ValidateConfig(cfg *types.SessionConfig) error {
	if cfg.RootFolderName == "" {
		return invalid("rootFolderName", "must be a non-empty string")
	}

	for i, part := range cfg.Parts {
		where := fmt.Sprintf("parts[%d]", i)
		if part.ID == "" {
			return invalid(where+".id", "must be a non-empty string")
		}
		if part.Name == "" {
			return invalid(where+".name", "must be a non-empty string")
		}
		if part.PlanFile != nil {
			if err := validateFileRef(*part.PlanFile, where+".planFile", types.KindMarkdown); err != nil {
				return err
			}
		}
		for j, image := range part.Images {
			if err := validateFileRef(image, fmt.Sprintf("%s.images[%d]", where, j), types.KindImage); err != nil {
				return err
			}
		}
		for j, doc := range part.SupportDocs {
			if err := validateFileRef(doc, fmt.Sprintf("%s.supportDocs[%d]", where, j), types.KindMarkdown); err != nil {
				return err
			}
		}
		for j, track := range part.AmbientPlaylist {
			if err := validateFileRef(track.FileReference, fmt.Sprintf("%s.ambientPlaylist[%d]", where, j), types.KindAudio); err != nil {
				return err
			}
		}
		for j, playlist := range part.EventPlaylists {
			plWhere := fmt.Sprintf("%s.eventPlaylists[%d]", where, j)
			if playlist.ID == "" {
				return invalid(plWhere+".id", "must be a non-empty string")
			}
			if playlist.Name == "" {
				return invalid(plWhere+".name", "must be a non-empty string")
			}
			if playlist.Tracks == nil {
				return invalid(plWhere+".tracks", "must be an array")
			}
			for k, track := range playlist.Tracks {
				if err := validateFileRef(track.FileReference, fmt.Sprintf("%s.tracks[%d]", plWhere, k), types.KindAudio); err != nil {
					return err
				}
			}
		}
	}

	names := make(map[string]bool, len(cfg.PlayerCharacterNames))
	for _, name := range cfg.PlayerCharacterNames {
		names[name] = true
	}
	for name := range cfg.PlayerCharacterStats {
		if !names[name] {
			return invalid("playerCharacterStats."+name, "stats for unknown player character")
		}
	}

	return nil
}

func validateFileRef(ref types.FileReference, where string, want types.FileKind) error {
	if ref.Path == "" {
		return invalid(where+".path", "must be a non-empty string")
	}
	if ref.Name == "" {
		return invalid(where+".name", "must be a non-empty string")
	}
	switch ref.Kind {
	case types.KindMarkdown, types.KindImage, types.KindAudio:
	default:
		return invalid(where+".kind", "must be one of markdown, image, audio")
	}
	if ref.Kind != want {
		return invalid(where+".kind", fmt.Sprintf("must be %s", want))
	}
	return nil
}
