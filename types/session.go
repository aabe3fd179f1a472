package types

// FileKind classifies a file inside the session folder.
type FileKind string

const (
	KindMarkdown FileKind = "markdown"
	KindImage    FileKind = "image"
	KindAudio    FileKind = "audio"
)

// FileReference points at one file inside the session root. Identity is Path;
// Name is the display name (last path segment).
type FileReference struct {
	Path string   `json:"path"`
	Name string   `json:"name"`
	Kind FileKind `json:"kind"`
}

// AudioTrack is a FileReference constrained to audio, optionally enriched with
// tag metadata read during scanning. Title/Artist are display-only; identity
// stays Path.
type AudioTrack struct {
	FileReference
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// Playlist is a named, ordered track list the GM can switch to on demand
// (e.g. "Combat"). A playlist with zero tracks is valid data but cannot be
// activated for playback.
type Playlist struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Tracks []AudioTrack `json:"tracks"`
}

// Part is one segment of a session: its plan document, images, support docs
// and music. The ambient playlist is deliberately a bare track list rather
// than a Playlist: it has no name, no id, and only its contents change.
type Part struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PlanFile        *FileReference  `json:"planFile"`
	Images          []FileReference `json:"images"`
	SupportDocs     []FileReference `json:"supportDocs"`
	AmbientPlaylist []AudioTrack    `json:"ambientPlaylist"`
	EventPlaylists  []Playlist      `json:"eventPlaylists"`
}

// CharacterStats holds the numeric stats parsed from a player character
// sheet. Nil means the stat could not be extracted.
type CharacterStats struct {
	MaxHP        *int `json:"maxHP"`
	DefenseScore *int `json:"defenseScore"`
}

// SessionConfig is the full configuration of one session: the unit of
// export/import and the unit passed from setup to play. Part order is play
// order. PlayerCharacterStats keys are a subset of PlayerCharacterNames.
type SessionConfig struct {
	RootFolderName        string                    `json:"rootFolderName"`
	Parts                 []Part                    `json:"parts"`
	PlayerCharacterNames  []string                  `json:"playerCharacterNames"`
	PlayerCharacterStats  map[string]CharacterStats `json:"playerCharacterStats"`
}

// DurationHint is the best-effort expected length extracted from free-text
// plan content. Min == Max when the text mentioned a single figure.
type DurationHint struct {
	MinMinutes int `json:"minMinutes"`
	MaxMinutes int `json:"maxMinutes"`
}
