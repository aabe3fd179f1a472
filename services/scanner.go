package services

import (
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/FumingPower3925/ttrpg-session-manager/config"
	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// Category directories the scanner recognizes at the top of a session folder.
// supportCategories is also the order their markdown files append to a
// part's support docs.
var (
	categoryDirs      = []string{"characters", "images", "maps", "music", "plan", "threats"}
	supportCategories = []string{"characters", "threats", "maps"}
)

var actDirPattern = regexp.MustCompile(`(?i)^act(\d+)$`)

// ScanResult is the outcome of auto-detection. Plausible is a soft check
// (at least 2 recognized category directories exist); a config with zero
// parts means "nothing detected" and should push the user to manual setup.
type ScanResult struct {
	Config    *types.SessionConfig `json:"config"`
	Plausible bool                 `json:"plausible"`
}

// Scanner infers a complete SessionConfig from a conventional directory
// layout, without user input.
type Scanner struct {
	store FileStore
}

// NewScanner creates a scanner over the given file store.
func NewScanner(store FileStore) *Scanner {
	return &Scanner{store: store}
}

// Scan walks the session folder and builds structured session data. Any
// unreadable subdirectory is treated as absent, not fatal.
func (s *Scanner) Scan() (*ScanResult, error) {
	topLevel, err := s.store.List("")
	if err != nil {
		return nil, fmt.Errorf("cannot read session folder: %w", err)
	}

	// Map recognized categories to their on-disk directory names so each
	// lookup follows whatever casing the folder actually uses.
	present := make(map[string]string)
	for _, entry := range topLevel {
		if entry.IsDir {
			name := strings.ToLower(entry.Name)
			for _, category := range categoryDirs {
				if name == category {
					present[category] = entry.Name
				}
			}
		}
	}

	actNumbers := s.collectActNumbers(present)

	cfg := &types.SessionConfig{
		RootFolderName:       s.store.Root(),
		Parts:                []types.Part{},
		PlayerCharacterNames: []string{},
		PlayerCharacterStats: map[string]types.CharacterStats{},
	}

	if len(actNumbers) > 0 {
		for _, act := range actNumbers {
			cfg.Parts = append(cfg.Parts, s.buildPart(actSubdir(present, act), fmt.Sprintf("Act %d", act)))
		}
	} else {
		// Fallback mode: one trivial part built from the bare category
		// directories, dropped again if it holds no content at all.
		part := s.buildPart(func(category string) string { return present[category] }, "Part 1")
		if partHasContent(part) {
			part.Name = "Part 1"
			cfg.Parts = append(cfg.Parts, part)
		}
	}

	s.scanPlayerCharacters(cfg)

	return &ScanResult{Config: cfg, Plausible: len(present) >= 2}, nil
}

// actSubdir returns a resolver mapping a category to its act subdirectory.
// The act folder's own casing is matched later by findActDir.
func actSubdir(present map[string]string, act int) func(category string) string {
	return func(category string) string {
		dir, ok := present[category]
		if !ok {
			return ""
		}
		return path.Join(dir, fmt.Sprintf("act%d", act))
	}
}

// collectActNumbers unions act numbers found across every category directory
// and returns them sorted ascending. Union, not intersection: a missing
// images/act2 must not block plan/act2 from producing a part.
func (s *Scanner) collectActNumbers(present map[string]string) []int {
	seen := make(map[int]bool)
	for _, category := range categoryDirs {
		dir, ok := present[category]
		if !ok {
			continue
		}
		entries, err := s.store.List(dir)
		if err != nil {
			logger.L().Warnw("skipping unreadable category directory", "category", category, "error", err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir {
				continue
			}
			if m := actDirPattern.FindStringSubmatch(entry.Name); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					seen[n] = true
				}
			}
		}
	}

	numbers := make([]int, 0, len(seen))
	for n := range seen {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// buildPart assembles one part from per-category directories resolved by
// dirFor. Each category is independent; a missing directory contributes
// nothing.
func (s *Scanner) buildPart(dirFor func(category string) string, fallbackName string) types.Part {
	part := types.Part{
		ID:              uuid.New().String(),
		Name:            fallbackName,
		Images:          []types.FileReference{},
		SupportDocs:     []types.FileReference{},
		AmbientPlaylist: []types.AudioTrack{},
		EventPlaylists:  []types.Playlist{},
	}

	// Plan: first markdown file is the plan, the rest are support docs, and
	// the plan filename names the part.
	planFiles := s.filesIn(s.findActDir(dirFor("plan")), types.KindMarkdown)
	if len(planFiles) > 0 {
		plan := planFiles[0]
		part.PlanFile = &plan
		part.Name = partNameFromFilename(plan.Name)
		part.SupportDocs = append(part.SupportDocs, planFiles[1:]...)
	}

	for _, category := range supportCategories {
		docs := s.filesIn(s.findActDir(dirFor(category)), types.KindMarkdown)
		part.SupportDocs = append(part.SupportDocs, docs...)
	}

	part.Images = append(part.Images, s.filesIn(s.findActDir(dirFor("images")), types.KindImage)...)

	musicDir := s.findActDir(dirFor("music"))
	part.AmbientPlaylist = s.tracksIn(musicDir)
	part.EventPlaylists = s.eventPlaylistsIn(musicDir)

	return part
}

// findActDir resolves an act directory case-insensitively: "Act2" on disk
// still serves act 2. Returns "" when the directory does not exist.
func (s *Scanner) findActDir(dir string) string {
	if dir == "" {
		return ""
	}
	parent, leaf := path.Split(dir)
	parent = strings.TrimSuffix(parent, "/")
	if parent == "" {
		// Top-level category; casing already matched by the caller's listing.
		if _, err := s.store.List(dir); err != nil {
			return ""
		}
		return dir
	}

	entries, err := s.store.List(parent)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir && strings.EqualFold(entry.Name, leaf) {
			return path.Join(parent, entry.Name)
		}
	}
	return ""
}

// filesIn lists files of one kind directly inside dir, lexicographic order.
// Unreadable directories yield nothing.
func (s *Scanner) filesIn(dir string, kind types.FileKind) []types.FileReference {
	if dir == "" {
		return nil
	}
	entries, err := s.store.List(dir)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.L().Warnw("skipping unreadable directory", "dir", dir, "error", err)
		}
		return nil
	}

	var refs []types.FileReference
	for _, entry := range entries {
		if entry.IsDir || kindForExtension(entry.Name) != kind {
			continue
		}
		refs = append(refs, types.FileReference{
			Path: path.Join(dir, entry.Name),
			Name: entry.Name,
			Kind: kind,
		})
	}
	return refs
}

// tracksIn builds the ambient track list from audio files directly inside
// dir, enriched with tag metadata where readable.
func (s *Scanner) tracksIn(dir string) []types.AudioTrack {
	refs := s.filesIn(dir, types.KindAudio)
	tracks := make([]types.AudioTrack, 0, len(refs))
	for _, ref := range refs {
		tracks = append(tracks, s.enrichTrack(types.AudioTrack{FileReference: ref}))
	}
	return tracks
}

// eventPlaylistsIn turns each subfolder of the music directory holding at
// least one audio file into a named event playlist. Subfolders without audio
// are skipped entirely; no empty playlist is ever created.
func (s *Scanner) eventPlaylistsIn(musicDir string) []types.Playlist {
	if musicDir == "" {
		return []types.Playlist{}
	}
	entries, err := s.store.List(musicDir)
	if err != nil {
		return []types.Playlist{}
	}

	playlists := []types.Playlist{}
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		tracks := s.tracksIn(path.Join(musicDir, entry.Name))
		if len(tracks) == 0 {
			continue
		}
		playlists = append(playlists, types.Playlist{
			ID:     uuid.New().String(),
			Name:   entry.Name,
			Tracks: tracks,
		})
	}
	return playlists
}

// enrichTrack reads embedded tag metadata, best effort. Failure leaves the
// track with its filename only.
func (s *Scanner) enrichTrack(track types.AudioTrack) types.AudioTrack {
	reader, err := s.store.Open(track.Path)
	if err != nil {
		return track
	}
	defer reader.Close()

	seeker, ok := reader.(io.ReadSeeker)
	if !ok {
		return track
	}

	meta, err := tag.ReadFrom(seeker)
	if err != nil {
		return track
	}
	track.Title = meta.Title()
	track.Artist = meta.Artist()
	return track
}

// scanPlayerCharacters reads the roster from characters/PCs (or pcs): one
// player character per markdown file, stats parsed from its content.
func (s *Scanner) scanPlayerCharacters(cfg *types.SessionConfig) {
	charactersDir := s.findTopLevelDir("characters")
	if charactersDir == "" {
		return
	}

	pcsDir := ""
	entries, err := s.store.List(charactersDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir && (entry.Name == "PCs" || entry.Name == "pcs") {
			pcsDir = path.Join(charactersDir, entry.Name)
			break
		}
	}
	if pcsDir == "" {
		return
	}

	files := s.filesIn(pcsDir, types.KindMarkdown)
	for _, file := range files {
		name := strings.TrimSuffix(file.Name, path.Ext(file.Name))
		cfg.PlayerCharacterNames = append(cfg.PlayerCharacterNames, name)

		content, err := s.store.ReadText(file.Path)
		if err != nil {
			logger.L().Warnw("cannot read character sheet", "path", file.Path, "error", err)
			continue
		}
		cfg.PlayerCharacterStats[name] = types.CharacterStats{
			MaxHP:        ExtractMaxHP(content),
			DefenseScore: ExtractDefenseScore(content),
		}
	}
	sort.Strings(cfg.PlayerCharacterNames)
}

// findTopLevelDir matches a category directory case-insensitively.
func (s *Scanner) findTopLevelDir(category string) string {
	entries, err := s.store.List("")
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir && strings.EqualFold(entry.Name, category) {
			return entry.Name
		}
	}
	return ""
}

func partHasContent(part types.Part) bool {
	return part.PlanFile != nil ||
		len(part.Images) > 0 ||
		len(part.SupportDocs) > 0 ||
		len(part.AmbientPlaylist) > 0 ||
		len(part.EventPlaylists) > 0
}

// kindForExtension classifies a filename by its extension, or "" when the
// extension belongs to no supported kind.
func kindForExtension(name string) types.FileKind {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case config.MarkdownExtensions[ext]:
		return types.KindMarkdown
	case config.ImageExtensions[ext]:
		return types.KindImage
	case config.AudioExtensions[ext]:
		return types.KindAudio
	default:
		return ""
	}
}

// partNameFromFilename derives a display name from a plan filename:
// extension stripped, underscores become spaces, each word capitalized.
// Words of two characters or fewer past the first stay lowercase ("of",
// "in", "a").
func partNameFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	base = strings.ReplaceAll(base, "_", " ")

	words := strings.Fields(base)
	for i, word := range words {
		if i > 0 && len([]rune(word)) <= 2 {
			words[i] = strings.ToLower(word)
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
