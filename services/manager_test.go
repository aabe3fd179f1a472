package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, files map[string]string) *SessionManager {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)

	store, err := NewDirStore(root)
	require.NoError(t, err)

	engine := NewEngine(newFakeChannel())
	return NewSessionManager(store, engine, NewSearchIndex())
}

func sessionFiles() map[string]string {
	return map[string]string{
		"plan/act1/the_heist.md":      "# The Heist\nThe dragon guards the vault.",
		"plan/act2/escape.md":         "# Escape\nRun for the hills.",
		"threats/act1/golem.md":       "AC: 18\nA stone golem.",
		"music/act1/calm.mp3":         "audio",
		"music/act1/Combat/drums.mp3": "audio",
	}
}

// TestManagerScan tests detection plus index rebuild in one step
func TestManagerScan(t *testing.T) {
	manager := newTestManager(t, sessionFiles())

	result, err := manager.Scan()
	require.NoError(t, err)
	assert.True(t, result.Plausible)
	require.Len(t, result.Config.Parts, 2)

	cfg, err := manager.Config()
	require.NoError(t, err)
	assert.Equal(t, result.Config, cfg)

	results := manager.Search("dragon", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "plan/act1/the_heist.md", results[0].Reference.Path)
}

// TestManagerNoSession tests guards before anything is configured
func TestManagerNoSession(t *testing.T) {
	manager := newTestManager(t, nil)

	_, err := manager.Config()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = manager.Export()
	assert.ErrorIs(t, err, ErrNoSession)

	assert.ErrorIs(t, manager.ActivatePart("anything"), ErrNoSession)
	assert.Empty(t, manager.Search("dragon", 10))
}

// TestManagerActivatePart tests wiring a part into the engine
func TestManagerActivatePart(t *testing.T) {
	manager := newTestManager(t, sessionFiles())

	result, err := manager.Scan()
	require.NoError(t, err)
	partID := result.Config.Parts[0].ID

	require.NoError(t, manager.ActivatePart(partID))
	active, ok := manager.ActivePart()
	require.True(t, ok)
	assert.Equal(t, partID, active.ID)

	playlists := manager.FilterEventPlaylists("")
	require.Len(t, playlists, 1)
	assert.Equal(t, "Combat", playlists[0].Name)

	assert.ErrorIs(t, manager.ActivatePart("bogus"), ErrPartNotFound)
	_, ok = manager.ActivePart()
	assert.True(t, ok, "a failed activation keeps the previous part")
}

// TestManagerExportImport tests the config round trip through the manager
func TestManagerExportImport(t *testing.T) {
	manager := newTestManager(t, sessionFiles())
	_, err := manager.Scan()
	require.NoError(t, err)

	data, err := manager.Export()
	require.NoError(t, err)

	fresh := newTestManager(t, sessionFiles())
	require.NoError(t, fresh.Import(data))

	cfg, err := fresh.Config()
	require.NoError(t, err)
	assert.Equal(t, "The Heist", cfg.Parts[0].Name)

	results := fresh.Search("dragon", 10)
	assert.NotEmpty(t, results, "import rebuilds the search index")
}

// TestManagerImportRejectsInvalid tests that a bad import changes nothing
func TestManagerImportRejectsInvalid(t *testing.T) {
	manager := newTestManager(t, sessionFiles())
	_, err := manager.Scan()
	require.NoError(t, err)

	before, err := manager.Config()
	require.NoError(t, err)

	err = manager.Import([]byte(`{"rootFolderName": ""}`))
	require.Error(t, err)

	after, err := manager.Config()
	require.NoError(t, err)
	assert.Equal(t, before, after, "the prior config survives a rejected import")
}

// TestManagerFilterPlaylists tests fuzzy filtering through the active part
func TestManagerFilterPlaylists(t *testing.T) {
	manager := newTestManager(t, sessionFiles())
	result, err := manager.Scan()
	require.NoError(t, err)
	require.NoError(t, manager.ActivatePart(result.Config.Parts[0].ID))

	matched := manager.FilterEventPlaylists("cmbt")
	require.Len(t, matched, 1)
	assert.Equal(t, "Combat", matched[0].Name)

	assert.Empty(t, manager.FilterEventPlaylists("zzz"))
}
