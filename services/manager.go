package services

import (
	"errors"
	"sync"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

var (
	// ErrNoSession means no configuration is loaded yet (nothing scanned or
	// imported).
	ErrNoSession = errors.New("no session configured")
	// ErrPartNotFound means the requested part id is not in the current config.
	ErrPartNotFound = errors.New("part not found")
)

// SessionManager owns the current session: the detected or imported config,
// the active part, and the wiring between scanner, search index and playback
// engine. Handlers and the folder watcher go through it; it is safe for
// concurrent use.
type SessionManager struct {
	mu     sync.RWMutex
	store  FileStore
	engine *Engine
	index  *SearchIndex

	config       *types.SessionConfig
	plausible    bool
	activePartID string
}

// NewSessionManager wires a manager over its collaborators.
func NewSessionManager(store FileStore, engine *Engine, index *SearchIndex) *SessionManager {
	return &SessionManager{
		store:  store,
		engine: engine,
		index:  index,
	}
}

// Scan runs folder auto-detection, replaces the current config and rebuilds
// the search index. A scan yielding zero parts is not an error: the result
// tells the caller nothing was detected.
func (m *SessionManager) Scan() (*ScanResult, error) {
	scanner := NewScanner(m.store)
	result, err := scanner.Scan()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.config = result.Config
	m.plausible = result.Plausible
	m.activePartID = ""
	m.mu.Unlock()

	m.Reindex()
	return result, nil
}

// Config returns the current session config, or ErrNoSession.
func (m *SessionManager) Config() (*types.SessionConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil, ErrNoSession
	}
	return m.config, nil
}

// Export serializes the current config.
func (m *SessionManager) Export() ([]byte, error) {
	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}
	return ExportConfig(cfg)
}

// Import validates and installs a previously exported config. On any
// validation failure the prior in-memory configuration is left untouched.
func (m *SessionManager) Import(data []byte) error {
	cfg, err := ImportConfig(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.plausible = true
	m.activePartID = ""
	m.mu.Unlock()

	m.Reindex()
	return nil
}

// ActivatePart makes a part current: its ambient playlist and event
// playlists are loaded into the engine. Loading does not start playback; an
// unchanged ambient playlist keeps its position so music that still fits is
// not disrupted.
func (m *SessionManager) ActivatePart(partID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return ErrNoSession
	}
	for _, part := range m.config.Parts {
		if part.ID == partID {
			m.activePartID = partID
			m.engine.LoadAmbient(part.AmbientPlaylist)
			m.engine.LoadEventPlaylists(part.EventPlaylists)
			return nil
		}
	}
	return ErrPartNotFound
}

// ActivePart returns the currently active part, if any.
func (m *SessionManager) ActivePart() (types.Part, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil || m.activePartID == "" {
		return types.Part{}, false
	}
	for _, part := range m.config.Parts {
		if part.ID == m.activePartID {
			return part, true
		}
	}
	return types.Part{}, false
}

// Reindex rebuilds the document search index from every plan and support
// document in the current config. Unreadable files are skipped, not fatal:
// a bulk read tolerates partial failure.
func (m *SessionManager) Reindex() {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		m.index.IndexDocuments(nil)
		return
	}

	var docs []types.SearchDocument
	seen := make(map[string]bool)
	addDoc := func(ref types.FileReference) {
		if seen[ref.Path] {
			return
		}
		seen[ref.Path] = true
		content, err := m.store.ReadText(ref.Path)
		if err != nil {
			logger.L().Warnw("skipping unreadable document", "path", ref.Path, "error", err)
			return
		}
		docs = append(docs, types.SearchDocument{Reference: ref, RawContent: content})
	}

	for _, part := range cfg.Parts {
		if part.PlanFile != nil {
			addDoc(*part.PlanFile)
		}
		for _, doc := range part.SupportDocs {
			addDoc(doc)
		}
	}

	m.index.IndexDocuments(docs)
	logger.L().Infow("search index rebuilt", "documents", len(docs))
}

// Search queries the document index.
func (m *SessionManager) Search(query string, maxResults int) []types.SearchResult {
	return m.index.Search(query, maxResults)
}

// FilterEventPlaylists fuzzy-filters the active part's event playlists by
// name. A blank query returns them all in part order.
func (m *SessionManager) FilterEventPlaylists(query string) []types.Playlist {
	return FilterPlaylists(m.engine.EventPlaylists(), query)
}
