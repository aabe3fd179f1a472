package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// nullChannel satisfies services.Channel for tests that never render audio.
type nullChannel struct{ position float64 }

func (c *nullChannel) Load(track types.AudioTrack, startAt float64) error {
	c.position = startAt
	return nil
}
func (c *nullChannel) Play()                  {}
func (c *nullChannel) Pause()                 {}
func (c *nullChannel) SeekTo(seconds float64) { c.position = seconds }
func (c *nullChannel) SetVolume(float64)      {}
func (c *nullChannel) Position() float64      { return c.position }
func (c *nullChannel) Stop()                  {}

func writeSessionTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func newSessionRouter(t *testing.T, files map[string]string) (*gin.Engine, *services.SessionManager) {
	t.Helper()
	root := t.TempDir()
	writeSessionTree(t, root, files)

	store, err := services.NewDirStore(root)
	require.NoError(t, err)

	engine := services.NewEngine(&nullChannel{})
	manager := services.NewSessionManager(store, engine, services.NewSearchIndex())
	handler := NewSessionHandler(manager)
	searchHandler := NewSearchHandler(manager)

	router := gin.New()
	api := router.Group("/api")
	{
		api.POST("/session/scan", handler.Scan)
		api.GET("/session/config", handler.GetConfig)
		api.GET("/session/export", handler.Export)
		api.POST("/session/import", handler.Import)
		api.POST("/session/parts/:partId/activate", handler.ActivatePart)
		api.GET("/session/playlists", handler.FilterPlaylists)
		api.GET("/search", searchHandler.Search)
	}
	return router, manager
}

func defaultSessionFiles() map[string]string {
	return map[string]string{
		"plan/act1/the_heist.md":      "# The Heist\nThe dragon guards the vault.",
		"music/act1/calm.mp3":         "audio",
		"music/act1/Combat/drums.mp3": "audio",
	}
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestSessionScanEndpoint tests auto-detection over HTTP
func TestSessionScanEndpoint(t *testing.T) {
	router, _ := newSessionRouter(t, defaultSessionFiles())

	w := doRequest(router, http.MethodPost, "/api/session/scan", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Detected  bool                 `json:"detected"`
		Plausible bool                 `json:"plausible"`
		Config    *types.SessionConfig `json:"config"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Detected)
	assert.True(t, response.Plausible)
	require.NotNil(t, response.Config)
	require.Len(t, response.Config.Parts, 1)
	assert.Equal(t, "The Heist", response.Config.Parts[0].Name)
}

// TestSessionScanNothingDetected tests the empty-folder answer
func TestSessionScanNothingDetected(t *testing.T) {
	router, _ := newSessionRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/session/scan", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"detected":false`)
}

// TestSessionConfigBeforeScan tests the no-session guard
func TestSessionConfigBeforeScan(t *testing.T) {
	router, _ := newSessionRouter(t, defaultSessionFiles())

	w := doRequest(router, http.MethodGet, "/api/session/config", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestSessionExportImport tests the config download and upload endpoints
func TestSessionExportImport(t *testing.T) {
	router, _ := newSessionRouter(t, defaultSessionFiles())
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/session/scan", "").Code)

	export := doRequest(router, http.MethodGet, "/api/session/export", "")
	require.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get("Content-Disposition"), "session-config.json")

	fresh, _ := newSessionRouter(t, defaultSessionFiles())
	w := doRequest(fresh, http.MethodPost, "/api/session/import", export.Body.String())
	require.Equal(t, http.StatusOK, w.Code)

	cfg := doRequest(fresh, http.MethodGet, "/api/session/config", "")
	assert.Equal(t, http.StatusOK, cfg.Code)
	assert.Contains(t, cfg.Body.String(), "The Heist")
}

// TestSessionImportValidation tests the structured rejection
func TestSessionImportValidation(t *testing.T) {
	router, _ := newSessionRouter(t, defaultSessionFiles())

	w := doRequest(router, http.MethodPost, "/api/session/import", `{"rootFolderName":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "validation failed", response.Error)
	assert.Equal(t, "rootFolderName", response.Field)
}

// TestSessionActivatePart tests activation status codes
func TestSessionActivatePart(t *testing.T) {
	router, manager := newSessionRouter(t, defaultSessionFiles())

	w := doRequest(router, http.MethodPost, "/api/session/parts/some-id/activate", "")
	assert.Equal(t, http.StatusConflict, w.Code, "activation without a session is a conflict")

	result, err := manager.Scan()
	require.NoError(t, err)
	partID := result.Config.Parts[0].ID

	w = doRequest(router, http.MethodPost, "/api/session/parts/"+partID+"/activate", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/session/parts/bogus/activate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestSessionFilterPlaylists tests the fuzzy playlist filter endpoint
func TestSessionFilterPlaylists(t *testing.T) {
	router, manager := newSessionRouter(t, defaultSessionFiles())
	result, err := manager.Scan()
	require.NoError(t, err)
	require.NoError(t, manager.ActivatePart(result.Config.Parts[0].ID))

	w := doRequest(router, http.MethodGet, "/api/session/playlists?query=cmbt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Combat")
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doRequest(router, http.MethodGet, "/api/session/playlists", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`, "a blank query lists everything")
}

// TestSearchEndpoint tests document search over HTTP
func TestSearchEndpoint(t *testing.T) {
	router, manager := newSessionRouter(t, defaultSessionFiles())
	_, err := manager.Scan()
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/api/search?q=dragon", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "the_heist.md")
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doRequest(router, http.MethodGet, "/api/search?q=", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`, "a blank query is valid and empty")
}
