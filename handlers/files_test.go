package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	root := t.TempDir()
	writeSessionTree(t, root, map[string]string{
		"music/act1/theme.mp3":  "0123456789abcdef",
		"images/act1/map.png":   "pngdata",
		"plan/act1/notes.md":    "# Notes",
		"characters/secret.txt": "not streamable",
	})

	handler := NewFileHandler(root)
	router := gin.New()
	router.GET("/api/files/stream/*filepath", handler.StreamFile)
	return router, root
}

func streamRequest(router *gin.Engine, path, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestStreamFile tests a plain full-file stream
func TestStreamFile(t *testing.T) {
	router, _ := newFileRouter(t)

	w := streamRequest(router, "/api/files/stream/music/act1/theme.mp3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0123456789abcdef", w.Body.String())
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
}

// TestStreamFileRangeRequest tests partial content for seeking
func TestStreamFileRangeRequest(t *testing.T) {
	router, _ := newFileRouter(t)

	w := streamRequest(router, "/api/files/stream/music/act1/theme.mp3", "bytes=4-7")
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "4567", w.Body.String())
	assert.Equal(t, "bytes 4-7/16", w.Header().Get("Content-Range"))

	w = streamRequest(router, "/api/files/stream/music/act1/theme.mp3", "bytes=10-")
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "abcdef", w.Body.String())
}

// TestStreamFileKinds tests that each supported kind streams
func TestStreamFileKinds(t *testing.T) {
	router, _ := newFileRouter(t)

	assert.Equal(t, http.StatusOK, streamRequest(router, "/api/files/stream/images/act1/map.png", "").Code)
	assert.Equal(t, http.StatusOK, streamRequest(router, "/api/files/stream/plan/act1/notes.md", "").Code)
}

// TestStreamFileRejectsUnknownExtension tests the extension allowlist
func TestStreamFileRejectsUnknownExtension(t *testing.T) {
	router, _ := newFileRouter(t)

	w := streamRequest(router, "/api/files/stream/characters/secret.txt", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestStreamFileRejectsTraversal tests the path jail
func TestStreamFileRejectsTraversal(t *testing.T) {
	router, root := newFileRouter(t)
	outside := filepath.Join(filepath.Dir(root), "outside.mp3")
	require.NoError(t, os.WriteFile(outside, []byte("escape"), 0644))

	w := streamRequest(router, "/api/files/stream/../outside.mp3", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestStreamFileNotFound tests the missing-file answer
func TestStreamFileNotFound(t *testing.T) {
	router, _ := newFileRouter(t)

	w := streamRequest(router, "/api/files/stream/music/act1/missing.mp3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
