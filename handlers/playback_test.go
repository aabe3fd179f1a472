package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

func eventTracks(names ...string) []types.AudioTrack {
	tracks := make([]types.AudioTrack, 0, len(names))
	for _, name := range names {
		tracks = append(tracks, types.AudioTrack{
			FileReference: types.FileReference{Path: "music/" + name, Name: name, Kind: types.KindAudio},
		})
	}
	return tracks
}

func newPlaybackRouter(t *testing.T) (*gin.Engine, *services.Engine) {
	t.Helper()
	engine := services.NewEngine(&nullChannel{})
	engine.SetFadeTiming(4*time.Millisecond, time.Millisecond)
	engine.LoadAmbient(eventTracks("calm.mp3", "tense.mp3"))
	engine.LoadEventPlaylists([]types.Playlist{
		{ID: "combat", Name: "Combat", Tracks: eventTracks("drums.mp3")},
		{ID: "empty", Name: "Empty", Tracks: []types.AudioTrack{}},
	})

	handler := NewPlaybackHandler(engine, nil, nil)

	router := gin.New()
	playback := router.Group("/api/playback")
	{
		playback.POST("/ambient", handler.PlayAmbient)
		playback.POST("/event/:playlistId", handler.StartEvent)
		playback.POST("/stop", handler.StopEvent)
		playback.POST("/pause", handler.Pause)
		playback.POST("/resume", handler.Resume)
		playback.POST("/next", handler.SkipNext)
		playback.POST("/previous", handler.SkipPrevious)
		playback.POST("/track/:index", handler.PlayTrackAtIndex)
		playback.PUT("/volume", handler.SetVolume)
		playback.GET("/state", handler.GetState)
		playback.POST("/ended", handler.TrackEnded)
		playback.POST("/failed", handler.TrackFailed)
	}
	return router, engine
}

func waitUntilPlaying(t *testing.T, engine *services.Engine) {
	t.Helper()
	require.Eventually(t, func() bool {
		return engine.Snapshot().State == types.StatePlaying
	}, time.Second, time.Millisecond)
}

// TestPlaybackAmbientEndpoint tests starting ambient over HTTP
func TestPlaybackAmbientEndpoint(t *testing.T) {
	router, engine := newPlaybackRouter(t)

	w := doRequest(router, http.MethodPost, "/api/playback/ambient", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state"`)

	waitUntilPlaying(t, engine)
	assert.Equal(t, types.ModeAmbient, engine.Snapshot().Mode)
}

// TestPlaybackEventEndpoints tests event start and stop
func TestPlaybackEventEndpoints(t *testing.T) {
	router, engine := newPlaybackRouter(t)

	w := doRequest(router, http.MethodPost, "/api/playback/event/combat", "")
	require.Equal(t, http.StatusOK, w.Code)
	waitUntilPlaying(t, engine)
	assert.Equal(t, types.ModeEvent, engine.Snapshot().Mode)

	w = doRequest(router, http.MethodPost, "/api/playback/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	waitUntilPlaying(t, engine)
	assert.Equal(t, types.ModeAmbient, engine.Snapshot().Mode)
}

// TestPlaybackUnknownPlaylist tests the 404 path
func TestPlaybackUnknownPlaylist(t *testing.T) {
	router, _ := newPlaybackRouter(t)

	w := doRequest(router, http.MethodPost, "/api/playback/event/bogus", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPlaybackEmptyPlaylistWarning tests that empty playlists warn with 200
func TestPlaybackEmptyPlaylistWarning(t *testing.T) {
	router, _ := newPlaybackRouter(t)

	w := doRequest(router, http.MethodPost, "/api/playback/event/empty", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"warning"`)
}

// TestPlaybackTrackIndexBounds tests index validation
func TestPlaybackTrackIndexBounds(t *testing.T) {
	router, engine := newPlaybackRouter(t)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/playback/ambient", "").Code)
	waitUntilPlaying(t, engine)

	w := doRequest(router, http.MethodPost, "/api/playback/track/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/playback/track/9", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/playback/track/notanumber", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPlaybackVolumeEndpoint tests volume updates and their validation
func TestPlaybackVolumeEndpoint(t *testing.T) {
	router, engine := newPlaybackRouter(t)

	w := doRequest(router, http.MethodPut, "/api/playback/volume", `{"volume": 0.4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.4, engine.Snapshot().Volume)

	w = doRequest(router, http.MethodPut, "/api/playback/volume", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPut, "/api/playback/volume", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPlaybackStateEndpoint tests the snapshot endpoint
func TestPlaybackStateEndpoint(t *testing.T) {
	router, _ := newPlaybackRouter(t)

	w := doRequest(router, http.MethodGet, "/api/playback/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
}

// TestPlaybackEndedAdvances tests the UI end-of-track report
func TestPlaybackEndedAdvances(t *testing.T) {
	router, engine := newPlaybackRouter(t)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/playback/ambient", "").Code)
	waitUntilPlaying(t, engine)
	require.Equal(t, 0, engine.Snapshot().TrackIndex)

	w := doRequest(router, http.MethodPost, "/api/playback/ended", "")
	require.Equal(t, http.StatusOK, w.Code)
	waitUntilPlaying(t, engine)
	assert.Equal(t, 1, engine.Snapshot().TrackIndex)
}
