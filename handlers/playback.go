package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/websocket"
)

// PlaybackHandler exposes the audio engine's transport operations. Engine
// contract violations (empty playlist, unknown playlist, bad index) come
// back as warnings, never 5xx: the engine is already logging them and stays
// consistent.
type PlaybackHandler struct {
	engine  *services.Engine
	channel *services.BroadcastChannel
	hub     websocket.Hub
}

// NewPlaybackHandler creates a new playback handler
func NewPlaybackHandler(engine *services.Engine, channel *services.BroadcastChannel, hub websocket.Hub) *PlaybackHandler {
	return &PlaybackHandler{engine: engine, channel: channel, hub: hub}
}

func (h *PlaybackHandler) respond(c *gin.Context, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"state": h.engine.Snapshot()})
		return
	}

	switch {
	case errors.Is(err, services.ErrEmptyPlaylist):
		c.JSON(http.StatusOK, gin.H{
			"warning": "playlist has no tracks",
			"state":   h.engine.Snapshot(),
		})
	case errors.Is(err, services.ErrPlaylistNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
	case errors.Is(err, services.ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "track index out of range"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// PlayAmbient switches playback to the ambient playlist.
func (h *PlaybackHandler) PlayAmbient(c *gin.Context) {
	h.respond(c, h.engine.PlayAmbient())
}

// StartEvent switches playback to a named event playlist.
func (h *PlaybackHandler) StartEvent(c *gin.Context) {
	h.respond(c, h.engine.StartEvent(c.Param("playlistId")))
}

// StopEvent leaves event mode, falling back to ambient or silence.
func (h *PlaybackHandler) StopEvent(c *gin.Context) {
	h.respond(c, h.engine.StopEvent())
}

// Pause stops the audio immediately.
func (h *PlaybackHandler) Pause(c *gin.Context) {
	h.engine.Pause()
	h.respond(c, nil)
}

// Resume continues from the paused position.
func (h *PlaybackHandler) Resume(c *gin.Context) {
	h.engine.Resume()
	h.respond(c, nil)
}

// SkipNext advances to the next track with wraparound.
func (h *PlaybackHandler) SkipNext(c *gin.Context) {
	h.respond(c, h.engine.SkipNext())
}

// SkipPrevious retreats to the previous track with wraparound.
func (h *PlaybackHandler) SkipPrevious(c *gin.Context) {
	h.respond(c, h.engine.SkipPrevious())
}

// PlayTrackAtIndex jumps to an explicit track in the current playlist.
func (h *PlaybackHandler) PlayTrackAtIndex(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	h.respond(c, h.engine.PlayTrackAtIndex(index))
}

// SetVolume updates the global volume scalar.
func (h *PlaybackHandler) SetVolume(c *gin.Context) {
	var body struct {
		Volume *float64 `json:"volume"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Volume == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"volume\": 0..1}"})
		return
	}

	h.engine.SetVolume(*body.Volume)
	h.respond(c, nil)
}

// GetState returns the synchronous playback snapshot.
func (h *PlaybackHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.engine.Snapshot()})
}

// TrackEnded is the UI's report that the current track played to its natural
// end; the engine advances through the playlist with wraparound.
func (h *PlaybackHandler) TrackEnded(c *gin.Context) {
	h.engine.TrackEnded()
	h.respond(c, nil)
}

// TrackFailed is the UI's report that the current track could not be loaded
// or decoded; the engine skips ahead rather than halting.
func (h *PlaybackHandler) TrackFailed(c *gin.Context) {
	var body struct {
		TrackPath string  `json:"trackPath"`
		Position  float64 `json:"position"`
	}
	_ = c.ShouldBindJSON(&body)

	h.engine.TrackFailed(body.TrackPath)
	h.respond(c, nil)
}

// SyncPosition accepts the UI's periodic position report so resume memory
// tracks real playback rather than the server clock.
func (h *PlaybackHandler) SyncPosition(c *gin.Context) {
	var body struct {
		Position *float64 `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Position == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"position\": seconds}"})
		return
	}

	h.channel.SyncPosition(*body.Position)
	c.JSON(http.StatusOK, gin.H{"message": "position synced"})
}

// HandleWebSocketConnection upgrades the transport UI's connection; the
// client then receives state pushes and audio channel commands.
func (h *PlaybackHandler) HandleWebSocketConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
