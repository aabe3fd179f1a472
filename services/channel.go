package services

import (
	"sync"
	"time"

	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// ChannelCommand is one instruction for the UI-side audio element. The
// browser owns the physical playback; this process owns the decisions.
type ChannelCommand struct {
	Action    string  `json:"action"` // "load", "play", "pause", "seek", "volume", "stop"
	TrackPath string  `json:"trackPath,omitempty"`
	StreamURL string  `json:"streamUrl,omitempty"`
	Position  float64 `json:"position,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
}

// CommandSender delivers channel commands to the connected UI. The websocket
// hub implements this; tests substitute a recorder.
type CommandSender interface {
	SendCommand(cmd ChannelCommand)
}

// BroadcastChannel implements Channel by relaying commands to the UI audio
// element and tracking the playback position with a monotonic clock. The
// clock is authoritative enough for resume memory; the UI reports the real
// end of a track via the playback feedback endpoints.
type BroadcastChannel struct {
	mu     sync.Mutex
	sender CommandSender
	store  FileStore

	trackPath string
	basePos   float64
	playing   bool
	startedAt time.Time
}

// NewBroadcastChannel creates a channel over a command sender. The store
// verifies tracks still resolve before the UI is told to load them.
func NewBroadcastChannel(sender CommandSender, store FileStore) *BroadcastChannel {
	return &BroadcastChannel{sender: sender, store: store}
}

func (c *BroadcastChannel) Load(track types.AudioTrack, startAt float64) error {
	// Catch moved/renamed files here so the engine can skip ahead instead of
	// handing the UI a dead URL.
	if _, err := c.store.Stat(track.Path); err != nil {
		return err
	}

	c.mu.Lock()
	c.trackPath = track.Path
	c.basePos = startAt
	c.playing = false
	c.mu.Unlock()

	c.sender.SendCommand(ChannelCommand{
		Action:    "load",
		TrackPath: track.Path,
		StreamURL: "/api/files/stream/" + track.Path,
		Position:  startAt,
	})
	return nil
}

func (c *BroadcastChannel) Play() {
	c.mu.Lock()
	if !c.playing {
		c.playing = true
		c.startedAt = time.Now()
	}
	c.mu.Unlock()
	c.sender.SendCommand(ChannelCommand{Action: "play"})
}

func (c *BroadcastChannel) Pause() {
	c.mu.Lock()
	if c.playing {
		c.basePos += time.Since(c.startedAt).Seconds()
		c.playing = false
	}
	c.mu.Unlock()
	c.sender.SendCommand(ChannelCommand{Action: "pause"})
}

func (c *BroadcastChannel) SeekTo(seconds float64) {
	c.mu.Lock()
	c.basePos = seconds
	if c.playing {
		c.startedAt = time.Now()
	}
	c.mu.Unlock()
	c.sender.SendCommand(ChannelCommand{Action: "seek", Position: seconds})
}

func (c *BroadcastChannel) SetVolume(volume float64) {
	c.sender.SendCommand(ChannelCommand{Action: "volume", Volume: volume})
}

func (c *BroadcastChannel) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return c.basePos + time.Since(c.startedAt).Seconds()
	}
	return c.basePos
}

func (c *BroadcastChannel) Stop() {
	c.mu.Lock()
	c.trackPath = ""
	c.basePos = 0
	c.playing = false
	c.mu.Unlock()
	c.sender.SendCommand(ChannelCommand{Action: "stop"})
}

// SyncPosition accepts the UI's authoritative position report, correcting
// clock drift (buffering stalls, tab throttling).
func (c *BroadcastChannel) SyncPosition(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basePos = seconds
	if c.playing {
		c.startedAt = time.Now()
	}
}
