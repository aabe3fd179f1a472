package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// recordingSender captures channel commands instead of pushing them to a UI.
type recordingSender struct {
	mu       sync.Mutex
	commands []ChannelCommand
}

func (s *recordingSender) SendCommand(cmd ChannelCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
}

func (s *recordingSender) last() (ChannelCommand, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commands) == 0 {
		return ChannelCommand{}, false
	}
	return s.commands[len(s.commands)-1], true
}

func newBroadcastFixture(t *testing.T) (*BroadcastChannel, *recordingSender) {
	t.Helper()
	store, _ := newTestStore(t)
	sender := &recordingSender{}
	return NewBroadcastChannel(sender, store), sender
}

// TestBroadcastChannelLoad tests the load command and its file check
func TestBroadcastChannelLoad(t *testing.T) {
	channel, sender := newBroadcastFixture(t)

	track := types.AudioTrack{FileReference: types.FileReference{
		Path: "plan/act1.md", Name: "act1.md", Kind: types.KindMarkdown,
	}}
	require.NoError(t, channel.Load(track, 7.5))

	cmd, ok := sender.last()
	require.True(t, ok)
	assert.Equal(t, "load", cmd.Action)
	assert.Equal(t, "plan/act1.md", cmd.TrackPath)
	assert.Equal(t, "/api/files/stream/plan/act1.md", cmd.StreamURL)
	assert.Equal(t, 7.5, cmd.Position)
	assert.Equal(t, 7.5, channel.Position(), "a loaded track starts at its offset")
}

// TestBroadcastChannelLoadMissingFile tests that dead paths never reach the UI
func TestBroadcastChannelLoadMissingFile(t *testing.T) {
	channel, sender := newBroadcastFixture(t)

	track := types.AudioTrack{FileReference: types.FileReference{
		Path: "music/moved.mp3", Name: "moved.mp3", Kind: types.KindAudio,
	}}
	err := channel.Load(track, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := sender.last()
	assert.False(t, ok, "no command is sent for a missing file")
}

// TestBroadcastChannelClock tests the position clock across play and pause
func TestBroadcastChannelClock(t *testing.T) {
	channel, sender := newBroadcastFixture(t)
	track := types.AudioTrack{FileReference: types.FileReference{
		Path: "plan/act1.md", Name: "act1.md", Kind: types.KindMarkdown,
	}}
	require.NoError(t, channel.Load(track, 10))

	channel.Play()
	time.Sleep(30 * time.Millisecond)
	assert.Greater(t, channel.Position(), 10.0, "position advances while playing")

	channel.Pause()
	paused := channel.Position()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, paused, channel.Position(), "position freezes while paused")

	cmd, _ := sender.last()
	assert.Equal(t, "pause", cmd.Action)
}

// TestBroadcastChannelSeekAndSync tests seeking and UI drift correction
func TestBroadcastChannelSeekAndSync(t *testing.T) {
	channel, sender := newBroadcastFixture(t)

	channel.SeekTo(42)
	assert.Equal(t, 42.0, channel.Position())
	cmd, _ := sender.last()
	assert.Equal(t, "seek", cmd.Action)
	assert.Equal(t, 42.0, cmd.Position)

	channel.SyncPosition(40)
	assert.Equal(t, 40.0, channel.Position(), "the UI report is authoritative")
}

// TestBroadcastChannelStop tests the reset to silence
func TestBroadcastChannelStop(t *testing.T) {
	channel, sender := newBroadcastFixture(t)
	channel.SeekTo(15)

	channel.Stop()
	assert.Equal(t, 0.0, channel.Position())
	cmd, _ := sender.last()
	assert.Equal(t, "stop", cmd.Action)
}
