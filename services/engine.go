package services

import (
	"errors"
	"sync"
	"time"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// Engine contract violations. These are caller-induced and warning-level:
// they never crash the engine or leave it in an inconsistent state.
var (
	ErrEmptyPlaylist    = errors.New("playlist has no tracks")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrIndexOutOfRange  = errors.New("track index out of range")
)

// Channel is the one physical audio channel the engine drives. Exactly one
// track is audible at a time; implementations must be safe for concurrent
// use because fade goroutines adjust volume while callers issue commands.
type Channel interface {
	// Load swaps the channel's source to the given track at a start offset
	// in seconds. A load failure must leave the channel silent, not wedged.
	Load(track types.AudioTrack, startAt float64) error
	Play()
	Pause()
	SeekTo(seconds float64)
	SetVolume(volume float64)
	// Position reports seconds into the current track.
	Position() float64
	Stop()
}

// playlistMemory is per-playlist resume state: remembered track index and
// playback position, restored whenever that playlist is reactivated.
type playlistMemory struct {
	index    int
	position float64
}

// Engine is the session playback state machine: one audio channel, an
// ambient playlist plus named event playlists, crossfaded transitions, and
// per-playlist resume memory. All state mutations happen under one mutex;
// fades run on their own goroutine but re-enter only through a token check,
// so a superseded fade cannot corrupt state.
type Engine struct {
	mu      sync.Mutex
	channel Channel

	fadeDuration time.Duration
	fadeStep     time.Duration

	mode   types.PlaybackMode
	state  types.PlayState
	volume float64

	ambientTracks []types.AudioTrack
	ambient       playlistMemory

	eventPlaylists []types.Playlist
	eventMemory    map[string]*playlistMemory
	activeEventID  string

	fade *fadeOp

	onTrackChange     func(types.PlaybackSnapshot)
	onPlayStateChange func(types.PlaybackSnapshot)
}

// NewEngine creates an idle engine over the given channel with the default
// sub-2-second fade.
func NewEngine(channel Channel) *Engine {
	return &Engine{
		channel:      channel,
		fadeDuration: 1500 * time.Millisecond,
		fadeStep:     50 * time.Millisecond,
		mode:         types.ModeAmbient,
		state:        types.StateIdle,
		volume:       1.0,
		eventMemory:  make(map[string]*playlistMemory),
	}
}

// SetFadeTiming overrides the fade duration and step interval. Tests use
// this to shrink transitions to milliseconds.
func (e *Engine) SetFadeTiming(duration, step time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fadeDuration = duration
	e.fadeStep = step
}

// OnTrackChange registers the callback fired whenever the audible track
// changes. At most one callback; the last registration wins.
func (e *Engine) OnTrackChange(fn func(types.PlaybackSnapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTrackChange = fn
}

// OnPlayStateChange registers the callback fired whenever the play state
// changes (playing/paused/idle, mode switches).
func (e *Engine) OnPlayStateChange(fn func(types.PlaybackSnapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPlayStateChange = fn
}

// LoadAmbient replaces the engine's view of the current part's ambient
// playlist. Playback is not started. Index and position reset only when the
// track sequence actually changed: music that is still appropriate across a
// part switch keeps playing undisturbed.
func (e *Engine) LoadAmbient(tracks []types.AudioTrack) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !samePaths(e.ambientTracks, tracks) {
		e.ambient = playlistMemory{}
	}
	e.ambientTracks = tracks
}

// LoadEventPlaylists replaces the loaded event playlists. Resume memory is
// kept for playlists whose id and track sequence survive the reload and
// reset for everything else.
func (e *Engine) LoadEventPlaylists(playlists []types.Playlist) {
	e.mu.Lock()
	defer e.mu.Unlock()

	previous := make(map[string]types.Playlist, len(e.eventPlaylists))
	for _, playlist := range e.eventPlaylists {
		previous[playlist.ID] = playlist
	}

	memory := make(map[string]*playlistMemory, len(playlists))
	for _, playlist := range playlists {
		if old, ok := previous[playlist.ID]; ok && samePaths(old.Tracks, playlist.Tracks) {
			if m, ok := e.eventMemory[playlist.ID]; ok {
				memory[playlist.ID] = m
				continue
			}
		}
		memory[playlist.ID] = &playlistMemory{}
	}

	e.eventPlaylists = playlists
	e.eventMemory = memory
}

// PlayAmbient switches to ambient mode at its remembered index and resume
// position. An empty ambient playlist is a surfaced warning, not a crash:
// the engine does nothing further.
func (e *Engine) PlayAmbient() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playAmbientLocked()
}

func (e *Engine) playAmbientLocked() error {
	if len(e.ambientTracks) == 0 {
		logger.L().Warn("ambient playlist is empty, nothing to play")
		return ErrEmptyPlaylist
	}

	e.savePositionLocked()
	e.mode = types.ModeAmbient
	e.activeEventID = ""
	e.transitionLocked(e.ambient.index, e.ambient.position)
	return nil
}

// StartEvent switches to event mode, activating the named playlist at its
// own remembered index and position. Each event playlist carries independent
// resume memory keyed by playlist id.
func (e *Engine) StartEvent(playlistID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	playlist, ok := e.findEventPlaylist(playlistID)
	if !ok {
		return ErrPlaylistNotFound
	}
	if len(playlist.Tracks) == 0 {
		logger.L().Warnw("event playlist has no tracks", "playlist", playlist.Name)
		return ErrEmptyPlaylist
	}

	e.savePositionLocked()
	e.mode = types.ModeEvent
	e.activeEventID = playlistID
	mem := e.memoryFor(playlistID)
	e.transitionLocked(mem.index, mem.position)
	return nil
}

// StopEvent leaves event mode, falling back to the ambient playlist when one
// is loaded and to silence otherwise. A no-op outside event mode.
func (e *Engine) StopEvent() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != types.ModeEvent {
		return nil
	}

	e.savePositionLocked()
	e.activeEventID = ""

	if len(e.ambientTracks) > 0 {
		e.mode = types.ModeAmbient
		e.transitionLocked(e.ambient.index, e.ambient.position)
		return nil
	}

	e.cancelFadeLocked()
	e.channel.Stop()
	e.mode = types.ModeAmbient
	e.setStateLocked(types.StateIdle)
	return nil
}

// Pause stops the audio immediately, with no fade. An in-flight fade is
// aborted rather than left running against a paused channel.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == types.StateIdle || e.state == types.StatePaused {
		return
	}

	e.cancelFadeLocked()
	e.savePositionLocked()
	e.channel.Pause()
	e.setStateLocked(types.StatePaused)
}

// Resume continues from the exact paused position.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != types.StatePaused {
		return
	}

	e.channel.SetVolume(e.volume)
	e.channel.Play()
	e.setStateLocked(types.StatePlaying)
}

// SkipNext advances within the current playlist, wrapping past the last
// track to the first, always through a fade.
func (e *Engine) SkipNext() error {
	return e.skip(1)
}

// SkipPrevious retreats within the current playlist, wrapping before the
// first track to the last.
func (e *Engine) SkipPrevious() error {
	return e.skip(-1)
}

func (e *Engine) skip(delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tracks := e.currentTracksLocked()
	if len(tracks) == 0 {
		logger.L().Warn("skip requested with no active playlist")
		return ErrEmptyPlaylist
	}

	index := (e.currentIndexLocked() + delta + len(tracks)) % len(tracks)
	e.transitionLocked(index, 0)
	return nil
}

// PlayTrackAtIndex jumps to an explicit track in the current playlist,
// bounds-checked against its length.
func (e *Engine) PlayTrackAtIndex(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tracks := e.currentTracksLocked()
	if index < 0 || index >= len(tracks) {
		logger.L().Warnw("track index out of range", "index", index, "length", len(tracks))
		return ErrIndexOutOfRange
	}

	e.transitionLocked(index, 0)
	return nil
}

// TrackEnded handles natural end-of-track: the current playlist advances
// with wraparound and keeps looping until explicitly changed.
func (e *Engine) TrackEnded() {
	e.mu.Lock()
	defer e.mu.Unlock()

	tracks := e.currentTracksLocked()
	if len(tracks) == 0 || e.state == types.StateIdle {
		return
	}

	index := (e.currentIndexLocked() + 1) % len(tracks)
	e.cancelFadeLocked()
	// The old track already played itself out, so no fade-out is owed.
	e.loadAndFadeInLocked(index, 0)
}

// TrackFailed handles an asynchronous load failure (file moved, decode
// error): log and immediately attempt the next track rather than halting.
func (e *Engine) TrackFailed(trackPath string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger.L().Warnw("track failed to load, skipping", "path", trackPath)

	tracks := e.currentTracksLocked()
	if len(tracks) <= 1 {
		e.cancelFadeLocked()
		e.channel.Stop()
		e.setStateLocked(types.StateIdle)
		return
	}

	index := (e.currentIndexLocked() + 1) % len(tracks)
	e.cancelFadeLocked()
	e.loadAndFadeInLocked(index, 0)
}

// SetVolume sets the single global volume scalar, clamped to [0,1]. While a
// fade is in flight the fade owns the volume curve; the new level lands when
// the fade completes.
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	e.volume = volume

	if e.fade == nil && (e.state == types.StatePlaying || e.state == types.StatePaused) {
		e.channel.SetVolume(volume)
	}
}

// Snapshot returns the synchronous view transport controls render from.
func (e *Engine) Snapshot() types.PlaybackSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() types.PlaybackSnapshot {
	snap := types.PlaybackSnapshot{
		Mode:       e.mode,
		State:      e.state,
		IsPlaying:  e.state == types.StatePlaying || e.state == types.StateFadingIn || e.state == types.StateFadingOut,
		TrackIndex: e.currentIndexLocked(),
		Volume:     e.volume,
		Position:   e.channel.Position(),
	}

	tracks := e.currentTracksLocked()
	snap.TrackCount = len(tracks)
	if snap.TrackIndex >= 0 && snap.TrackIndex < len(tracks) {
		track := tracks[snap.TrackIndex]
		snap.CurrentTrackPath = track.Path
		snap.CurrentTrackName = track.Name
		if track.Title != "" {
			snap.CurrentTrackName = track.Title
		}
	}

	if e.mode == types.ModeEvent {
		if playlist, ok := e.findEventPlaylist(e.activeEventID); ok {
			snap.ActivePlaylistID = playlist.ID
			snap.ActivePlaylist = playlist.Name
		}
	}
	return snap
}

// EventPlaylists returns the currently loaded event playlists.
func (e *Engine) EventPlaylists() []types.Playlist {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Playlist, len(e.eventPlaylists))
	copy(out, e.eventPlaylists)
	return out
}

// --- internals, all called with e.mu held ---

func (e *Engine) findEventPlaylist(id string) (types.Playlist, bool) {
	for _, playlist := range e.eventPlaylists {
		if playlist.ID == id {
			return playlist, true
		}
	}
	return types.Playlist{}, false
}

func (e *Engine) memoryFor(playlistID string) *playlistMemory {
	if m, ok := e.eventMemory[playlistID]; ok {
		return m
	}
	m := &playlistMemory{}
	e.eventMemory[playlistID] = m
	return m
}

func (e *Engine) currentTracksLocked() []types.AudioTrack {
	if e.mode == types.ModeEvent {
		if playlist, ok := e.findEventPlaylist(e.activeEventID); ok {
			return playlist.Tracks
		}
		return nil
	}
	return e.ambientTracks
}

func (e *Engine) currentIndexLocked() int {
	if e.mode == types.ModeEvent {
		if e.activeEventID == "" {
			return 0
		}
		return e.memoryFor(e.activeEventID).index
	}
	return e.ambient.index
}

func (e *Engine) setIndexLocked(index int) {
	if e.mode == types.ModeEvent {
		if e.activeEventID != "" {
			e.memoryFor(e.activeEventID).index = index
		}
		return
	}
	e.ambient.index = index
}

// savePositionLocked captures the channel position into the resume memory of
// whatever is currently active, so it survives the upcoming mode or playlist
// switch.
func (e *Engine) savePositionLocked() {
	if e.state == types.StateIdle || e.state == types.StateLoading {
		return
	}
	position := e.channel.Position()
	if e.mode == types.ModeEvent {
		if e.activeEventID != "" {
			e.memoryFor(e.activeEventID).position = position
		}
		return
	}
	e.ambient.position = position
}

func (e *Engine) cancelFadeLocked() {
	if e.fade != nil {
		e.fade.cancel()
		e.fade = nil
	}
}

// transitionLocked routes every track change through the fade sequence:
// fade out whatever is audible, swap the source, fade back in. The latest
// request wins: any in-flight fade is cancelled synchronously first, never
// queued behind.
func (e *Engine) transitionLocked(index int, position float64) {
	e.cancelFadeLocked()

	audible := e.state == types.StatePlaying || e.state == types.StateFadingIn
	if !audible {
		e.loadAndFadeInLocked(index, position)
		return
	}

	e.setStateLocked(types.StateFadingOut)
	fade := newFadeOp()
	e.fade = fade
	go fade.run(e.channel, e.volume, 0, e.fadeDuration, e.fadeStep, func(f *fadeOp) {
		e.afterFadeOut(f, index, position)
	})
}

func (e *Engine) afterFadeOut(f *fadeOp, index int, position float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fade != f {
		return // superseded while ramping down
	}
	e.fade = nil
	e.loadAndFadeInLocked(index, position)
}

// loadAndFadeInLocked swaps the channel source and ramps the volume back up.
// A track that fails to load synchronously is logged and skipped; playback
// moves on through the playlist rather than wedging, giving up only after a
// full lap of failures.
func (e *Engine) loadAndFadeInLocked(index int, position float64) {
	tracks := e.currentTracksLocked()
	if len(tracks) == 0 {
		e.setStateLocked(types.StateIdle)
		return
	}

	e.setStateLocked(types.StateLoading)

	loaded := -1
	startAt := position
	for attempt := 0; attempt < len(tracks); attempt++ {
		i := (index + attempt) % len(tracks)
		if err := e.channel.Load(tracks[i], startAt); err != nil {
			logger.L().Warnw("cannot load track, trying next", "path", tracks[i].Path, "error", err)
			startAt = 0
			continue
		}
		loaded = i
		break
	}
	if loaded < 0 {
		logger.L().Errorw("no track in playlist could be loaded", "mode", e.mode)
		e.channel.Stop()
		e.setStateLocked(types.StateIdle)
		return
	}

	e.setIndexLocked(loaded)
	if e.mode == types.ModeEvent {
		if e.activeEventID != "" {
			e.memoryFor(e.activeEventID).position = startAt
		}
	} else {
		e.ambient.position = startAt
	}

	e.channel.SetVolume(0)
	e.channel.Play()
	e.setStateLocked(types.StateFadingIn)

	if e.onTrackChange != nil {
		e.onTrackChange(e.snapshotLocked())
	}

	fade := newFadeOp()
	e.fade = fade
	go fade.run(e.channel, 0, e.volume, e.fadeDuration, e.fadeStep, e.afterFadeIn)
}

func (e *Engine) afterFadeIn(f *fadeOp) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fade != f {
		return
	}
	e.fade = nil
	// Settle on the user volume in case it moved during the ramp.
	e.channel.SetVolume(e.volume)
	e.setStateLocked(types.StatePlaying)
}

func (e *Engine) setStateLocked(state types.PlayState) {
	if e.state == state {
		return
	}
	e.state = state
	if e.onPlayStateChange != nil {
		e.onPlayStateChange(e.snapshotLocked())
	}
}

func samePaths(a, b []types.AudioTrack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path {
			return false
		}
	}
	return true
}
