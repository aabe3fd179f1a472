package types

// PlaybackMode says which playlist family currently owns the audio channel.
type PlaybackMode string

const (
	ModeAmbient PlaybackMode = "ambient"
	ModeEvent   PlaybackMode = "event"
)

// PlayState is the engine's position in its lifecycle for the active track.
type PlayState string

const (
	StateIdle      PlayState = "idle"
	StateLoading   PlayState = "loading"
	StatePlaying   PlayState = "playing"
	StatePaused    PlayState = "paused"
	StateFadingOut PlayState = "fading-out"
	StateFadingIn  PlayState = "fading-in"
)

// PlaybackSnapshot is the synchronous view the transport UI polls to render
// its controls. Position is seconds into the current track.
type PlaybackSnapshot struct {
	CurrentTrackName string       `json:"currentTrackName"`
	CurrentTrackPath string       `json:"currentTrackPath"`
	Mode             PlaybackMode `json:"mode"`
	State            PlayState    `json:"state"`
	IsPlaying        bool         `json:"isPlaying"`
	ActivePlaylistID string       `json:"activePlaylistId"`
	ActivePlaylist   string       `json:"activePlaylist"`
	TrackIndex       int          `json:"trackIndex"`
	TrackCount       int          `json:"trackCount"`
	Volume           float64      `json:"volume"`
	Position         float64      `json:"position"`
}
