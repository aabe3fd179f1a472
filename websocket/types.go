package websocket

import (
	"time"

	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// Message types pushed to connected transport UIs.
const (
	MessageTrackChange = "track-change"
	MessageStateChange = "state-change"
	MessageCommand     = "command"
)

// StateMessage is one websocket frame: either a playback state push for
// rendering transport controls, or a channel command for the UI-side audio
// element.
type StateMessage struct {
	Type      string                   `json:"type"`
	Snapshot  *types.PlaybackSnapshot  `json:"snapshot,omitempty"`
	Command   *services.ChannelCommand `json:"command,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}
