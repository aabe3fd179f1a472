package websocket

import (
	"sync"
	"time"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// Hub interface defines the methods for managing playback websocket clients.
// Every connected client receives every state push and channel command;
// there is a single play session, not per-topic subscriptions.
type Hub interface {
	Run()
	BroadcastTrackChange(snapshot types.PlaybackSnapshot)
	BroadcastStateChange(snapshot types.PlaybackSnapshot)
	SendCommand(cmd services.ChannelCommand)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	clients map[*Client]bool

	// Broadcast channel for sending messages to all clients
	broadcast chan StateMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new websocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan StateMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.L().Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logger.L().Debug("websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastTrackChange notifies all clients that the audible track changed.
func (h *hub) BroadcastTrackChange(snapshot types.PlaybackSnapshot) {
	h.send(StateMessage{
		Type:      MessageTrackChange,
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
}

// BroadcastStateChange notifies all clients of a play state transition.
func (h *hub) BroadcastStateChange(snapshot types.PlaybackSnapshot) {
	h.send(StateMessage{
		Type:      MessageStateChange,
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
}

// SendCommand relays an audio channel command to the UI-side audio element.
func (h *hub) SendCommand(cmd services.ChannelCommand) {
	h.send(StateMessage{
		Type:      MessageCommand,
		Command:   &cmd,
		Timestamp: time.Now(),
	})
}

func (h *hub) send(message StateMessage) {
	select {
	case h.broadcast <- message:
	default:
		logger.L().Warn("websocket broadcast channel full, dropping message")
	}
}

// RegisterClient registers a client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient removes a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
