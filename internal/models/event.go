package models

import "time"

// EventType is the kind of realtime event pushed to session participants.
type EventType string

const (
	EventMessageSent           EventType = "message_sent"
	EventSessionStarted        EventType = "session_started"
	EventSessionEnded          EventType = "session_ended"
	EventSessionExtended       EventType = "session_extended"
	EventSessionExpired        EventType = "session_expired"
	EventExtensionRequested    EventType = "extension_requested"
	EventConnectionEstablished EventType = "connection_established"
	EventPartnerConnected      EventType = "partner_connected"
	EventPartnerDisconnected   EventType = "partner_disconnected"
	EventError                 EventType = "error"
	EventPing                  EventType = "ping"
	EventPong                  EventType = "pong"
)

// Event is the wire format for roulette WebSocket traffic, in both
// directions. Delivery is best-effort: a lost event never affects the
// underlying session state.
type Event struct {
	Type            EventType      `json:"type"`
	Data            map[string]any `json:"data,omitempty"`
	SessionID       string         `json:"session_id,omitempty"`
	SenderProfileID string         `json:"sender_profile_id,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`

	// ExcludeProfileID звужує роздачу: учасник з цим профілем подію не
	// отримує. Заповнюється реєстром при публікації у Pub/Sub.
	ExcludeProfileID string `json:"exclude_profile_id,omitempty"`
}

// NewEvent будує подію з поточним часом.
func NewEvent(t EventType, sessionID string, data map[string]any) Event {
	return Event{
		Type:      t,
		Data:      data,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}
