package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// ChatTurnCompleted is emitted after a turn has been answered and its cited
// documents resolved.
type ChatTurnCompleted struct {
	SessionId     string
	Keyword       string
	UserId        string
	DocumentCount int
	At            time.Time
}

func (e ChatTurnCompleted) EventType() string {
	return "CHAT_TURN_COMPLETED"
}

func (e ChatTurnCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":     e.SessionId,
		"keyword":        e.Keyword,
		"user_id":        e.UserId,
		"document_count": e.DocumentCount,
	}
}

func (e ChatTurnCompleted) Timestamp() time.Time {
	return e.At
}
