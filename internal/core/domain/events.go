package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated       EventType = "TICKET_CREATED"
	EventTicketReprioritized EventType = "TICKET_REPRIORITIZED"
	EventTicketAssigned      EventType = "TICKET_ASSIGNED"
	EventTicketResolved      EventType = "TICKET_RESOLVED"
	EventDispatchCompleted   EventType = "DISPATCH_COMPLETED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	TicketID  int64       `json:"ticketId"` // Used for routing to specific ticket "rooms"; 0 for desk-wide events
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, ticketID int64, actor string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}
