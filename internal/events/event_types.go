package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by the ticket lifecycle.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries the new ticket and its creator so handlers
// need no read-back.
type TicketCreatedPayload struct {
	Ticket  *domain.Ticket     `json:"ticket"`
	Creator domain.UserSummary `json:"creator"`
}

// TicketStatusChangedPayload carries the transition and the optional triage
// comment forwarded from the update request.
type TicketStatusChangedPayload struct {
	Ticket    *domain.Ticket      `json:"ticket"`
	Creator   domain.UserSummary  `json:"creator"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}
