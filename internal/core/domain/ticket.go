package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/lorrc/support-desk/internal/core/errors"
)

// MaxDescriptionLength bounds descriptions accepted at the service boundary.
const MaxDescriptionLength = 2000

// SentinelPriority is carried by regular-lane tickets so they rank behind
// any explicitly prioritized ticket when compared.
const SentinelPriority = math.MaxInt

// UnassignedAgent is the display value for a ticket that has not been dispatched.
const UnassignedAgent = "Unassigned"

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "In Progress"
	StatusResolved   TicketStatus = "Resolved"
)

// IsValid checks if the status is a known value.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// rank orders statuses along the lifecycle; transitions never lower it.
func (s TicketStatus) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusInProgress:
		return 1
	case StatusResolved:
		return 2
	}
	return -1
}

// ParseStatus matches text against the display form of each status,
// ignoring case only.
func ParseStatus(text string) (TicketStatus, error) {
	for _, s := range []TicketStatus{StatusOpen, StatusInProgress, StatusResolved} {
		if strings.EqualFold(string(s), text) {
			return s, nil
		}
	}
	return "", apperrors.ErrInvalidStatus
}

// Lane identifies the intake path a ticket entered through.
type Lane string

const (
	LaneRegular  Lane = "regular"
	LanePriority Lane = "priority"
)

// Ticket is the core domain entity.
type Ticket struct {
	ID            int64        `json:"id"`
	Description   string       `json:"description"`
	Priority      int          `json:"priority"`
	Status        TicketStatus `json:"status"`
	AssignedAgent string       `json:"assignedAgent,omitempty"`
	Lane          Lane         `json:"lane"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     *time.Time   `json:"updatedAt,omitempty"`
	ResolvedAt    *time.Time   `json:"resolvedAt,omitempty"`
}

// NewRegularTicket creates an open regular-lane ticket carrying the
// sentinel priority.
func NewRegularTicket(id int64, description string) *Ticket {
	return newTicket(id, description, SentinelPriority, LaneRegular)
}

// NewPriorityTicket creates an open priority-lane ticket.
func NewPriorityTicket(id int64, description string, priority int) *Ticket {
	return newTicket(id, description, priority, LanePriority)
}

func newTicket(id int64, description string, priority int, lane Lane) *Ticket {
	return &Ticket{
		ID:          id,
		Description: description,
		Priority:    priority,
		Status:      StatusOpen,
		Lane:        lane,
		CreatedAt:   time.Now().UTC(),
	}
}

// SetPriority replaces the ticket's rank. Any value is accepted.
func (t *Ticket) SetPriority(priority int) {
	t.Priority = priority
	t.touch()
}

// Assign records the agent handling the ticket and moves it to In Progress.
// A resolved ticket cannot be assigned again.
func (t *Ticket) Assign(agentID string) error {
	if !t.CanAdvanceTo(StatusInProgress) {
		return apperrors.ErrInvalidState
	}
	t.AssignedAgent = agentID
	t.Status = StatusInProgress
	t.touch()
	return nil
}

// Resolve marks the ticket resolved whatever its current status.
func (t *Ticket) Resolve() {
	now := time.Now().UTC()
	t.Status = StatusResolved
	t.UpdatedAt = &now
	t.ResolvedAt = &now
}

// CanAdvanceTo reports whether moving to status keeps the lifecycle forward-only.
func (t *Ticket) CanAdvanceTo(status TicketStatus) bool {
	return status.IsValid() && status.rank() >= t.Status.rank()
}

// IsAssigned reports whether the ticket has been dispatched to an agent.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedAgent != ""
}

// AgentName returns the assigned agent or the "Unassigned" placeholder.
func (t *Ticket) AgentName() string {
	if t.AssignedAgent == "" {
		return UnassignedAgent
	}
	return t.AssignedAgent
}

// PriorityLabel renders the priority, naming the regular-lane sentinel.
func (t *Ticket) PriorityLabel() string {
	if t.Priority == SentinelPriority {
		return "regular"
	}
	return fmt.Sprintf("%d", t.Priority)
}

// Clone returns a copy that shares no mutable state with t.
func (t *Ticket) Clone() *Ticket {
	c := *t
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		c.UpdatedAt = &updated
	}
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		c.ResolvedAt = &resolved
	}
	return &c
}

func (t *Ticket) String() string {
	return fmt.Sprintf("Ticket ID: %d | Description: %s | Priority: %s | Status: %s | Assigned Agent: %s",
		t.ID, t.Description, t.PriorityLabel(), t.Status, t.AgentName())
}

func (t *Ticket) touch() {
	now := time.Now().UTC()
	t.UpdatedAt = &now
}
