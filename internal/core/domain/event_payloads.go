package domain

import (
	"time"
)

// TicketSnapshot matches the API response shape for tickets. Priority is
// null for regular-lane tickets and assignedAgent is null until dispatch.
type TicketSnapshot struct {
	ID            int64   `json:"id"`
	Description   string  `json:"description"`
	Lane          string  `json:"lane"`
	Priority      *int    `json:"priority"`
	Status        string  `json:"status"`
	AssignedAgent *string `json:"assignedAgent"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     *string `json:"updatedAt"`
	ResolvedAt    *string `json:"resolvedAt"`
}

// AssignmentSnapshot matches the API response shape for one dispatch assignment.
type AssignmentSnapshot struct {
	Sequence int            `json:"sequence"`
	AgentID  string         `json:"agentId"`
	Lane     string         `json:"lane"`
	Ticket   TicketSnapshot `json:"ticket"`
}

// TicketReprioritizedPayload carries the rank change of a priority ticket.
type TicketReprioritizedPayload struct {
	Ticket      TicketSnapshot `json:"ticket"`
	OldPriority int            `json:"oldPriority"`
	NewPriority int            `json:"newPriority"`
}

// DispatchCompletedPayload summarizes one assignment pass.
type DispatchCompletedPayload struct {
	Assigned         int      `json:"assigned"`
	PriorityAssigned int      `json:"priorityAssigned"`
	RegularAssigned  int      `json:"regularAssigned"`
	Agents           []string `json:"agents"`
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	var priority *int
	if ticket.Lane == LanePriority {
		value := ticket.Priority
		priority = &value
	}

	var assignedAgent *string
	if ticket.IsAssigned() {
		value := ticket.AssignedAgent
		assignedAgent = &value
	}

	return TicketSnapshot{
		ID:            ticket.ID,
		Description:   ticket.Description,
		Lane:          string(ticket.Lane),
		Priority:      priority,
		Status:        string(ticket.Status),
		AssignedAgent: assignedAgent,
		CreatedAt:     ticket.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     formatTime(ticket.UpdatedAt),
		ResolvedAt:    formatTime(ticket.ResolvedAt),
	}
}

// NewTicketSnapshots builds snapshots for a list of tickets.
func NewTicketSnapshots(tickets []*Ticket) []TicketSnapshot {
	snapshots := make([]TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		snapshots = append(snapshots, NewTicketSnapshot(ticket))
	}
	return snapshots
}

// NewAssignmentSnapshot builds an assignment snapshot from a dispatch result.
func NewAssignmentSnapshot(a Assignment) AssignmentSnapshot {
	return AssignmentSnapshot{
		Sequence: a.Sequence,
		AgentID:  a.AgentID,
		Lane:     string(a.Lane),
		Ticket:   NewTicketSnapshot(a.Ticket),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := t.UTC().Format(time.RFC3339)
	return &value
}
