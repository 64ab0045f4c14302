// Package registry holds the desk's ticket registry: the single source of
// truth for looking tickets up by id.
//
// The registry owns the id counter, so ids are unique and increase
// monotonically for the lifetime of one Registry value. Tickets are never
// removed; resolved tickets stay queryable.
//
// Registry is not safe for concurrent use. The desk service serializes
// access with its own mutex.
package registry

import (
	"iter"
	"maps"
	"slices"

	"github.com/lorrc/support-desk/internal/core/domain"
	apperrors "github.com/lorrc/support-desk/internal/core/errors"
)

// Registry maps ticket ids to tickets.
type Registry struct {
	tickets map[int64]*domain.Ticket
	lastID  int64
}

// New returns an empty registry whose first ticket gets id 1.
func New() *Registry {
	return &Registry{tickets: make(map[int64]*domain.Ticket)}
}

// CreateRegular allocates the next id and registers an open regular-lane ticket.
func (r *Registry) CreateRegular(description string) *domain.Ticket {
	r.lastID++
	return r.register(domain.NewRegularTicket(r.lastID, description))
}

// CreatePriority allocates the next id and registers an open priority-lane ticket.
func (r *Registry) CreatePriority(description string, priority int) *domain.Ticket {
	r.lastID++
	return r.register(domain.NewPriorityTicket(r.lastID, description, priority))
}

func (r *Registry) register(ticket *domain.Ticket) *domain.Ticket {
	r.tickets[ticket.ID] = ticket
	return ticket
}

// Get returns the ticket with the given id or ErrTicketNotFound.
func (r *Registry) Get(id int64) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.TicketError(apperrors.ErrTicketNotFound, id)
	}
	return ticket, nil
}

// Len returns the number of registered tickets.
func (r *Registry) Len() int {
	return len(r.tickets)
}

// ValuesByStatus lazily yields tickets whose status equals status, in id
// order. Filtering happens as the sequence is consumed.
func (r *Registry) ValuesByStatus(status domain.TicketStatus) iter.Seq[*domain.Ticket] {
	return func(yield func(*domain.Ticket) bool) {
		for _, id := range slices.Sorted(maps.Keys(r.tickets)) {
			ticket := r.tickets[id]
			if ticket.Status != status {
				continue
			}
			if !yield(ticket) {
				return
			}
		}
	}
}

// CountByStatus tallies tickets per lifecycle status.
func (r *Registry) CountByStatus() map[domain.TicketStatus]int {
	counts := map[domain.TicketStatus]int{
		domain.StatusOpen:       0,
		domain.StatusInProgress: 0,
		domain.StatusResolved:   0,
	}
	for _, ticket := range r.tickets {
		counts[ticket.Status]++
	}
	return counts
}
