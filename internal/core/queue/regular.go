package queue

import (
	"slices"

	"github.com/lorrc/support-desk/internal/core/domain"
)

// RegularQueue is a first-come-first-served queue. It never reorders.
type RegularQueue struct {
	items []*domain.Ticket
}

// NewRegularQueue returns an empty regular queue.
func NewRegularQueue() *RegularQueue {
	return &RegularQueue{}
}

// Enqueue appends a ticket at the back.
func (q *RegularQueue) Enqueue(ticket *domain.Ticket) {
	q.items = append(q.items, ticket)
}

// Dequeue removes and returns the ticket at the front.
func (q *RegularQueue) Dequeue() (*domain.Ticket, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	ticket := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return ticket, true
}

// Len returns the number of queued tickets.
func (q *RegularQueue) Len() int {
	return len(q.items)
}

// Snapshot returns the queued tickets front to back.
func (q *RegularQueue) Snapshot() []*domain.Ticket {
	return slices.Clone(q.items)
}
