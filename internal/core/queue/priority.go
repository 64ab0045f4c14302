// Package queue implements the desk's two intake lanes: a FIFO queue for
// regular tickets and a ranked queue for priority tickets.
//
// Neither queue is safe for concurrent use.
package queue

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/lorrc/support-desk/internal/core/domain"
)

// Compare orders tickets by priority ascending, then id ascending, so equal
// priorities are served first-come-first-served.
func Compare(a, b *domain.Ticket) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// PriorityQueue is a binary heap with an id to position index, giving
// O(log n) insert, extract-min and removal of an arbitrary ticket.
//
// A queued ticket's Priority must not change while it is in the queue.
// Remove it, change the priority, then Insert it again.
type PriorityQueue struct {
	h ticketHeap
}

// NewPriorityQueue returns an empty priority queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{h: ticketHeap{index: make(map[int64]int)}}
}

// Insert adds a ticket. It returns false, leaving the queue unchanged, if a
// ticket with the same id is already queued.
func (q *PriorityQueue) Insert(ticket *domain.Ticket) bool {
	if _, ok := q.h.index[ticket.ID]; ok {
		return false
	}
	heap.Push(&q.h, ticket)
	return true
}

// Remove takes the ticket with ticket's id out of the queue wherever it is
// ranked. It returns false if no such ticket is queued.
func (q *PriorityQueue) Remove(ticket *domain.Ticket) bool {
	i, ok := q.h.index[ticket.ID]
	if !ok {
		return false
	}
	heap.Remove(&q.h, i)
	return true
}

// ExtractMin removes and returns the highest-precedence ticket.
func (q *PriorityQueue) ExtractMin() (*domain.Ticket, bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&q.h).(*domain.Ticket), true
}

// Contains reports whether a ticket with the given id is queued.
func (q *PriorityQueue) Contains(id int64) bool {
	_, ok := q.h.index[id]
	return ok
}

// Len returns the number of queued tickets.
func (q *PriorityQueue) Len() int {
	return q.h.Len()
}

// Snapshot returns the queued tickets in extraction order.
func (q *PriorityQueue) Snapshot() []*domain.Ticket {
	return slices.SortedFunc(slices.Values(q.h.items), Compare)
}

// ticketHeap implements heap.Interface and keeps index in step with items.
type ticketHeap struct {
	items []*domain.Ticket
	index map[int64]int
}

func (h ticketHeap) Len() int { return len(h.items) }

func (h ticketHeap) Less(i, j int) bool {
	return Compare(h.items[i], h.items[j]) < 0
}

func (h ticketHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].ID] = i
	h.index[h.items[j].ID] = j
}

func (h *ticketHeap) Push(x any) {
	ticket := x.(*domain.Ticket)
	h.index[ticket.ID] = len(h.items)
	h.items = append(h.items, ticket)
}

func (h *ticketHeap) Pop() any {
	n := len(h.items)
	ticket := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	delete(h.index, ticket.ID)
	return ticket
}
