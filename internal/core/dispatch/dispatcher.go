package dispatch

import (
	"github.com/lorrc/support-desk/internal/core/domain"
	"github.com/lorrc/support-desk/internal/core/queue"
)

// Dispatcher runs assignment passes over the desk's two queues.
type Dispatcher struct {
	pool     *AgentPool
	priority *queue.PriorityQueue
	regular  *queue.RegularQueue
}

// NewDispatcher wires a dispatcher to the pool and queues it drains.
func NewDispatcher(pool *AgentPool, priority *queue.PriorityQueue, regular *queue.RegularQueue) *Dispatcher {
	return &Dispatcher{
		pool:     pool,
		priority: priority,
		regular:  regular,
	}
}

// Pool returns the agent pool the dispatcher draws from.
func (d *Dispatcher) Pool() *AgentPool {
	return d.pool
}

// Run performs one assignment pass and returns the assignments in the
// order they were made. Every priority ticket is assigned before any
// regular ticket. When the pass returns, the pool holds the same agents
// it held before.
func (d *Dispatcher) Run() []domain.Assignment {
	p := pass{available: d.pool.checkout()}
	defer func() {
		d.pool.restore(p.release())
	}()

	p.drain(domain.LanePriority, d.priority.Len, d.priority.ExtractMin)
	p.drain(domain.LaneRegular, d.regular.Len, d.regular.Dequeue)

	return p.assignments
}

// pass holds the agent lines for a single Run. available starts as the
// whole pool; busy collects agents that already served a ticket, in the
// order they finished.
type pass struct {
	available   []string
	busy        []string
	assignments []domain.Assignment
}

func (p *pass) hasAgent() bool {
	return len(p.available) > 0 || len(p.busy) > 0
}

func (p *pass) nextAgent() string {
	if len(p.available) > 0 {
		agent := p.available[0]
		p.available = p.available[1:]
		return agent
	}
	agent := p.busy[0]
	p.busy = p.busy[1:]
	return agent
}

func (p *pass) drain(lane domain.Lane, pending func() int, next func() (*domain.Ticket, bool)) {
	for p.hasAgent() && pending() > 0 {
		agent := p.nextAgent()
		ticket, ok := next()
		if !ok {
			p.busy = append(p.busy, agent)
			return
		}

		// Queued tickets are open, so Assign only fails if a resolved
		// ticket was queued by mistake. It is dropped from the queue.
		if err := ticket.Assign(agent); err == nil {
			ticket.Resolve()
			p.assignments = append(p.assignments, domain.Assignment{
				Ticket:   ticket,
				AgentID:  agent,
				Lane:     lane,
				Sequence: len(p.assignments) + 1,
			})
		}

		p.busy = append(p.busy, agent)
	}
}

func (p *pass) release() []string {
	agents := append(p.available, p.busy...)
	p.available, p.busy = nil, nil
	return agents
}
