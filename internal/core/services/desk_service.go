package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lorrc/support-desk/internal/core/dispatch"
	"github.com/lorrc/support-desk/internal/core/domain"
	apperrors "github.com/lorrc/support-desk/internal/core/errors"
	"github.com/lorrc/support-desk/internal/core/ports"
	"github.com/lorrc/support-desk/internal/core/queue"
	"github.com/lorrc/support-desk/internal/core/registry"
	"github.com/lorrc/support-desk/internal/infrastructure/logging"
)

// DeskConfig holds the tunables of a desk.
type DeskConfig struct {
	Agents               []string
	MaxDescriptionLength int
}

// DeskService implements ports.DeskService. A single mutex guards the
// registry, both queues and the agent pool; it is held for the whole of
// every operation, including a full dispatch pass. Events are published
// after the lock is released.
type DeskService struct {
	mu         sync.Mutex
	registry   *registry.Registry
	priority   *queue.PriorityQueue
	regular    *queue.RegularQueue
	dispatcher *dispatch.Dispatcher

	broadcaster          ports.EventBroadcaster
	logger               *slog.Logger
	maxDescriptionLength int
}

var _ ports.DeskService = (*DeskService)(nil)

// NewDeskService creates an empty desk staffed by cfg.Agents, or by
// dispatch.DefaultAgents when none are given. broadcaster may be nil.
func NewDeskService(cfg DeskConfig, broadcaster ports.EventBroadcaster, logger *slog.Logger) (*DeskService, error) {
	agents := cfg.Agents
	if len(agents) == 0 {
		agents = dispatch.DefaultAgents
	}
	pool, err := dispatch.NewAgentPool(agents...)
	if err != nil {
		return nil, fmt.Errorf("build agent pool: %w", err)
	}

	maxLen := cfg.MaxDescriptionLength
	if maxLen <= 0 {
		maxLen = domain.MaxDescriptionLength
	}
	if logger == nil {
		logger = slog.Default()
	}

	priority := queue.NewPriorityQueue()
	regular := queue.NewRegularQueue()

	return &DeskService{
		registry:             registry.New(),
		priority:             priority,
		regular:              regular,
		dispatcher:           dispatch.NewDispatcher(pool, priority, regular),
		broadcaster:          broadcaster,
		logger:               logger.With("service", "desk"),
		maxDescriptionLength: maxLen,
	}, nil
}

// AddRegular registers a ticket on the regular lane.
func (s *DeskService) AddRegular(ctx context.Context, description string) (*domain.Ticket, error) {
	description, err := s.validateDescription(description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ticket := s.registry.CreateRegular(description)
	s.regular.Enqueue(ticket)
	out := ticket.Clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ticket created", "ticket_id", out.ID, "lane", out.Lane)
	s.publish(ctx, domain.NewEvent(domain.EventTicketCreated, out.ID, logging.GetOperator(ctx), domain.NewTicketSnapshot(out)))
	return out, nil
}

// AddPriority registers a ticket on the priority lane. Lower priority
// values are served first; any integer is accepted.
func (s *DeskService) AddPriority(ctx context.Context, description string, priority int) (*domain.Ticket, error) {
	description, err := s.validateDescription(description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ticket := s.registry.CreatePriority(description, priority)
	s.priority.Insert(ticket)
	out := ticket.Clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ticket created", "ticket_id", out.ID, "lane", out.Lane, "priority", out.Priority)
	s.publish(ctx, domain.NewEvent(domain.EventTicketCreated, out.ID, logging.GetOperator(ctx), domain.NewTicketSnapshot(out)))
	return out, nil
}

// Reprioritize changes the rank of a ticket waiting in the priority queue.
// The ticket is taken out of the heap before its priority changes and put
// back afterwards, so heap order always reflects the stored priority.
func (s *DeskService) Reprioritize(ctx context.Context, ticketID int64, newPriority int) (*domain.Ticket, error) {
	s.mu.Lock()
	ticket, err := s.registry.Get(ticketID)
	if err != nil {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "reprioritize rejected", "ticket_id", ticketID, "error", err)
		return nil, err
	}
	if !s.priority.Contains(ticketID) {
		s.mu.Unlock()
		err := apperrors.TicketError(apperrors.ErrNotInPriorityQueue, ticketID)
		s.logger.WarnContext(ctx, "reprioritize rejected", "ticket_id", ticketID, "error", err)
		return nil, err
	}
	s.priority.Remove(ticket)
	oldPriority := ticket.Priority
	ticket.SetPriority(newPriority)
	s.priority.Insert(ticket)
	out := ticket.Clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ticket reprioritized",
		"ticket_id", ticketID,
		"old_priority", oldPriority,
		"new_priority", newPriority,
	)
	s.publish(ctx, domain.NewEvent(domain.EventTicketReprioritized, ticketID, logging.GetOperator(ctx),
		domain.TicketReprioritizedPayload{
			Ticket:      domain.NewTicketSnapshot(out),
			OldPriority: oldPriority,
			NewPriority: newPriority,
		}))
	return out, nil
}

// Dispatch runs one assignment pass. The returned assignments carry copies
// of the tickets as they stood at the end of the pass.
func (s *DeskService) Dispatch(ctx context.Context) ([]domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	assignments := s.dispatcher.Run()
	agents := s.dispatcher.Pool().Agents()
	for i := range assignments {
		assignments[i].Ticket = assignments[i].Ticket.Clone()
	}
	s.mu.Unlock()

	actor := logging.GetOperator(ctx)
	summary := domain.DispatchCompletedPayload{
		Assigned: len(assignments),
		Agents:   agents,
	}

	events := make([]domain.Event, 0, len(assignments)+1)
	for _, a := range assignments {
		if a.Lane == domain.LanePriority {
			summary.PriorityAssigned++
		} else {
			summary.RegularAssigned++
		}
		s.logger.DebugContext(ctx, "ticket assigned",
			"ticket_id", a.Ticket.ID,
			"agent", a.AgentID,
			"lane", a.Lane,
			"sequence", a.Sequence,
		)
		events = append(events, domain.NewEvent(domain.EventTicketAssigned, a.Ticket.ID, actor, domain.NewAssignmentSnapshot(a)))
	}
	events = append(events, domain.NewEvent(domain.EventDispatchCompleted, 0, actor, summary))

	s.logger.InfoContext(ctx, "dispatch pass completed",
		"assigned", summary.Assigned,
		"priority_assigned", summary.PriorityAssigned,
		"regular_assigned", summary.RegularAssigned,
	)
	s.publish(ctx, events...)
	return assignments, nil
}

// Resolve marks an in-progress ticket resolved.
func (s *DeskService) Resolve(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	s.mu.Lock()
	ticket, err := s.registry.Get(ticketID)
	if err != nil {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "resolve rejected", "ticket_id", ticketID, "error", err)
		return nil, err
	}
	if ticket.Status != domain.StatusInProgress {
		status := ticket.Status
		s.mu.Unlock()
		err := apperrors.TicketError(apperrors.ErrInvalidState, ticketID)
		s.logger.WarnContext(ctx, "resolve rejected", "ticket_id", ticketID, "status", status, "error", err)
		return nil, err
	}
	ticket.Resolve()
	out := ticket.Clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ticket resolved", "ticket_id", ticketID, "agent", out.AssignedAgent)
	s.publish(ctx, domain.NewEvent(domain.EventTicketResolved, ticketID, logging.GetOperator(ctx), domain.NewTicketSnapshot(out)))
	return out, nil
}

// ListByStatus returns the tickets whose status matches the given text,
// ignoring case. Text naming no status yields nothing. The sequence takes
// its view of the registry when iteration starts.
func (s *DeskService) ListByStatus(ctx context.Context, status string) iter.Seq[*domain.Ticket] {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		s.logger.DebugContext(ctx, "status matches no tickets", "status", status)
		return func(func(*domain.Ticket) bool) {}
	}

	return func(yield func(*domain.Ticket) bool) {
		s.mu.Lock()
		var matched []*domain.Ticket
		for ticket := range s.registry.ValuesByStatus(parsed) {
			matched = append(matched, ticket.Clone())
		}
		s.mu.Unlock()

		for _, ticket := range matched {
			if !yield(ticket) {
				return
			}
		}
	}
}

// GetTicket returns a copy of a single ticket.
func (s *DeskService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.registry.Get(ticketID)
	if err != nil {
		return nil, err
	}
	return ticket.Clone(), nil
}

// Snapshot returns the queue contents, the agent roster and counts by status.
func (s *DeskService) Snapshot(ctx context.Context) (*domain.DeskSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &domain.DeskSnapshot{
		PriorityQueue: cloneAll(s.priority.Snapshot()),
		RegularQueue:  cloneAll(s.regular.Snapshot()),
		Agents:        s.dispatcher.Pool().Agents(),
		StatusCounts:  s.registry.CountByStatus(),
		TotalTickets:  s.registry.Len(),
	}, nil
}

func (s *DeskService) validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apperrors.ErrDescriptionRequired
	}
	if utf8.RuneCountInString(description) > s.maxDescriptionLength {
		return "", fmt.Errorf("%w: limit is %d characters", apperrors.ErrDescriptionTooLong, s.maxDescriptionLength)
	}
	return description, nil
}

func (s *DeskService) publish(ctx context.Context, events ...domain.Event) {
	if s.broadcaster == nil {
		return
	}
	for _, event := range events {
		if err := s.broadcaster.Broadcast(event); err != nil {
			s.logger.WarnContext(ctx, "failed to broadcast event", "event_type", event.Type, "error", err)
		}
	}
}

func cloneAll(tickets []*domain.Ticket) []*domain.Ticket {
	out := make([]*domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.Clone())
	}
	return out
}
