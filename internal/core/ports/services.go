package ports

import (
	"context"
	"iter"

	"github.com/lorrc/support-desk/internal/core/domain"
)

// DeskService defines the core operations of the support desk: intake on
// both lanes, reprioritization, the assignment pass, resolution and queries.
//
// Implementations are safe for concurrent use. Returned tickets are copies.
type DeskService interface {
	AddRegular(ctx context.Context, description string) (*domain.Ticket, error)
	AddPriority(ctx context.Context, description string, priority int) (*domain.Ticket, error)
	Reprioritize(ctx context.Context, ticketID int64, newPriority int) (*domain.Ticket, error)
	Dispatch(ctx context.Context) ([]domain.Assignment, error)
	Resolve(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	ListByStatus(ctx context.Context, status string) iter.Seq[*domain.Ticket]
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	Snapshot(ctx context.Context) (*domain.DeskSnapshot, error)
}

// EventBroadcaster defines the port for publishing real-time desk events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
