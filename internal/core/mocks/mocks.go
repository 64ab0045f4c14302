package mocks

import (
	"context"
	"iter"

	"github.com/lorrc/support-desk/internal/core/domain"
	"github.com/lorrc/support-desk/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockDeskService is a mock implementation of ports.DeskService
type MockDeskService struct {
	mock.Mock
}

var _ ports.DeskService = (*MockDeskService)(nil)

func NewMockDeskService() *MockDeskService {
	return &MockDeskService{}
}

func (m *MockDeskService) AddRegular(ctx context.Context, description string) (*domain.Ticket, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockDeskService) AddPriority(ctx context.Context, description string, priority int) (*domain.Ticket, error) {
	args := m.Called(ctx, description, priority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockDeskService) Reprioritize(ctx context.Context, ticketID int64, newPriority int) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID, newPriority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockDeskService) Dispatch(ctx context.Context) ([]domain.Assignment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Assignment), args.Error(1)
}

func (m *MockDeskService) Resolve(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

// ListByStatus returns the configured tickets as a sequence. Configure it
// with a []*domain.Ticket rather than an iter.Seq.
func (m *MockDeskService) ListByStatus(ctx context.Context, status string) iter.Seq[*domain.Ticket] {
	args := m.Called(ctx, status)
	tickets, _ := args.Get(0).([]*domain.Ticket)
	return func(yield func(*domain.Ticket) bool) {
		for _, ticket := range tickets {
			if !yield(ticket) {
				return
			}
		}
	}
}

func (m *MockDeskService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockDeskService) Snapshot(ctx context.Context) (*domain.DeskSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeskSnapshot), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
