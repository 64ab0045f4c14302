package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/lorrc/support-desk/internal/core/dispatch"
	"github.com/lorrc/support-desk/internal/core/domain"
	apperrors "github.com/lorrc/support-desk/internal/core/errors"
	"github.com/lorrc/support-desk/internal/core/mocks"
	"github.com/lorrc/support-desk/internal/core/services"
	"github.com/lorrc/support-desk/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDesk(t *testing.T, agents ...string) *services.DeskService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := services.NewDeskService(services.DeskConfig{Agents: agents}, nil, logger)
	require.NoError(t, err)
	return svc
}

func collect(t *testing.T, svc *services.DeskService, status string) []*domain.Ticket {
	t.Helper()
	return slices.Collect(svc.ListByStatus(context.Background(), status))
}

func ticketIDs(tickets []*domain.Ticket) []int64 {
	ids := make([]int64, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	return ids
}

func eventOfType(eventType domain.EventType) interface{} {
	return mock.MatchedBy(func(e domain.Event) bool { return e.Type == eventType })
}

func TestNewDeskService(t *testing.T) {
	t.Run("defaults to two agents", func(t *testing.T) {
		svc := newTestDesk(t)

		snap, err := svc.Snapshot(context.Background())

		require.NoError(t, err)
		assert.Equal(t, dispatch.DefaultAgents, snap.Agents)
	})

	t.Run("rejects duplicate agents", func(t *testing.T) {
		_, err := services.NewDeskService(services.DeskConfig{Agents: []string{"a", "a"}}, nil, nil)
		assert.ErrorIs(t, err, dispatch.ErrDuplicateAgent)
	})
}

func TestDeskService_DispatchScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestDesk(t)

	serverDown, err := svc.AddPriority(ctx, "server down", 1)
	require.NoError(t, err)
	passwordReset, err := svc.AddRegular(ctx, "password reset")
	require.NoError(t, err)
	diskFull, err := svc.AddPriority(ctx, "disk full", 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), serverDown.ID)
	assert.Equal(t, int64(2), passwordReset.ID)
	assert.Equal(t, int64(3), diskFull.ID)
	assert.Equal(t, domain.SentinelPriority, passwordReset.Priority)

	assignments, err := svc.Dispatch(ctx)
	require.NoError(t, err)

	require.Len(t, assignments, 3)
	assert.Equal(t, int64(1), assignments[0].Ticket.ID)
	assert.Equal(t, "Agent 1", assignments[0].AgentID)
	assert.Equal(t, int64(3), assignments[1].Ticket.ID)
	assert.Equal(t, "Agent 2", assignments[1].AgentID)
	assert.Equal(t, int64(2), assignments[2].Ticket.ID)
	assert.Equal(t, "Agent 1", assignments[2].AgentID)

	assert.Equal(t, []int64{1, 2, 3}, ticketIDs(collect(t, svc, "Resolved")))
	assert.Empty(t, collect(t, svc, "Open"))
	assert.Empty(t, collect(t, svc, "In Progress"))

	_, err = svc.Resolve(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDeskService_Reprioritize(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the ticket ahead in the queue", func(t *testing.T) {
		svc := newTestDesk(t)
		_, err := svc.AddPriority(ctx, "A", 5)
		require.NoError(t, err)
		_, err = svc.AddPriority(ctx, "B", 3)
		require.NoError(t, err)

		updated, err := svc.Reprioritize(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Priority)

		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ticketIDs(snap.PriorityQueue))

		assignments, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		require.Len(t, assignments, 2)
		assert.Equal(t, int64(1), assignments[0].Ticket.ID)
		assert.Equal(t, int64(2), assignments[1].Ticket.ID)
	})

	t.Run("regular ticket is not in the priority queue", func(t *testing.T) {
		svc := newTestDesk(t)
		regular, err := svc.AddRegular(ctx, "password reset")
		require.NoError(t, err)

		_, err = svc.Reprioritize(ctx, regular.ID, 0)

		assert.ErrorIs(t, err, apperrors.ErrNotInPriorityQueue)
		got, err := svc.GetTicket(ctx, regular.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SentinelPriority, got.Priority)
	})

	t.Run("dispatched ticket is no longer queued", func(t *testing.T) {
		svc := newTestDesk(t)
		_, err := svc.AddPriority(ctx, "server down", 1)
		require.NoError(t, err)
		_, err = svc.Dispatch(ctx)
		require.NoError(t, err)

		_, err = svc.Reprioritize(ctx, 1, 0)

		assert.ErrorIs(t, err, apperrors.ErrNotInPriorityQueue)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := newTestDesk(t)

		_, err := svc.Reprioritize(ctx, 99, 1)

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestDeskService_Resolve(t *testing.T) {
	ctx := context.Background()
	svc := newTestDesk(t)
	open, err := svc.AddRegular(ctx, "printer jam")
	require.NoError(t, err)

	t.Run("open ticket is rejected and unchanged", func(t *testing.T) {
		_, err := svc.Resolve(ctx, open.ID)

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		got, err := svc.GetTicket(ctx, open.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Resolve(ctx, 42)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestDeskService_DescriptionValidation(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := services.NewDeskService(services.DeskConfig{MaxDescriptionLength: 10}, nil, logger)
	require.NoError(t, err)

	t.Run("blank", func(t *testing.T) {
		_, err := svc.AddRegular(ctx, "   ")
		assert.ErrorIs(t, err, apperrors.ErrDescriptionRequired)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := svc.AddPriority(ctx, strings.Repeat("x", 11), 1)
		assert.ErrorIs(t, err, apperrors.ErrDescriptionTooLong)
	})

	t.Run("trimmed", func(t *testing.T) {
		ticket, err := svc.AddRegular(ctx, "  vpn down ")
		require.NoError(t, err)
		assert.Equal(t, "vpn down", ticket.Description)
	})

	t.Run("rejected input allocates no id", func(t *testing.T) {
		ticket, err := svc.AddRegular(ctx, "next")
		require.NoError(t, err)
		assert.Equal(t, int64(2), ticket.ID)
	})
}

func TestDeskService_ListByStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestDesk(t)
	for _, d := range []string{"a", "b", "c"} {
		_, err := svc.AddRegular(ctx, d)
		require.NoError(t, err)
	}

	t.Run("case-insensitive status text", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2, 3}, ticketIDs(collect(t, svc, "OPEN")))
		assert.Equal(t, []int64{1, 2, 3}, ticketIDs(collect(t, svc, "oPeN")))
	})

	t.Run("text naming no status yields an empty sequence", func(t *testing.T) {
		for _, status := range []string{"Closed", "", "open ", "in_progress"} {
			seq := svc.ListByStatus(ctx, status)
			require.NotNil(t, seq, status)
			assert.Empty(t, slices.Collect(seq), status)
		}
	})

	t.Run("sequence reflects the registry when iterated", func(t *testing.T) {
		seq := svc.ListByStatus(ctx, "Open")

		_, err := svc.AddRegular(ctx, "d")
		require.NoError(t, err)

		assert.Len(t, slices.Collect(seq), 4)
	})
}

func TestDeskService_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTestDesk(t)
	created, err := svc.AddPriority(ctx, "server down", 4)
	require.NoError(t, err)

	created.Priority = -100
	created.Status = domain.StatusResolved

	got, err := svc.GetTicket(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Priority)
	assert.Equal(t, domain.StatusOpen, got.Status)
}

func TestDeskService_Snapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestDesk(t, "Ada", "Linus", "Grace")
	_, err := svc.AddRegular(ctx, "r1")
	require.NoError(t, err)
	_, err = svc.AddPriority(ctx, "p1", 2)
	require.NoError(t, err)
	_, err = svc.AddPriority(ctx, "p2", 1)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)

	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ticketIDs(snap.PriorityQueue))
	assert.Equal(t, []int64{1}, ticketIDs(snap.RegularQueue))
	assert.Equal(t, []string{"Ada", "Linus", "Grace"}, snap.Agents)
	assert.Equal(t, 3, snap.StatusCounts[domain.StatusOpen])
	assert.Equal(t, 3, snap.TotalTickets)
}

func TestDeskService_PublishesEvents(t *testing.T) {
	ctx := logging.WithOperator(context.Background(), "dana")
	broadcaster := mocks.NewMockEventBroadcaster()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := services.NewDeskService(services.DeskConfig{}, broadcaster, logger)
	require.NoError(t, err)

	broadcaster.On("Broadcast", eventOfType(domain.EventTicketCreated)).Return(nil).Twice()
	broadcaster.On("Broadcast", eventOfType(domain.EventTicketReprioritized)).Return(nil).Once()
	broadcaster.On("Broadcast", eventOfType(domain.EventTicketAssigned)).Return(nil).Twice()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
		summary, ok := e.Payload.(domain.DispatchCompletedPayload)
		return e.Type == domain.EventDispatchCompleted && ok &&
			summary.Assigned == 2 && summary.PriorityAssigned == 1 && summary.RegularAssigned == 1
	})).Return(nil).Once()

	_, err = svc.AddPriority(ctx, "server down", 3)
	require.NoError(t, err)
	_, err = svc.AddRegular(ctx, "password reset")
	require.NoError(t, err)
	_, err = svc.Reprioritize(ctx, 1, 0)
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx)
	require.NoError(t, err)

	broadcaster.AssertExpectations(t)
	for _, call := range broadcaster.Calls {
		event := call.Arguments.Get(0).(domain.Event)
		assert.Equal(t, "dana", event.Actor)
		assert.NotEmpty(t, event.ID)
	}
}

func TestDeskService_BroadcastFailureDoesNotFailOperation(t *testing.T) {
	broadcaster := mocks.NewMockEventBroadcaster()
	broadcaster.On("Broadcast", mock.Anything).Return(errors.New("hub closed"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := services.NewDeskService(services.DeskConfig{}, broadcaster, logger)
	require.NoError(t, err)

	ticket, err := svc.AddRegular(context.Background(), "still recorded")

	require.NoError(t, err)
	assert.Equal(t, int64(1), ticket.ID)
	broadcaster.AssertNumberOfCalls(t, "Broadcast", 1)
}

func TestDeskService_DispatchHonoursCancelledContext(t *testing.T) {
	svc := newTestDesk(t)
	_, err := svc.AddRegular(context.Background(), "waiting")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Dispatch(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, collect(t, svc, "Open"), 1)
}

func TestDeskService_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	svc := newTestDesk(t, "A", "B", "C")

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				if (w+i)%2 == 0 {
					_, _ = svc.AddPriority(ctx, "p", i%5)
				} else {
					_, _ = svc.AddRegular(ctx, "r")
				}
				if i%7 == 0 {
					_, _ = svc.Dispatch(ctx)
				}
			}
		}()
	}
	wg.Wait()

	_, err := svc.Dispatch(ctx)
	require.NoError(t, err)

	resolved := collect(t, svc, "Resolved")
	assert.Len(t, resolved, workers*perWorker)
	ids := ticketIDs(resolved)
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.PriorityQueue)
	assert.Empty(t, snap.RegularQueue)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, snap.Agents)
}
