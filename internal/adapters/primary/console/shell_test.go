package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/support-desk/internal/core/domain"
	"github.com/lorrc/support-desk/internal/core/mocks"
	"github.com/lorrc/support-desk/internal/core/services"
)

func newTestDesk(t *testing.T) *services.DeskService {
	t.Helper()
	desk, err := services.NewDeskService(services.DeskConfig{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return desk
}

func run(t *testing.T, shell *Shell) {
	t.Helper()
	require.NoError(t, shell.Run(context.Background()))
}

func lines(in ...string) io.Reader {
	return strings.NewReader(strings.Join(in, "\n") + "\n")
}

func TestShell_DispatchScenario(t *testing.T) {
	desk := newTestDesk(t)
	var out bytes.Buffer

	run(t, NewShell(desk, lines(
		"2", "server down", "1",
		"1", "password reset",
		"2", "disk full", "1",
		"4",
		"6", "Resolved",
		"7",
	), &out))

	output := out.String()
	assert.Contains(t, output, "Priority Ticket Added:")
	assert.Contains(t, output, "Regular Ticket Added:")
	assert.Contains(t, output, "Assigned Ticket (Agent 1, priority lane):")
	assert.Contains(t, output, "Assigned Ticket (Agent 2, priority lane):")
	assert.Contains(t, output, "Assigned Ticket (Agent 1, regular lane):")
	assert.Contains(t, output, "Tickets with status: Resolved")
	assert.Contains(t, output, "Exiting Support System. Goodbye!")

	// Priority tickets come out first, ties broken by id.
	start := strings.Index(output, "Assigned Ticket")
	end := strings.Index(output, "Tickets with status")
	require.True(t, start >= 0 && end > start)
	pass := output[start:end]
	first := strings.Index(pass, "Ticket ID: 1 |")
	third := strings.Index(pass, "Ticket ID: 3 |")
	second := strings.Index(pass, "Ticket ID: 2 |")
	require.NotEqual(t, -1, first)
	assert.Less(t, first, third)
	assert.Less(t, third, second)
	assert.Equal(t, 3, strings.Count(pass, "Status: Resolved"))
}

func TestShell_ReportsErrorsAndContinues(t *testing.T) {
	desk := newTestDesk(t)
	var out bytes.Buffer

	run(t, NewShell(desk, lines(
		"1", "printer jam",
		"3", "1", "0",
		"3", "42", "0",
		"5", "1",
		"6", "Closed",
		"9",
		"abc",
		"3", "x",
		"7",
	), &out))

	output := out.String()
	assert.Contains(t, output, "Ticket not found in the priority queue!")
	assert.Contains(t, output, "Ticket ID not found!")
	assert.Contains(t, output, "Ticket not in progress!")
	assert.Contains(t, output, "Tickets with status: Closed\nNo tickets.")
	assert.Equal(t, 2, strings.Count(output, "Invalid choice! Please try again."))
	assert.Contains(t, output, "Please enter a whole number.")
	assert.Contains(t, output, "Exiting Support System. Goodbye!")
}

func TestShell_BlankDescriptionIsRejected(t *testing.T) {
	desk := newTestDesk(t)
	var out bytes.Buffer

	run(t, NewShell(desk, lines("1", "   ", "7"), &out))

	assert.NotContains(t, out.String(), "Regular Ticket Added:")
	snap, err := desk.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.TotalTickets)
}

func TestShell_ExitsCleanlyOnEOF(t *testing.T) {
	desk := newTestDesk(t)
	var out bytes.Buffer

	// Input ends in the middle of the add-priority prompts.
	run(t, NewShell(desk, strings.NewReader("2\nserver down\n"), &out))

	assert.Contains(t, out.String(), "Input closed. Goodbye!")
	snap, err := desk.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.TotalTickets)
}

func TestShell_NothingToAssign(t *testing.T) {
	desk := mocks.NewMockDeskService()
	desk.On("Dispatch", mock.Anything).Return([]domain.Assignment{}, nil)
	var out bytes.Buffer

	run(t, NewShell(desk, lines("4", "7"), &out))

	assert.Contains(t, out.String(), "No tickets waiting for an agent.")
	desk.AssertExpectations(t)
}

func TestShell_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewShell(newTestDesk(t), lines("7"), io.Discard).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestShell_CancelWhileWaitingForInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	shell := NewShell(newTestDesk(t), in, io.Discard)
	result := make(chan error, 1)
	go func() {
		result <- shell.Run(ctx)
	}()
	cancel()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not return after cancellation")
	}
}

func TestShell_DispatchCancelledIsReturned(t *testing.T) {
	desk := mocks.NewMockDeskService()
	desk.On("Dispatch", mock.Anything).Return(nil, context.Canceled)

	err := NewShell(desk, lines("4", "7"), io.Discard).Run(context.Background())

	assert.ErrorIs(t, err, context.Canceled)
}
