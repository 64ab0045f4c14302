package http

import (
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/support-desk/internal/core/domain"
	apperrors "github.com/lorrc/support-desk/internal/core/errors"
	"github.com/lorrc/support-desk/internal/core/mocks"
)

type ticketEnvelope struct {
	Data domain.TicketSnapshot `json:"data"`
}

type ticketListEnvelope struct {
	Data  []domain.TicketSnapshot `json:"data"`
	Count int                     `json:"count"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDeskRouter(desk *mocks.MockDeskService) *chi.Mux {
	logger := discardLogger()
	errorHandler := NewErrorHandler(logger)

	tickets := NewTicketHandler(desk, errorHandler, logger, 20)
	deskHandler := NewDeskHandler(desk, errorHandler, logger)

	r := chi.NewRouter()
	r.Route("/tickets", tickets.RegisterRoutes)
	deskHandler.RegisterRoutes(r, nil)
	return r
}

func serve(router stdhttp.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestCreateTicket_Priority(t *testing.T) {
	desk := mocks.NewMockDeskService()
	desk.On("AddPriority", mock.Anything, "Server down", 1).
		Return(domain.NewPriorityTicket(1, "Server down", 1), nil)

	recorder := serve(newDeskRouter(desk), stdhttp.MethodPost, "/tickets", `{"description":"Server down","priority":1}`)

	require.Equal(t, stdhttp.StatusCreated, recorder.Code)
	var response ticketEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(1), response.Data.ID)
	assert.Equal(t, "priority", response.Data.Lane)
	require.NotNil(t, response.Data.Priority)
	assert.Equal(t, 1, *response.Data.Priority)
	assert.Equal(t, "Open", response.Data.Status)
	assert.Nil(t, response.Data.AssignedAgent)
	desk.AssertExpectations(t)
}

func TestCreateTicket_Regular(t *testing.T) {
	desk := mocks.NewMockDeskService()
	desk.On("AddRegular", mock.Anything, "Printer jam").
		Return(domain.NewRegularTicket(2, "Printer jam"), nil)

	recorder := serve(newDeskRouter(desk), stdhttp.MethodPost, "/tickets", `{"description":"Printer jam"}`)

	require.Equal(t, stdhttp.StatusCreated, recorder.Code)
	var response ticketEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "regular", response.Data.Lane)
	assert.Nil(t, response.Data.Priority)
	desk.AssertNotCalled(t, "AddPriority", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTicket_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"unknown field", `{"description":"x","prio":1}`, stdhttp.StatusBadRequest},
		{"malformed json", `{"description":`, stdhttp.StatusBadRequest},
		{"empty body", "", stdhttp.StatusBadRequest},
		{"blank description", `{"description":"   "}`, stdhttp.StatusUnprocessableEntity},
		{"description too long", `{"description":"` + strings.Repeat("a", 21) + `"}`, stdhttp.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desk := mocks.NewMockDeskService()

			recorder := serve(newDeskRouter(desk), stdhttp.MethodPost, "/tickets", tt.body)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			desk.AssertNotCalled(t, "AddRegular", mock.Anything, mock.Anything)
		})
	}
}

func TestListTickets(t *testing.T) {
	t.Run("returns the matching tickets", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("ListByStatus", mock.Anything, "Open").Return([]*domain.Ticket{
			domain.NewRegularTicket(1, "a"),
			domain.NewPriorityTicket(2, "b", 3),
		})

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets?status=Open", "")

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		var response ticketListEnvelope
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, 2, response.Count)
		assert.Equal(t, int64(1), response.Data[0].ID)
		assert.Equal(t, int64(2), response.Data[1].ID)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("ListByStatus", mock.Anything, "Resolved").Return([]*domain.Ticket{})

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets?status=Resolved", "")

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"data":[],"count":0}`, recorder.Body.String())
	})

	t.Run("status is required", func(t *testing.T) {
		desk := mocks.NewMockDeskService()

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets", "")

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		desk := mocks.NewMockDeskService()

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets?status=Closed", "")

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, recorder).Code)
		desk.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything)
	})

	t.Run("status text is matched ignoring case", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("ListByStatus", mock.Anything, "in progress").Return([]*domain.Ticket{})

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets?status=in%20progress", "")

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		desk.AssertExpectations(t)
	})
}

func TestGetTicket(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("GetTicket", mock.Anything, int64(7)).Return(domain.NewRegularTicket(7, "VPN"), nil)

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets/7", "")

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		var response ticketEnvelope
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "VPN", response.Data.Description)
	})

	t.Run("missing", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("GetTicket", mock.Anything, int64(99)).
			Return(nil, apperrors.TicketError(apperrors.ErrTicketNotFound, 99))

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets/99", "")

		require.Equal(t, stdhttp.StatusNotFound, recorder.Code)
		assert.Equal(t, "TICKET_NOT_FOUND", decodeError(t, recorder).Code)
	})

	t.Run("bad id", func(t *testing.T) {
		desk := mocks.NewMockDeskService()

		recorder := serve(newDeskRouter(desk), stdhttp.MethodGet, "/tickets/abc", "")

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
		desk.AssertNotCalled(t, "GetTicket", mock.Anything, mock.Anything)
	})
}

func TestReprioritize(t *testing.T) {
	t.Run("updates the priority", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("Reprioritize", mock.Anything, int64(3), 0).
			Return(domain.NewPriorityTicket(3, "Outage", 0), nil)

		recorder := serve(newDeskRouter(desk), stdhttp.MethodPatch, "/tickets/3/priority", `{"priority":0}`)

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		var response ticketEnvelope
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		require.NotNil(t, response.Data.Priority)
		assert.Equal(t, 0, *response.Data.Priority)
	})

	t.Run("priority is required", func(t *testing.T) {
		desk := mocks.NewMockDeskService()

		recorder := serve(newDeskRouter(desk), stdhttp.MethodPatch, "/tickets/3/priority", `{}`)

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
	})

	t.Run("not queued in the priority lane", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("Reprioritize", mock.Anything, int64(4), 2).
			Return(nil, apperrors.TicketError(apperrors.ErrNotInPriorityQueue, 4))

		recorder := serve(newDeskRouter(desk), stdhttp.MethodPatch, "/tickets/4/priority", `{"priority":2}`)

		require.Equal(t, stdhttp.StatusConflict, recorder.Code)
		assert.Equal(t, "NOT_IN_PRIORITY_QUEUE", decodeError(t, recorder).Code)
	})
}

func TestResolveTicket(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		ticket := domain.NewRegularTicket(5, "Mouse")
		require.NoError(t, ticket.Assign("Agent 1"))
		ticket.Resolve()

		desk := mocks.NewMockDeskService()
		desk.On("Resolve", mock.Anything, int64(5)).Return(ticket, nil)

		recorder := serve(newDeskRouter(desk), stdhttp.MethodPost, "/tickets/5/resolve", "")

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		var response ticketEnvelope
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "Resolved", response.Data.Status)
		require.NotNil(t, response.Data.AssignedAgent)
		assert.Equal(t, "Agent 1", *response.Data.AssignedAgent)
		assert.NotNil(t, response.Data.ResolvedAt)
	})

	t.Run("invalid state", func(t *testing.T) {
		desk := mocks.NewMockDeskService()
		desk.On("Resolve", mock.Anything, int64(6)).
			Return(nil, apperrors.TicketError(apperrors.ErrInvalidState, 6))

		recorder := serve(newDeskRouter(desk), stdhttp.MethodPost, "/tickets/6/resolve", "")

		require.Equal(t, stdhttp.StatusConflict, recorder.Code)
		assert.Equal(t, "INVALID_STATE", decodeError(t, recorder).Code)
	})
}
