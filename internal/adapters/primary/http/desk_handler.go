package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/support-desk/internal/core/domain"
	"github.com/lorrc/support-desk/internal/core/ports"
)

// DeskHandler serves the assignment pass and the desk overview
type DeskHandler struct {
	desk         ports.DeskService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDeskHandler creates a new desk handler
func NewDeskHandler(desk ports.DeskService, errorHandler *ErrorHandler, logger *slog.Logger) *DeskHandler {
	return &DeskHandler{
		desk:         desk,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "desk"),
	}
}

// DeskResponse is the JSON shape of GET /desk
type DeskResponse struct {
	PriorityQueue []domain.TicketSnapshot `json:"priorityQueue"`
	RegularQueue  []domain.TicketSnapshot `json:"regularQueue"`
	Agents        []string                `json:"agents"`
	StatusCounts  map[string]int          `json:"statusCounts"`
	TotalTickets  int                     `json:"totalTickets"`
}

// HandleDispatch handles POST /dispatch
func (h *DeskHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.desk.Dispatch(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]domain.AssignmentSnapshot, 0, len(assignments))
	for _, a := range assignments {
		response = append(response, domain.NewAssignmentSnapshot(a))
	}

	WriteList(w, response)
}

// HandleSnapshot handles GET /desk
func (h *DeskHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.desk.Snapshot(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	counts := make(map[string]int, len(snap.StatusCounts))
	for status, n := range snap.StatusCounts {
		counts[string(status)] = n
	}

	WriteSuccess(w, DeskResponse{
		PriorityQueue: domain.NewTicketSnapshots(snap.PriorityQueue),
		RegularQueue:  domain.NewTicketSnapshots(snap.RegularQueue),
		Agents:        snap.Agents,
		StatusCounts:  counts,
		TotalTickets:  snap.TotalTickets,
	})
}

// RegisterRoutes registers the desk endpoints. dispatchLimit, when not
// nil, wraps only the dispatch route.
func (h *DeskHandler) RegisterRoutes(r chi.Router, dispatchLimit func(http.Handler) http.Handler) {
	r.Get("/desk", h.HandleSnapshot)

	if dispatchLimit != nil {
		r.With(dispatchLimit).Post("/dispatch", h.HandleDispatch)
		return
	}
	r.Post("/dispatch", h.HandleDispatch)
}
