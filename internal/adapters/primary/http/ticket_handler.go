package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/support-desk/internal/adapters/primary/validation"
	"github.com/lorrc/support-desk/internal/core/domain"
	"github.com/lorrc/support-desk/internal/core/ports"
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	desk                 ports.DeskService
	errorHandler         *ErrorHandler
	logger               *slog.Logger
	maxDescriptionLength int
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	desk ports.DeskService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
	maxDescriptionLength int,
) *TicketHandler {
	if maxDescriptionLength <= 0 {
		maxDescriptionLength = domain.MaxDescriptionLength
	}
	return &TicketHandler{
		desk:                 desk,
		errorHandler:         errorHandler,
		logger:               logger.With("handler", "ticket"),
		maxDescriptionLength: maxDescriptionLength,
	}
}

// Router sets up a new chi Router for all ticket-related routes.
func (h *TicketHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/priority", h.HandleReprioritize)
		r.Post("/resolve", h.HandleResolve)
	})
}

// --- Request DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket.
// A present priority selects the priority lane.
type CreateTicketRequest struct {
	Description string `json:"description"`
	Priority    *int   `json:"priority"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate(maxDescriptionLength int) error {
	v := validation.NewValidator()

	v.Required("description", r.Description).
		MaxLength("description", r.Description, maxDescriptionLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ReprioritizeRequest defines the expected JSON body for changing a priority
type ReprioritizeRequest struct {
	Priority *int `json:"priority"`
}

// Validate validates the reprioritize request
func (r *ReprioritizeRequest) Validate() error {
	v := validation.NewValidator()

	v.NotNil("priority", r.Priority)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandleListTickets handles GET /tickets?status=
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	status := validation.ParseStringQueryParam(r, "status")

	v := validation.NewValidator()
	v.Custom("status", status != nil, "This field is required")
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	// The API rejects unknown status text instead of listing nothing.
	if _, err := domain.ParseStatus(*status); err != nil {
		h.errorHandler.Handle(w, r, fmt.Errorf("%w: %q", err, *status))
		return
	}

	response := []domain.TicketSnapshot{}
	for ticket := range h.desk.ListByStatus(r.Context(), *status) {
		response = append(response, domain.NewTicketSnapshot(ticket))
	}

	WriteList(w, response)
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(h.maxDescriptionLength); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var ticket *domain.Ticket
	if req.Priority != nil {
		ticket, err = h.desk.AddPriority(r.Context(), req.Description, *req.Priority)
	} else {
		ticket, err = h.desk.AddRegular(r.Context(), req.Description)
	}
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.desk.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, domain.NewTicketSnapshot(ticket))
}

// HandleReprioritize handles PATCH /tickets/{ticketID}/priority
func (h *TicketHandler) HandleReprioritize(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[ReprioritizeRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.desk.Reprioritize(r.Context(), ticketID, *req.Priority)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, domain.NewTicketSnapshot(ticket))
}

// HandleResolve handles POST /tickets/{ticketID}/resolve
func (h *TicketHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.desk.Resolve(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, domain.NewTicketSnapshot(ticket))
}

// parseTicketID extracts and validates the ticket ID from the URL
func (h *TicketHandler) parseTicketID(r *http.Request) (int64, error) {
	return validation.ParseID("ticketID", chi.URLParam(r, "ticketID"))
}
