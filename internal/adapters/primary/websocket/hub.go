package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/support-desk/internal/core/domain"
	"github.com/lorrc/support-desk/internal/core/ports"
)

// Hub maintains the set of active Clients and fans desk events out to them.
type Hub struct {
	// clients maps operator names to their active connections.
	// One operator can hold several connections.
	clients map[string]map[*Client]bool

	// rooms maps ticket IDs to subscribed clients
	rooms map[int64]map[*Client]bool

	// watchers receive every ticket event regardless of rooms
	watchers map[*Client]bool

	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	// mu protects clients, rooms and watchers
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		rooms:      make(map[int64]map[*Client]bool),
		watchers:   make(map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for delivery. It never blocks the caller;
// when the queue is full the event is dropped and logged.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"ticket_id", event.TicketID,
		)
	}
	return nil
}

// Run starts the hub's event loop until ctx is cancelled, then closes
// every client. Run it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Join registers client with the running hub. It reports false when the
// hub has already stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave asks Run to drop client. It returns immediately once Run has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Operator] == nil {
		h.clients[client.Operator] = make(map[*Client]bool)
	}
	h.clients[client.Operator][client] = true

	h.logger.Info("client registered",
		"operator", client.Operator,
		"total_connections", len(h.clients[client.Operator]),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.removeLocked(client) {
		return
	}

	h.logger.Info("client unregistered", "operator", client.Operator)
}

// removeLocked detaches client everywhere and closes its send channel.
// It reports false when the client was already gone.
func (h *Hub) removeLocked(client *Client) bool {
	operatorClients, ok := h.clients[client.Operator]
	if !ok || !operatorClients[client] {
		return false
	}

	delete(operatorClients, client)
	if len(operatorClients) == 0 {
		delete(h.clients, client.Operator)
	}

	for _, ticketID := range client.GetSubscriptions() {
		if room, ok := h.rooms[ticketID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, ticketID)
			}
		}
	}
	delete(h.watchers, client)

	client.CloseSend()
	return true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, operatorClients := range h.clients {
		for client := range operatorClients {
			h.removeLocked(client)
		}
	}
	h.logger.Info("websocket hub stopped")
}

// recipients returns the clients an event should reach. Desk-wide events
// (ticket ID 0) go to every client; ticket events go to the ticket's room
// and to watchers.
func (h *Hub) recipients(event domain.Event) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	var out []*Client
	add := func(c *Client) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	if event.TicketID == 0 {
		for _, operatorClients := range h.clients {
			for c := range operatorClients {
				add(c)
			}
		}
		return out
	}

	for c := range h.rooms[event.TicketID] {
		add(c)
	}
	for c := range h.watchers {
		add(c)
	}
	return out
}

func (h *Hub) broadcastEvent(event domain.Event) {
	clients := h.recipients(event)
	if len(clients) == 0 {
		return
	}

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"ticket_id", event.TicketID,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
		default:
			// Slow consumer. Run owns the loop, so drop the client here
			// rather than sending on Unregister.
			h.logger.Warn("client send buffer full, unregistering",
				"operator", client.Operator,
			)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) subscribeClientToTicket(client *Client, ticketID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client.Operator][client] {
		return
	}
	if h.rooms[ticketID] == nil {
		h.rooms[ticketID] = make(map[*Client]bool)
	}
	h.rooms[ticketID][client] = true
	client.AddSubscription(ticketID)

	h.logger.Debug("client subscribed to ticket",
		"operator", client.Operator,
		"ticket_id", ticketID,
	)
}

func (h *Hub) unsubscribeClientFromTicket(client *Client, ticketID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[ticketID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
	client.RemoveSubscription(ticketID)

	h.logger.Debug("client unsubscribed from ticket",
		"operator", client.Operator,
		"ticket_id", ticketID,
	)
}

func (h *Hub) watchAll(client *Client, enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client.Operator][client] {
		return
	}
	if enabled {
		h.watchers[client] = true
	} else {
		delete(h.watchers, client)
	}

	h.logger.Debug("client watch-all changed",
		"operator", client.Operator,
		"enabled", enabled,
	)
}

// ClientCount returns the total number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, operatorClients := range h.clients {
		count += len(operatorClients)
	}
	return count
}

// RoomCount returns the number of tickets with at least one subscriber
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the number of clients subscribed to a ticket
func (h *Hub) ClientsInRoom(ticketID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ticketID])
}

// IsOperatorConnected checks if an operator has any active connections
func (h *Hub) IsOperatorConnected(operator string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[operator]) > 0
}
