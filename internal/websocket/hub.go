// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/metrics"
	"github.com/tomtom215/isobusd/internal/telemetry"
)

// ShutdownReason indicates why the hub stopped.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the context was canceled.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types
const (
	MessageTypeTelemetry = "telemetry"
	MessageTypeSubscribe = "subscribe"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TelemetryData is the payload of a telemetry message.
type TelemetryData struct {
	PGN       uint32             `json:"pgn"`
	Category  string             `json:"category,omitempty"`
	Source    uint8              `json:"source_address"`
	Known     bool               `json:"known"`
	Fields    map[string]float64 `json:"fields,omitempty"`
	Raw       string             `json:"raw"`
	Timestamp float64            `json:"timestamp"`
}

// outbound pairs a message with the category used for client filtering.
type outbound struct {
	msg         Message
	filtered    bool
	category    telemetry.Category
	categorized bool
}

// Hub maintains active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client. It implements the suture service body.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// registration changes are handled before pending broadcasts so a
		// new client sees the next message
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case out := <-h.broadcast:
			h.broadcastToClients(out)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients must be called with h.mu held. Clients are ordered by id
// so delivery order does not depend on map iteration.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers to every subscribed client. Clients whose
// send buffer is full are disconnected.
func (h *Hub) broadcastToClients(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClients() {
		if !client.accepts(out) {
			continue
		}
		select {
		case client.send <- out.msg:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, disconnected")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

func (h *Hub) enqueue(out outbound) bool {
	select {
	case h.broadcast <- out:
		return true
	default:
		metrics.WSMessagesDropped.Inc()
		return false
	}
}

// BroadcastJSON sends a message to every client without blocking. The
// message is dropped if the broadcast queue is full.
func (h *Hub) BroadcastJSON(messageType string, data any) {
	if !h.enqueue(outbound{msg: Message{Type: messageType, Data: data}}) {
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// Publish implements intake.Sink. Decoded frames are pushed to the clients
// subscribed to their category; unknown PGNs go to clients without a filter.
func (h *Hub) Publish(_ context.Context, ev intake.Event) error {
	data := TelemetryData{
		PGN:       ev.Message.PGN,
		Category:  ev.Category,
		Source:    ev.Header.Source,
		Known:     ev.Known,
		Fields:    ev.Message.Fields,
		Raw:       j1939.RawHex(ev.Frame.Data),
		Timestamp: float64(ev.Frame.Received.UnixNano()) / float64(time.Second),
	}
	out := outbound{msg: Message{Type: MessageTypeTelemetry, Data: data}, filtered: true}
	out.category, out.categorized = telemetry.CategoryOf(ev.Message.PGN)

	// the pipeline must not stall on slow browsers, so drops are not errors
	if !h.enqueue(out) {
		logging.Debug().Uint32("pgn", data.PGN).Msg("broadcast channel full, dropping telemetry")
	}
	return nil
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage marshals a message to JSON using goccy/go-json.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
