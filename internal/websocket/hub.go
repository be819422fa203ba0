// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package websocket implements the topic-based fan-out hub for live
// dashboards.
//
// Clients subscribe to topics after connecting; a message is delivered to
// a client only when it subscribed to the message's topic. Topics:
//
//	areas      every area state change
//	area/{id}  state changes of one area
//	scans      every processed scan
//	alerts     newly opened alerts
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/metrics"
	"github.com/venuepulse/venuepulse/internal/models"
)

// Message types for WebSocket communication.
const (
	MessageTypeAreaUpdate = "area-update"
	MessageTypeScanEvent  = "scan-event"
	MessageTypeAlert      = "alert"

	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeSubscribed  = "subscribed"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Topic names. Per-area topics are "area/" + the area UUID.
const (
	TopicAreas  = "areas"
	TopicScans  = "scans"
	TopicAlerts = "alerts"
)

// AreaTopic returns the per-area topic name.
func AreaTopic(id uuid.UUID) string {
	return "area/" + id.String()
}

// Message is the wire format in both directions. Topic is empty on
// control messages (subscribe, ping).
type Message struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub maintains the set of active clients and routes published messages
// to subscribers.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub and blocks until the context is canceled,
// at which point all clients are closed and ctx.Err() is returned. Designed
// for suture supervision: the supervisor restarts the hub loop on panic
// without leaking connections.
//
// Selection is priority-ordered so behavior stays predictable when several
// channels are ready at once: shutdown first, then client lifecycle,
// then broadcasts. Go's select picks randomly among ready channels, which
// would otherwise let a broadcast slip past a disconnect.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
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

// shutdown closes all clients and logs the reason. Context cancellation is
// expected behavior during graceful shutdown, so it is not logged as an
// error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := sortedClients(h.clients)
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// sortedClients returns the clients ordered by ID so broadcast and close
// order stay deterministic. Map iteration order would otherwise make
// message delivery order irreproducible.
func sortedClients(m map[*Client]bool) []*Client {
	clients := make([]*Client, 0, len(m))
	for client := range m {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers a message to every subscriber of its topic.
// A client whose send buffer is full is dropped rather than allowed to
// stall delivery to everyone else.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range sortedClients(h.clients) {
		if !client.subscribedTo(message.Topic) {
			continue
		}
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSClientsDropped.Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// Publish queues a message for fan-out. When the broadcast buffer is full
// the message is dropped; live dashboards recover on the next update.
func (h *Hub) Publish(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().
			Str("type", msg.Type).
			Str("topic", msg.Topic).
			Msg("broadcast channel full, dropping message")
	}
}

// PublishAreaUpdate notifies both the per-area topic and the aggregate
// areas topic of an area state change.
func (h *Hub) PublishAreaUpdate(area models.AreaResponse) {
	h.Publish(Message{Type: MessageTypeAreaUpdate, Topic: AreaTopic(area.ID), Data: area})
	h.Publish(Message{Type: MessageTypeAreaUpdate, Topic: TopicAreas, Data: area})
}

// PublishScan notifies the scans topic of a processed scan.
func (h *Hub) PublishScan(scan models.ScanEventMessage) {
	h.Publish(Message{Type: MessageTypeScanEvent, Topic: TopicScans, Data: scan})
}

// PublishAlert notifies the alerts topic of a newly opened alert.
func (h *Hub) PublishAlert(alert models.AlertResponse) {
	h.Publish(Message{Type: MessageTypeAlert, Topic: TopicAlerts, Data: alert})
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
