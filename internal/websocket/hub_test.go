// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// newTestClient builds a client that is never pumped; tests read from its
// send channel directly.
func newTestClient(hub *Hub, buffer int, topics ...string) *Client {
	c := &Client{
		id:     clientIDCounter.Add(1),
		hub:    hub,
		send:   make(chan Message, buffer),
		topics: make(map[string]bool),
	}
	for _, topic := range topics {
		c.topics[topic] = true
	}
	return c
}

func TestNewHub(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	if hub.clients == nil || hub.broadcast == nil || hub.Register == nil || hub.Unregister == nil {
		t.Fatal("hub channels or client map not initialized")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("GetClientCount() = %d, want 0", hub.GetClientCount())
	}
}

func TestBroadcastTopicRouting(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	areaID := uuid.New()

	scans := newTestClient(hub, 4, TopicScans)
	areas := newTestClient(hub, 4, TopicAreas)
	oneArea := newTestClient(hub, 4, AreaTopic(areaID))
	unsubscribed := newTestClient(hub, 4)

	for _, c := range []*Client{scans, areas, oneArea, unsubscribed} {
		hub.clients[c] = true
	}

	hub.broadcastToClients(Message{Type: MessageTypeAreaUpdate, Topic: AreaTopic(areaID)})
	hub.broadcastToClients(Message{Type: MessageTypeAreaUpdate, Topic: TopicAreas})
	hub.broadcastToClients(Message{Type: MessageTypeScanEvent, Topic: TopicScans})

	if got := len(scans.send); got != 1 {
		t.Errorf("scans subscriber got %d messages, want 1", got)
	}
	if got := len(areas.send); got != 1 {
		t.Errorf("areas subscriber got %d messages, want 1", got)
	}
	if got := len(oneArea.send); got != 1 {
		t.Errorf("per-area subscriber got %d messages, want 1", got)
	}
	if got := len(unsubscribed.send); got != 0 {
		t.Errorf("unsubscribed client got %d messages, want 0", got)
	}

	msg := <-oneArea.send
	if msg.Topic != AreaTopic(areaID) {
		t.Errorf("delivered topic = %s, want %s", msg.Topic, AreaTopic(areaID))
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	slow := newTestClient(hub, 1, TopicScans)
	fast := newTestClient(hub, 4, TopicScans)
	hub.clients[slow] = true
	hub.clients[fast] = true

	// Second delivery overflows the slow client's buffer of one.
	hub.broadcastToClients(Message{Type: MessageTypeScanEvent, Topic: TopicScans})
	hub.broadcastToClients(Message{Type: MessageTypeScanEvent, Topic: TopicScans})

	if _, ok := hub.clients[slow]; ok {
		t.Error("slow client still registered, want dropped")
	}
	if _, ok := hub.clients[fast]; !ok {
		t.Error("fast client was dropped")
	}
	if got := len(fast.send); got != 2 {
		t.Errorf("fast client got %d messages, want 2", got)
	}
}

func TestPublishAreaUpdateFansOutToBothTopics(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	area := models.AreaResponse{ID: uuid.New(), Name: "Main Stage"}

	hub.PublishAreaUpdate(area)

	if got := len(hub.broadcast); got != 2 {
		t.Fatalf("queued %d messages, want 2 (per-area + aggregate)", got)
	}

	first := <-hub.broadcast
	second := <-hub.broadcast
	if first.Topic != AreaTopic(area.ID) {
		t.Errorf("first topic = %s, want %s", first.Topic, AreaTopic(area.ID))
	}
	if second.Topic != TopicAreas {
		t.Errorf("second topic = %s, want %s", second.Topic, TopicAreas)
	}
}

func TestRunWithContextLifecycle(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- hub.RunWithContext(ctx)
	}()

	client := newTestClient(hub, 4, TopicAlerts)
	hub.Register <- client

	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.Publish(Message{Type: MessageTypeAlert, Topic: TopicAlerts})
	waitFor(t, func() bool { return len(client.send) == 1 })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("clients after shutdown = %d, want 0", hub.GetClientCount())
	}
	// The hub closes client channels on shutdown.
	if _, ok := <-client.send; ok {
		// One buffered alert is fine; the channel must be closed after it.
		if _, ok := <-client.send; ok {
			t.Error("client send channel not closed on shutdown")
		}
	}
}

func TestUnregisterRemovesClient(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = hub.RunWithContext(ctx) }()

	client := newTestClient(hub, 4)
	hub.Register <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestClientSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	c := newTestClient(NewHub(), 1)
	if c.subscribedTo(TopicScans) {
		t.Error("fresh client should have no subscriptions")
	}
	c.subscribe(TopicScans)
	if !c.subscribedTo(TopicScans) {
		t.Error("subscribe did not register the topic")
	}
	c.unsubscribe(TopicScans)
	if c.subscribedTo(TopicScans) {
		t.Error("unsubscribe did not remove the topic")
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	data, err := MarshalMessage(Message{Type: MessageTypeSubscribed, Topic: TopicAlerts})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	want := `{"type":"subscribed","topic":"alerts"}`
	if string(data) != want {
		t.Errorf("MarshalMessage = %s, want %s", data, want)
	}
}

// waitFor polls a condition to avoid fixed sleeps in lifecycle tests.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
