package events

import (
	"testing"

	"memoex/exchange"
)

func TestSubscribePublishUnsubscribe(t *testing.T) {
	bus := NewBus()
	id, ch := bus.Subscribe()
	if bus.TotalSubscriptions() != 1 {
		t.Fatalf("expected 1 subscription, got %d", bus.TotalSubscriptions())
	}

	bus.Publish(exchange.Event{ExchangeID: "ex-1", Role: "requester", Message: "submitted"})
	got := <-ch
	if got.ExchangeID != "ex-1" || got.Role != "requester" {
		t.Fatalf("unexpected event: %+v", got)
	}

	if !bus.Unsubscribe(id) {
		t.Fatal("unsubscribe should succeed")
	}
	if bus.HasSubscriber(id) {
		t.Fatal("subscriber should be gone")
	}
	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

func TestUnsubscribeUnknownID(t *testing.T) {
	bus := NewBus()
	if bus.Unsubscribe("no-such-id") {
		t.Fatal("unsubscribing an unknown id should report false")
	}
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	bus := NewBus()
	_, ch := bus.Subscribe()

	// Overflow the buffer; the excess publishes must not block.
	for i := 0; i < 60; i++ {
		bus.Publish(exchange.Event{ExchangeID: "ex-2"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected a full channel, got %d/%d", len(ch), cap(ch))
	}
}

func TestBusIsAnEventSink(t *testing.T) {
	var _ exchange.EventSink = NewBus()
}
