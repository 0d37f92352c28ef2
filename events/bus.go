// Package events fans exchange progress notifications out to in-process
// subscribers, decoupling the roles from whoever watches them (CLI output,
// tests, a future websocket feed).
package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"memoex/exchange"
	"memoex/logx"
)

type SubscriberID string

type Subscriber struct {
	ID      SubscriberID
	Channel chan exchange.Event
}

// Bus implements exchange.EventSink: events emitted by a role reach every
// live subscriber. Delivery is best effort; a subscriber that stops draining
// its channel misses events instead of blocking the exchange.
type Bus struct {
	subscribers map[SubscriberID]*Subscriber
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[SubscriberID]*Subscriber),
	}
}

func (b *Bus) generateUUIDID() SubscriberID {
	id := uuid.Must(uuid.NewV7())
	return SubscriberID(id.String())
}

func (b *Bus) Subscribe() (SubscriberID, chan exchange.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.generateUUIDID()

	ch := make(chan exchange.Event, 50) // Buffer for events
	subscriber := &Subscriber{
		ID:      id,
		Channel: ch,
	}

	b.subscribers[id] = subscriber

	logx.Debug("EVENTBUS", fmt.Sprintf("Subscribed to exchange events | subscriber_id=%s | total_subscribers=%d", id, len(b.subscribers)))

	return id, ch
}

// Unsubscribe removes a subscription by ID and closes its channel.
func (b *Bus) Unsubscribe(id SubscriberID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscriber, exists := b.subscribers[id]
	if !exists {
		logx.Warn("EVENTBUS", fmt.Sprintf("Attempted to unsubscribe non-existent subscriber | subscriber_id=%s", id))
		return false
	}

	delete(b.subscribers, id)
	close(subscriber.Channel)
	return true
}

// Emit satisfies exchange.EventSink.
func (b *Bus) Emit(e exchange.Event) {
	b.Publish(e)
}

// Publish delivers an event to all subscribers without blocking.
func (b *Bus) Publish(event exchange.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, subscriber := range b.subscribers {
		select {
		case subscriber.Channel <- event:
		default:
			// Channel is full, skip this subscriber
			logx.Warn("EVENTBUS", fmt.Sprintf("Subscriber channel full | subscriber_id=%s | exchange_id=%s", id, event.ExchangeID))
		}
	}
}

// TotalSubscriptions returns the number of active subscriptions.
func (b *Bus) TotalSubscriptions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

// HasSubscriber checks if a subscriber with the given ID exists.
func (b *Bus) HasSubscriber(id SubscriberID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.subscribers[id]
	return exists
}
