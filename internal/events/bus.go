// Package events carries the change feed for persisted cart rows. The
// repository publishes an event after every committed write; reconcilers and
// the websocket fan-out subscribe per order id, the way a hosted backend's
// realtime channel would be consumed.
package events

import (
	"log"
	"sync"

	"qrmenu/internal/models"
)

// subscriber buffer size. Slow consumers drop events rather than block a
// write path; reconciliation re-reads authoritative rows so a dropped event
// is repaired by the next one.
const subscriberBuffer = 64

// Bus is an in-process publish/subscribe hub keyed by order id.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan models.OrderItemEvent
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan models.OrderItemEvent)}
}

// Subscribe registers for events on one order id. The returned channel is
// closed by the unsubscribe func; callers must stop reading after calling it.
func (b *Bus) Subscribe(orderID string) (<-chan models.OrderItemEvent, func()) {
	ch := make(chan models.OrderItemEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[orderID] == nil {
		b.subs[orderID] = make(map[int]chan models.OrderItemEvent)
	}
	id := b.next
	b.next++
	b.subs[orderID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.subs[orderID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.subs, orderID)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber of its order id. Delivery
// is non-blocking; a full subscriber buffer drops the event with a warning.
func (b *Bus) Publish(event models.OrderItemEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[event.OrderID] {
		select {
		case ch <- event:
		default:
			log.Printf("events: subscriber buffer full, dropping %s for order %s", event.Type, event.OrderID)
		}
	}
}
