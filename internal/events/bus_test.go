package events

import (
	"testing"
	"time"

	"qrmenu/internal/models"
)

func event(orderID, itemID string) models.OrderItemEvent {
	return models.OrderItemEvent{
		Type:    models.OrderItemInserted,
		OrderID: orderID,
		Row:     models.TempOrderItem{OrderID: orderID, MenuItemID: itemID, Quantity: 1, Alias: "a"},
	}
}

func TestBus_DeliversToOrderSubscribers(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe("order1")
	defer unsubscribe()

	bus.Publish(event("order1", "itemX"))

	select {
	case got := <-ch:
		if got.Row.MenuItemID != "itemX" {
			t.Errorf("received wrong event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestBus_ScopesByOrderID(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe("order1")
	defer unsubscribe()

	bus.Publish(event("order2", "itemX"))

	select {
	case got := <-ch:
		t.Fatalf("received event for another order: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe("order1")

	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(event("order1", "itemX"))

	// Unsubscribe is idempotent.
	unsubscribe()
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()
	ch1, unsub1 := bus.Subscribe("order1")
	ch2, unsub2 := bus.Subscribe("order1")
	defer unsub1()
	defer unsub2()

	bus.Publish(event("order1", "itemX"))

	for i, ch := range []<-chan models.OrderItemEvent{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i+1)
		}
	}
}
