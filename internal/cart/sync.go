package cart

import (
	"encoding/json"
	"errors"
	"log"

	"qrmenu/internal/models"
	"qrmenu/internal/storage"
)

// OrderItemStore is the persistence surface the syncer writes through. A
// lookup that finds no row must return an error matching
// storage.ErrRowNotFound; only that error is treated as "create a new row".
type OrderItemStore interface {
	Find(orderID, itemID, canonicalModifiers, alias string) (*models.TempOrderItem, error)
	Insert(row *models.TempOrderItem) error
	SetQuantity(row *models.TempOrderItem, quantity int) error
	Delete(row *models.TempOrderItem) error
	ListByOrder(orderID string) ([]models.TempOrderItem, error)
}

// EventSource is a subscription to one order's change feed.
type EventSource interface {
	Subscribe(orderID string) (<-chan models.OrderItemEvent, func())
}

// Syncer ties a local cart store to the persisted rows of one order. Local
// mutations are applied optimistically first, then written through; change
// feed events reconcile the store with the authoritative rows, which makes
// re-application of a duplicated event idempotent.
type Syncer struct {
	orderID string
	store   *Store
	repo    OrderItemStore
	source  EventSource

	unsubscribe func()
	done        chan struct{}
}

// NewSyncer creates a syncer for one order.
func NewSyncer(orderID string, store *Store, repo OrderItemStore, source EventSource) *Syncer {
	return &Syncer{orderID: orderID, store: store, repo: repo, source: source}
}

// Store returns the local cart store.
func (s *Syncer) Store() *Store {
	return s.store
}

// Start subscribes to the order's change feed and begins reconciling events
// on a single goroutine, so applications are serialized per order.
func (s *Syncer) Start() {
	ch, unsubscribe := s.source.Subscribe(s.orderID)
	s.unsubscribe = unsubscribe
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		for event := range ch {
			s.Apply(event)
		}
	}()
}

// Stop tears down the subscription. Events already in flight are drained;
// nothing is applied after Stop returns.
func (s *Syncer) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		<-s.done
	}
}

// Warm loads the order's persisted rows into the local store, e.g. when a
// second device joins the table.
func (s *Syncer) Warm() error {
	rows, err := s.repo.ListByOrder(s.orderID)
	if err != nil {
		return err
	}
	for i := range rows {
		s.upsertRow(&rows[i])
	}
	return nil
}

// AddItem applies the optimistic local increment and writes it through: an
// existing row is incremented, a missing one inserted with quantity 1. On a
// persistence failure the local line is marked Failed but not rolled back;
// the next reconciliation repairs it.
func (s *Syncer) AddItem(item models.MenuItem, modifiers SelectedModifiers, alias string) error {
	key := s.store.Add(item, modifiers, alias)

	canonical := modifiers.Canonical()
	row, err := s.repo.Find(s.orderID, item.ID, canonical, alias)
	switch {
	case errors.Is(err, storage.ErrRowNotFound):
		snapshot, marshalErr := json.Marshal(item)
		if marshalErr != nil {
			snapshot = nil
		}
		err = s.repo.Insert(&models.TempOrderItem{
			OrderID:      s.orderID,
			MenuItemID:   item.ID,
			Modifiers:    canonical,
			Quantity:     1,
			Alias:        alias,
			ItemSnapshot: string(snapshot),
		})
	case err == nil:
		err = s.repo.SetQuantity(row, row.Quantity+1)
	}

	if err != nil {
		s.store.SetState(key, SyncFailed)
		log.Printf("cart: persist add for order %s failed: %v", s.orderID, err)
		return err
	}
	s.store.SetState(key, SyncConfirmed)
	return nil
}

// RemoveItem applies the optimistic local decrement and writes it through: a
// row above quantity 1 is decremented, a row at 1 deleted. Removing an item
// with no persisted row is a no-op.
func (s *Syncer) RemoveItem(itemID string, modifiers SelectedModifiers, alias string) error {
	removed := s.store.RemoveByItem(itemID, modifiers, alias)

	canonical := modifiers.Canonical()
	row, err := s.repo.Find(s.orderID, itemID, canonical, alias)
	if errors.Is(err, storage.ErrRowNotFound) {
		if removed {
			log.Printf("cart: no persisted row for removed item %s in order %s", itemID, s.orderID)
		}
		return nil
	}
	if err == nil {
		if row.Quantity > 1 {
			err = s.repo.SetQuantity(row, row.Quantity-1)
		} else {
			err = s.repo.Delete(row)
		}
	}
	if err != nil {
		log.Printf("cart: persist remove for order %s failed: %v", s.orderID, err)
		return err
	}
	return nil
}

// Apply reconciles one change-feed event into the local store. The pushed
// row is authoritative: inserts and updates overwrite the local line with
// the row's quantity, deletes remove it. Malformed payloads are dropped with
// a warning instead of propagating an error.
func (s *Syncer) Apply(event models.OrderItemEvent) {
	row := event.Row
	if row.MenuItemID == "" || row.Alias == "" {
		log.Printf("cart: dropping malformed %s event for order %s", event.Type, event.OrderID)
		return
	}

	switch event.Type {
	case models.OrderItemInserted, models.OrderItemUpdated:
		s.upsertRow(&row)
	case models.OrderItemDeleted:
		key := KeyFromCanonical(row.MenuItemID, row.Modifiers, row.Alias)
		s.store.Delete(key)
	default:
		log.Printf("cart: dropping unknown event type %q for order %s", event.Type, event.OrderID)
	}
}

func (s *Syncer) upsertRow(row *models.TempOrderItem) {
	if row.Quantity < 1 {
		log.Printf("cart: dropping row with quantity %d for item %s", row.Quantity, row.MenuItemID)
		return
	}

	modifiers, err := ParseCanonical(row.Modifiers)
	if err != nil {
		log.Printf("cart: dropping row with unparsable modifiers for item %s: %v", row.MenuItemID, err)
		return
	}

	item := models.MenuItem{ID: row.MenuItemID}
	if row.ItemSnapshot != "" {
		if err := json.Unmarshal([]byte(row.ItemSnapshot), &item); err != nil {
			log.Printf("cart: ignoring broken snapshot for item %s: %v", row.MenuItemID, err)
			item = models.MenuItem{ID: row.MenuItemID}
		}
	}

	key := KeyFromCanonical(row.MenuItemID, row.Modifiers, row.Alias)
	s.store.Upsert(LineItem{
		Key:       key,
		Item:      item,
		Modifiers: modifiers,
		Quantity:  row.Quantity,
		Alias:     row.Alias,
		State:     SyncConfirmed,
	})
}
