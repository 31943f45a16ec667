package cart

import (
	"strings"
	"sync"

	"qrmenu/internal/models"
)

// SyncState tracks a line item's persistence lifecycle. A line is Pending
// between the optimistic local mutation and the backend's acknowledgement,
// Confirmed once persisted (or reconciled from a pushed row), and Failed when
// persistence reported an error. Failed lines keep their local quantity; the
// next successful reconciliation repairs them.
type SyncState string

const (
	SyncPending   SyncState = "pending"
	SyncConfirmed SyncState = "confirmed"
	SyncFailed    SyncState = "failed"
)

// LineItem is one cart line: a snapshot of the menu item, the selection that
// produced it, and who at the table owns it. Quantity is always >= 1; a line
// that would reach zero is deleted instead.
type LineItem struct {
	Key       string
	Item      models.MenuItem
	Modifiers SelectedModifiers
	Quantity  int
	Alias     string
	State     SyncState
}

// Store is the in-memory cart: a mapping of cart key to line item with
// subscribable change notifications. All mutators are synchronous over local
// state; persistence is a side effect layered on top by the Syncer.
type Store struct {
	mu    sync.RWMutex
	lines map[string]*LineItem

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int
}

// NewStore creates an empty cart store.
func NewStore() *Store {
	return &Store{
		lines:       make(map[string]*LineItem),
		subscribers: make(map[int]func()),
	}
}

// Subscribe registers a change listener and returns an unsubscribe func.
// Listeners are invoked after every mutation, outside the store lock.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	listeners := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Add inserts or increments the line for (item, modifiers, alias) and returns
// its key. A new line snapshots the menu item as passed and starts Pending.
func (s *Store) Add(item models.MenuItem, modifiers SelectedModifiers, alias string) string {
	key := Key(item.ID, modifiers, alias)

	s.mu.Lock()
	if line, ok := s.lines[key]; ok {
		line.Quantity++
		line.State = SyncPending
	} else {
		s.lines[key] = &LineItem{
			Key:       key,
			Item:      item,
			Modifiers: modifiers,
			Quantity:  1,
			Alias:     alias,
			State:     SyncPending,
		}
	}
	s.mu.Unlock()

	s.notify()
	return key
}

// RemoveByKey decrements the line with the given key, deleting it when the
// quantity reaches zero. Returns false when no such line exists.
func (s *Store) RemoveByKey(key string) bool {
	s.mu.Lock()
	line, ok := s.lines[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if line.Quantity > 1 {
		line.Quantity--
		line.State = SyncPending
	} else {
		delete(s.lines, key)
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// RemoveByItem locates a line for the item and decrements it. Matching is
// lenient to survive key-format drift in carts written by older clients:
// exact key first, then any key with the item-id prefix, then substring
// containment of the item id.
func (s *Store) RemoveByItem(itemID string, modifiers SelectedModifiers, alias string) bool {
	key, ok := s.matchKey(itemID, modifiers, alias)
	if !ok {
		return false
	}
	return s.RemoveByKey(key)
}

func (s *Store) matchKey(itemID string, modifiers SelectedModifiers, alias string) (string, bool) {
	exact := Key(itemID, modifiers, alias)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.lines[exact]; ok {
		return exact, true
	}
	prefix := itemID + keyDelimiter
	for key := range s.lines {
		if strings.HasPrefix(key, prefix) {
			return key, true
		}
	}
	for key := range s.lines {
		if strings.Contains(key, itemID) {
			return key, true
		}
	}
	return "", false
}

// Upsert replaces the line for the given key with the authoritative state
// from a persisted row. Used by reconciliation; quantities below one are
// rejected there, not here.
func (s *Store) Upsert(line LineItem) {
	s.mu.Lock()
	stored := line
	s.lines[line.Key] = &stored
	s.mu.Unlock()
	s.notify()
}

// Delete removes the line with the given key outright, regardless of
// quantity. Used by reconciliation on DELETE events.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	_, ok := s.lines[key]
	if ok {
		delete(s.lines, key)
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
}

// SetState updates the sync state of a line, if it still exists.
func (s *Store) SetState(key string, state SyncState) {
	s.mu.Lock()
	if line, ok := s.lines[key]; ok {
		line.State = state
	}
	s.mu.Unlock()
}

// Get returns a copy of the line with the given key.
func (s *Store) Get(key string) (LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, ok := s.lines[key]
	if !ok {
		return LineItem{}, false
	}
	return *line, true
}

// Lines returns a copy of all line items.
func (s *Store) Lines() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]LineItem, 0, len(s.lines))
	for _, line := range s.lines {
		lines = append(lines, *line)
	}
	return lines
}

// TotalItems returns the sum of all quantities across all lines.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// ItemQuantity sums the quantities of every modifier variant of the item.
func (s *Store) ItemQuantity(itemID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, line := range s.lines {
		if line.Item.ID == itemID {
			total += line.Quantity
		}
	}
	return total
}

// FindKey returns the key of any line for the item, across all variants.
func (s *Store) FindKey(itemID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, line := range s.lines {
		if line.Item.ID == itemID {
			return key, true
		}
	}
	return "", false
}

// FindExactKey returns the key of the line matching the item and the exact
// modifier selection for the alias.
func (s *Store) FindExactKey(itemID string, modifiers SelectedModifiers, alias string) (string, bool) {
	key := Key(itemID, modifiers, alias)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lines[key]
	return key, ok
}

// Clear empties the whole cart, e.g. after order submission.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = make(map[string]*LineItem)
	s.mu.Unlock()
	s.notify()
}
