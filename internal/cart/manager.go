package cart

import (
	"sync"
)

// Manager hands out one Syncer per order id, creating, warming and starting
// it on first use. All devices at a table converge on the same order id and
// therefore share one synced store.
type Manager struct {
	mu     sync.Mutex
	carts  map[string]*Syncer
	repo   OrderItemStore
	source EventSource
}

// NewManager creates a cart manager.
func NewManager(repo OrderItemStore, source EventSource) *Manager {
	return &Manager{
		carts:  make(map[string]*Syncer),
		repo:   repo,
		source: source,
	}
}

// Get returns the syncer for an order, creating it on first use. Creation
// warms the store from persisted rows and starts the change-feed
// reconciliation.
func (m *Manager) Get(orderID string) (*Syncer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if syncer, ok := m.carts[orderID]; ok {
		return syncer, nil
	}
	syncer := NewSyncer(orderID, NewStore(), m.repo, m.source)
	if err := syncer.Warm(); err != nil {
		return nil, err
	}
	syncer.Start()
	m.carts[orderID] = syncer
	return syncer, nil
}

// Drop stops and forgets an order's syncer, e.g. after order submission.
func (m *Manager) Drop(orderID string) {
	m.mu.Lock()
	syncer, ok := m.carts[orderID]
	if ok {
		delete(m.carts, orderID)
	}
	m.mu.Unlock()
	if ok {
		syncer.Stop()
	}
}
