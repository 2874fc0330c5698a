package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Manager hands out one DataContext per authenticated owner, created on
// first use (login) and torn down on logout. Nothing else constructs
// contexts, so all access to an owner's dataset funnels through one
// coordinator.
type Manager struct {
	mu       sync.Mutex
	cache    *Cache
	remote   Remote
	log      *zap.Logger
	contexts map[string]*DataContext
}

// NewManager wires the shared cache and remote store. remote may be nil when
// the app runs without remote credentials; every context is then permanently
// offline.
func NewManager(cache *Cache, remote Remote, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache:    cache,
		remote:   remote,
		log:      log,
		contexts: make(map[string]*DataContext),
	}
}

// Context returns the owner's coordinator, loading its dataset on first use.
func (m *Manager) Context(ctx context.Context, userID string) *DataContext {
	m.mu.Lock()
	if d, ok := m.contexts[userID]; ok {
		m.mu.Unlock()
		return d
	}
	d := NewDataContext(userID, m.cache, m.remote, m.log)
	m.contexts[userID] = d
	m.mu.Unlock()

	d.Load(ctx)
	return d
}

// Drop tears down the owner's coordinator. The local cache slot stays; the
// next login rebuilds the context from it.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, userID)
}
