package session

import (
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Manager owns one Store per browser session, keyed by the sid cookie.
// Stores are created lazily in the loading state; the auth service drops a
// store again when its session resolves anonymous with no token, so only
// token-bearing sessions stay registered.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
	rdb    *redis.Client
	log    *logrus.Logger
}

func NewManager(rdb *redis.Client, log *logrus.Logger) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		rdb:    rdb,
		log:    log,
	}
}

// Get returns the store for sid, creating it if needed.
func (m *Manager) Get(sid string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[sid]
	if !ok {
		st = NewStore(m.rdb, m.log)
		m.stores[sid] = st
	}
	return st
}

// Peek returns the store for sid without creating one.
func (m *Manager) Peek(sid string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[sid]
	return st, ok
}

// Drop forgets the store for sid.
func (m *Manager) Drop(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sid)
}
