// Package session holds the cached identity of each browser session: a
// tri-state observable store written only by the auth service and read as
// immutable snapshots everywhere else.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/domain/entity"
)

// State is the session's auth state. Exactly one holds at any time.
type State int

const (
	// StateLoading holds until the first session resolution completes.
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is an immutable view of the store. Identity is non-nil exactly
// when State is StateAuthenticated.
type Snapshot struct {
	State    State
	Identity *entity.Identity
}

// Store tracks one browser session's identity. Mutations notify registered
// listeners synchronously, and the authenticated identity is mirrored into
// Redis under user:session:<uid> so other processes can read it.
type Store struct {
	mu       sync.RWMutex
	snap     Snapshot
	subs     map[int]func(Snapshot)
	nextSub  int
	mirrored string // uid of the currently mirrored identity, if any

	rdb *redis.Client
	log *logrus.Logger
}

func NewStore(rdb *redis.Client, log *logrus.Logger) *Store {
	return &Store{
		snap: Snapshot{State: StateLoading},
		subs: make(map[int]func(Snapshot)),
		rdb:  rdb,
		log:  log,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers a listener called after every state change. The
// returned cancel func is safe to call more than once.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SetAuthenticated records a resolved identity.
func (s *Store) SetAuthenticated(ctx context.Context, id entity.Identity) {
	s.mu.Lock()
	s.snap = Snapshot{State: StateAuthenticated, Identity: &id}
	s.mirrored = id.ID
	fns := s.listeners()
	s.mu.Unlock()

	s.mirror(ctx, id)
	notify(fns, Snapshot{State: StateAuthenticated, Identity: &id})
}

// SetAnonymous clears the identity. Calling it on an already-anonymous store
// is a no-op, which makes sign-out notification replays harmless.
func (s *Store) SetAnonymous(ctx context.Context) {
	s.mu.Lock()
	if s.snap.State == StateAnonymous {
		s.mu.Unlock()
		return
	}
	uid := s.mirrored
	s.mirrored = ""
	s.snap = Snapshot{State: StateAnonymous}
	fns := s.listeners()
	s.mu.Unlock()

	if uid != "" {
		s.unmirror(ctx, uid)
	}
	notify(fns, Snapshot{State: StateAnonymous})
}

func (s *Store) listeners() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}

func sessionKey(uid string) string { return "user:session:" + uid }

func (s *Store) mirror(ctx context.Context, id entity.Identity) {
	if s.rdb == nil {
		return
	}
	key := sessionKey(id.ID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    id.ID,
		"email":      id.Email,
		"is_admin":   id.IsAdmin,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil && s.log != nil {
		s.log.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *Store) unmirror(ctx context.Context, uid string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, sessionKey(uid)).Err(); err != nil && s.log != nil {
		s.log.WithError(err).WithField("user_id", uid).Warn("redis delete failed")
	}
}
