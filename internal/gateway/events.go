package gateway

import "sync"

// EventType names an auth-state change as emitted by the auth service.
type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
	UserUpdated    EventType = "USER_UPDATED"
)

// AuthEvent describes one auth-state change. Session is set for events that
// carry fresh tokens (sign-in, refresh); UserID is set whenever the affected
// principal is known.
type AuthEvent struct {
	Type    EventType
	UserID  string
	Session *Session
}

// Listener receives auth events synchronously on the emitting goroutine.
type Listener func(AuthEvent)

// Broker is the explicit listener registry behind OnAuthStateChange.
// Fan-out order across listeners is unspecified.
type Broker struct {
	mu     sync.Mutex
	next   int
	subs   map[int]Listener
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]Listener)}
}

// Subscribe registers fn and returns a handle whose Unsubscribe is safe to
// call more than once.
func (b *Broker) Subscribe(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return &Subscription{}
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	return &Subscription{cancel: func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}}
}

// Emit fans the event out to every live listener.
func (b *Broker) Emit(e AuthEvent) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	fns := make([]Listener, 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// Close drops all listeners; later Emit and Subscribe calls are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = map[int]Listener{}
}

// Subscription is the handle returned by OnAuthStateChange.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
