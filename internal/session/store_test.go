package session

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/domain/entity"
)

func newTestStore() *Store {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewStore(nil, log)
}

func TestStoreStartsLoading(t *testing.T) {
	st := newTestStore()

	snap := st.Snapshot()

	if snap.State != StateLoading {
		t.Fatalf("new store state = %v, want %v", snap.State, StateLoading)
	}
	if snap.Identity != nil {
		t.Fatalf("new store identity = %+v, want nil", snap.Identity)
	}
}

func TestStoreSetAuthenticated(t *testing.T) {
	st := newTestStore()
	id := entity.Identity{ID: "u1", Email: "admin@devblog.dev", IsAdmin: true}

	st.SetAuthenticated(context.Background(), id)

	snap := st.Snapshot()
	if snap.State != StateAuthenticated {
		t.Fatalf("state = %v, want %v", snap.State, StateAuthenticated)
	}
	if snap.Identity == nil || snap.Identity.Email != "admin@devblog.dev" || !snap.Identity.IsAdmin {
		t.Fatalf("identity = %+v, want the authenticated admin", snap.Identity)
	}
}

func TestStoreSetAnonymousClearsIdentity(t *testing.T) {
	st := newTestStore()
	st.SetAuthenticated(context.Background(), entity.Identity{ID: "u1", Email: "a@b.c"})

	st.SetAnonymous(context.Background())

	snap := st.Snapshot()
	if snap.State != StateAnonymous {
		t.Fatalf("state = %v, want %v", snap.State, StateAnonymous)
	}
	if snap.Identity != nil {
		t.Fatalf("identity = %+v, want nil", snap.Identity)
	}
}

func TestStoreSubscribeNotifiesOnChange(t *testing.T) {
	st := newTestStore()
	var got []Snapshot
	cancel := st.Subscribe(func(s Snapshot) { got = append(got, s) })
	defer cancel()

	st.SetAuthenticated(context.Background(), entity.Identity{ID: "u1", Email: "a@b.c"})
	st.SetAnonymous(context.Background())

	if len(got) != 2 {
		t.Fatalf("listener called %d times, want 2", len(got))
	}
	if got[0].State != StateAuthenticated || got[1].State != StateAnonymous {
		t.Fatalf("notifications = %v, %v; want authenticated then anonymous", got[0].State, got[1].State)
	}
}

func TestStoreSubscribeCancelStopsNotifications(t *testing.T) {
	st := newTestStore()
	calls := 0
	cancel := st.Subscribe(func(Snapshot) { calls++ })

	cancel()
	cancel() // safe to call twice
	st.SetAuthenticated(context.Background(), entity.Identity{ID: "u1"})

	if calls != 0 {
		t.Fatalf("cancelled listener called %d times, want 0", calls)
	}
}

func TestStoreSetAnonymousIsIdempotent(t *testing.T) {
	st := newTestStore()
	st.SetAuthenticated(context.Background(), entity.Identity{ID: "u1"})
	st.SetAnonymous(context.Background())

	calls := 0
	cancel := st.Subscribe(func(Snapshot) { calls++ })
	defer cancel()

	// A sign-out notification replay lands on an already-anonymous store.
	st.SetAnonymous(context.Background())

	if calls != 0 {
		t.Fatalf("replayed SetAnonymous notified %d times, want 0", calls)
	}
	if st.Snapshot().State != StateAnonymous {
		t.Fatalf("state = %v, want %v", st.Snapshot().State, StateAnonymous)
	}
}

func TestManagerGetCreatesLazily(t *testing.T) {
	m := NewManager(nil, logrus.New())

	if _, ok := m.Peek("sid-1"); ok {
		t.Fatal("Peek created a store")
	}

	st := m.Get("sid-1")
	if st.Snapshot().State != StateLoading {
		t.Fatalf("fresh store state = %v, want %v", st.Snapshot().State, StateLoading)
	}
	if again := m.Get("sid-1"); again != st {
		t.Fatal("Get returned a different store for the same sid")
	}

	m.Drop("sid-1")
	if _, ok := m.Peek("sid-1"); ok {
		t.Fatal("Drop did not remove the store")
	}
}
