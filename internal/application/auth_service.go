package application

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/domain/entity"
	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/internal/session"
)

// AuthService is the single writer of session state. It resolves identities
// against the gateway, exposes sign-in/sign-out, and keeps every bound
// session fresh by re-resolving on each gateway auth-state notification —
// the store is never updated from a local guess.
type AuthService struct {
	auth     gateway.Auth
	data     gateway.Data
	sessions *session.Manager
	log      *logrus.Logger

	mu     sync.Mutex
	binds  map[string]map[string]struct{} // user id -> session ids
	tokens map[string]string              // session id -> last seen access token

	sub       *gateway.Subscription
	closeOnce sync.Once
}

func NewAuthService(auth gateway.Auth, data gateway.Data, sessions *session.Manager, log *logrus.Logger) *AuthService {
	return &AuthService{
		auth:     auth,
		data:     data,
		sessions: sessions,
		log:      log,
		binds:    make(map[string]map[string]struct{}),
		tokens:   make(map[string]string),
	}
}

// Start subscribes to the gateway's auth-state change stream. Must be called
// once after the gateway client has started.
func (a *AuthService) Start() {
	a.sub = a.auth.OnAuthStateChange(a.handleEvent)
}

// Close unsubscribes from the stream. Safe to call more than once; the
// subscription is released at most once.
func (a *AuthService) Close() {
	a.closeOnce.Do(func() {
		if a.sub != nil {
			a.sub.Unsubscribe()
		}
	})
}

// Sessions exposes the per-browser-session store registry to middleware.
func (a *AuthService) Sessions() *session.Manager { return a.sessions }

// ResolveSession fetches the current principal for the token from the
// gateway and updates the sid's store accordingly. The privilege flag comes
// from a second lookup against the users table; if that lookup fails the
// principal is kept but treated as non-admin. Identity is fail-open,
// privilege is fail-closed.
func (a *AuthService) ResolveSession(ctx context.Context, sid, accessToken string) session.Snapshot {
	store := a.sessions.Get(sid)

	if accessToken == "" {
		a.unbind(sid)
		store.SetAnonymous(ctx)
		snap := store.Snapshot()
		// Nothing identifies this session; keeping a store per minted sid
		// would grow the registry on every cookie-less request.
		a.sessions.Drop(sid)
		return snap
	}

	principal, err := a.auth.GetUser(ctx, accessToken)
	if err != nil {
		a.log.WithError(err).Error("session check failed")
		a.unbind(sid)
		store.SetAnonymous(ctx)
		return store.Snapshot()
	}
	if principal == nil {
		a.unbind(sid)
		store.SetAnonymous(ctx)
		return store.Snapshot()
	}

	isAdmin := false
	var row struct {
		IsAdmin bool `json:"is_admin"`
	}
	q := gateway.From("users").Select("is_admin").Eq("id", principal.ID).Single()
	if err := a.data.Query(gateway.WithAccessToken(ctx, accessToken), q, &row); err != nil {
		a.log.WithError(err).WithField("user_id", principal.ID).Error("fetching user record failed")
	} else {
		isAdmin = row.IsAdmin
	}

	identity := entity.Identity{ID: principal.ID, Email: principal.Email, IsAdmin: isAdmin}
	a.bind(sid, principal.ID, accessToken)
	store.SetAuthenticated(ctx, identity)
	return store.Snapshot()
}

// SignIn delegates credential verification to the gateway. Errors propagate
// unchanged; interpretation is the caller's job. Session state is not
// mutated here — the SIGNED_IN notification drives that, so completion and
// propagation are deliberately decoupled.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (*gateway.Session, error) {
	sess, err := a.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		a.log.WithError(err).WithField("email", email).Warn("sign-in failed")
		return nil, err
	}
	return sess, nil
}

// SignOut delegates to the gateway and, on success, resets the sid's store
// to anonymous immediately rather than waiting for the SIGNED_OUT
// notification. The later notification replays against an already-anonymous
// store, which is a no-op.
func (a *AuthService) SignOut(ctx context.Context, sid, accessToken string) error {
	if err := a.auth.SignOut(ctx, accessToken); err != nil {
		a.log.WithError(err).Error("sign-out failed")
		return err
	}
	a.unbind(sid)
	a.sessions.Get(sid).SetAnonymous(ctx)
	return nil
}

// Refresh exchanges a refresh token for a fresh session.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*gateway.Session, error) {
	return a.auth.RefreshSession(ctx, refreshToken)
}

// handleEvent re-resolves every session bound to the affected user. Each
// notification triggers a full resolution against the gateway; a sign-out
// comes back anonymous, a privilege change comes back with the new flag.
func (a *AuthService) handleEvent(e gateway.AuthEvent) {
	if e.UserID == "" {
		return
	}
	a.mu.Lock()
	sids := make(map[string]string) // sid -> token to resolve with
	for sid := range a.binds[e.UserID] {
		token := a.tokens[sid]
		if e.Type == gateway.TokenRefreshed && e.Session != nil {
			token = e.Session.AccessToken
		}
		sids[sid] = token
	}
	a.mu.Unlock()

	for sid, token := range sids {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a.ResolveSession(ctx, sid, token)
		cancel()
	}
}

func (a *AuthService) bind(sid, uid, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.binds[uid] == nil {
		a.binds[uid] = make(map[string]struct{})
	}
	a.binds[uid][sid] = struct{}{}
	a.tokens[sid] = token
}

func (a *AuthService) unbind(sid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, sid)
	for uid, sids := range a.binds {
		delete(sids, sid)
		if len(sids) == 0 {
			delete(a.binds, uid)
		}
	}
}
