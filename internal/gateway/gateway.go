// Package gateway models the hosted backend service the blog delegates to:
// an auth subsystem (password sign-in, session retrieval, auth-state change
// notifications) and a data subsystem (table-scoped queries and inserts).
// The service itself is an external collaborator; this package only carries
// the client surface and its adapters.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials carries the auth service's own wording so callers
	// can match on it without string comparison. Interpretation for display is
	// the caller's job.
	ErrInvalidCredentials = errors.New("Invalid login credentials")

	// ErrNoRows is returned by single-row queries that matched nothing.
	ErrNoRows = errors.New("gateway: no rows matched")

	// ErrNotStarted is returned when the client is used before Start.
	ErrNotStarted = errors.New("gateway: client not started")
)

// Principal is the authenticated user as the auth service reports it.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a token pair issued by the auth service.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"-"`
	User         Principal `json:"user"`
}

// Auth is the gateway's auth subsystem.
type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	// GetUser fetches the current principal for the token from the auth
	// service. A nil principal with a nil error means "no session".
	GetUser(ctx context.Context, accessToken string) (*Principal, error)
	// GetSession inspects the token locally and reports the session it
	// describes, or false when the token is absent, malformed or expired.
	GetSession(accessToken string) (*Session, bool)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	OnAuthStateChange(fn Listener) *Subscription
}

// Data is the gateway's data subsystem. Expected failures come back as error
// returns; adapters never panic on them. Calls that act on behalf of a signed
// in user read the access token from the context (WithAccessToken).
type Data interface {
	Query(ctx context.Context, q *Query, dest any) error
	Count(ctx context.Context, q *Query) (int64, error)
	Insert(ctx context.Context, table string, record map[string]any) error
}

// Client bundles the two subsystems behind an explicit lifecycle. Nothing
// happens at package load; construction is inert until Start.
type Client struct {
	Auth Auth
	Data Data

	log     *logrus.Logger
	broker  *Broker
	started bool
}

// HealthChecker is implemented by adapters that can verify connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func NewClient(auth Auth, data Data, broker *Broker, log *logrus.Logger) *Client {
	return &Client{Auth: auth, Data: data, broker: broker, log: log}
}

// Start verifies the configured endpoints are reachable and marks the client
// usable. It is called once from main, never from init.
func (c *Client) Start(ctx context.Context) error {
	if hc, ok := c.Auth.(HealthChecker); ok {
		if err := hc.Health(ctx); err != nil {
			return err
		}
	}
	if hc, ok := c.Data.(HealthChecker); ok {
		if err := hc.Health(ctx); err != nil {
			return err
		}
	}
	c.started = true
	c.log.Info("gateway client started")
	return nil
}

// Started reports whether Start completed.
func (c *Client) Started() bool { return c.started }

// Stop closes the auth-state change stream. Subscriptions held by listeners
// become no-ops.
func (c *Client) Stop() {
	if c.broker != nil {
		c.broker.Close()
	}
	c.started = false
	c.log.Info("gateway client stopped")
}

type ctxKey int

const accessTokenKey ctxKey = 0

// WithAccessToken attaches the acting user's access token to the context so
// data calls run with that user's authority.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFrom returns the acting token, if any.
func AccessTokenFrom(ctx context.Context) string {
	if v, ok := ctx.Value(accessTokenKey).(string); ok {
		return v
	}
	return ""
}
