package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/pkg/helpers"
)

// Auth speaks the hosted service's auth API. Successful sign-in, sign-out and
// refresh calls emit auth-state change events on the shared broker.
type Auth struct {
	base   string
	key    string
	http   *http.Client
	broker *gateway.Broker
	tokens *helpers.TokenInspector
	log    *logrus.Logger
}

func NewAuth(cfg Config, broker *gateway.Broker, tokens *helpers.TokenInspector) *Auth {
	return &Auth{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		key:    cfg.AnonKey,
		http:   cfg.client(),
		broker: broker,
		tokens: tokens,
		log:    cfg.Logger,
	}
}

var _ gateway.Auth = (*Auth)(nil)

type sessionPayload struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresIn    int               `json:"expires_in"`
	User         gateway.Principal `json:"user"`
}

func (p sessionPayload) session() *gateway.Session {
	return &gateway.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(p.ExpiresIn) * time.Second),
		User:         p.User,
	}
}

// Health verifies the auth endpoint responds at all.
func (a *Auth) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/auth/v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", a.key)
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return decodeError(resp.StatusCode, resp.Body)
	}
	return nil
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	payload, err := a.tokenGrant(ctx, "password", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	sess := payload.session()
	a.broker.Emit(gateway.AuthEvent{Type: gateway.SignedIn, UserID: sess.User.ID, Session: sess})
	return sess, nil
}

func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (*gateway.Session, error) {
	payload, err := a.tokenGrant(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	sess := payload.session()
	a.broker.Emit(gateway.AuthEvent{Type: gateway.TokenRefreshed, UserID: sess.User.ID, Session: sess})
	return sess, nil
}

func (a *Auth) tokenGrant(ctx context.Context, grant string, body map[string]string) (*sessionPayload, error) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/auth/v1/token?grant_type="+grant, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", a.key)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp.StatusCode, resp.Body)
		if apiErr.Message == gateway.ErrInvalidCredentials.Error() {
			return nil, gateway.ErrInvalidCredentials
		}
		return nil, apiErr
	}
	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SignOut revokes the token's session. A token the service no longer knows
// counts as success: the session is gone either way, and the repeated
// SIGNED_OUT emission is harmless to idempotent listeners.
func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", a.key)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
		return decodeError(resp.StatusCode, resp.Body)
	}
	uid := ""
	if claims, err := a.tokens.Claims(accessToken); err == nil {
		uid = claims.Subject
	}
	a.broker.Emit(gateway.AuthEvent{Type: gateway.SignedOut, UserID: uid})
	return nil
}

func (a *Auth) GetUser(ctx context.Context, accessToken string) (*gateway.Principal, error) {
	if accessToken == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", a.key)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode >= 300:
		return nil, decodeError(resp.StatusCode, resp.Body)
	}
	var p gateway.Principal
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *Auth) GetSession(accessToken string) (*gateway.Session, bool) {
	if accessToken == "" {
		return nil, false
	}
	claims, err := a.tokens.Claims(accessToken)
	if err != nil {
		return nil, false
	}
	sess := &gateway.Session{
		AccessToken: accessToken,
		User:        gateway.Principal{ID: claims.Subject, Email: claims.Email},
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, true
}

func (a *Auth) OnAuthStateChange(fn gateway.Listener) *gateway.Subscription {
	return a.broker.Subscribe(fn)
}
