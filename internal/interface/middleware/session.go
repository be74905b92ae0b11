package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/session"
	"github.com/devblog-app/devblog-api/pkg/helpers"
)

// Session assigns every browser a stable sid cookie and extracts the access
// token for downstream handlers. An expired access token is exchanged for a
// fresh one using the refresh token cookie before the request proceeds.
func Session(svc *application.AuthService, inspector *helpers.TokenInspector, cookies *helpers.Manager, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie("sid")
		if err != nil || sid == "" {
			sid = uuid.NewString()
			cookies.SetSessionID(c, sid)
		}
		c.Set("sid", sid)

		access, _ := c.Cookie("access_token")
		if access != "" {
			if _, cerr := inspector.Claims(access); cerr != nil {
				access = ""
				refresh, _ := c.Cookie("refresh_token")
				if refresh != "" {
					if sess, rerr := svc.Refresh(c.Request.Context(), refresh); rerr == nil {
						access = sess.AccessToken
						cookies.SetPair(c, sess.AccessToken, sess.ExpiresAt, sess.RefreshToken)
					} else {
						log.WithError(rerr).Debug("token refresh failed")
						cookies.Clear(c)
					}
				}
			}
		}
		c.Set("access_token", access)
		c.Next()
	}
}

// CurrentSession returns the caller's session snapshot, resolving it against
// the gateway when the cached state is missing or disagrees with the cookies.
func CurrentSession(c *gin.Context, svc *application.AuthService) session.Snapshot {
	sid := c.GetString("sid")
	token := c.GetString("access_token")

	snap := svc.Sessions().Get(sid).Snapshot()
	switch {
	case snap.State == session.StateLoading:
		snap = svc.ResolveSession(c.Request.Context(), sid, token)
	case token == "" && snap.State == session.StateAuthenticated:
		snap = svc.ResolveSession(c.Request.Context(), sid, token)
	case token != "" && snap.State == session.StateAnonymous:
		snap = svc.ResolveSession(c.Request.Context(), sid, token)
	}
	return snap
}
