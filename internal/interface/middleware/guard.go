package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/session"
)

// RequireAdmin protects the admin surface. Anyone who is not a signed-in
// admin is sent to the login page; a still-loading session is resolved first
// so the decision is never made on incomplete state.
func RequireAdmin(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := CurrentSession(c, svc)
		if snap.State != session.StateAuthenticated || snap.Identity == nil || !snap.Identity.IsAdmin {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set("identity", snap.Identity)
		c.Next()
	}
}

// RedirectIfAdmin sends an already signed-in admin away from the login page.
func RedirectIfAdmin(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := CurrentSession(c, svc)
		if snap.State == session.StateAuthenticated && snap.Identity != nil && snap.Identity.IsAdmin {
			c.Redirect(http.StatusSeeOther, "/admin")
			c.Abort()
			return
		}
		c.Next()
	}
}
