package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/internal/interface/middleware"
	"github.com/devblog-app/devblog-api/pkg/helpers"
	"github.com/devblog-app/devblog-api/pkg/response"
	"github.com/devblog-app/devblog-api/pkg/validation"
)

// Messages shown on the login form. Credential rejections and transport
// failures read differently on purpose; the raw gateway error never reaches
// the user.
const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgSignInFailed       = "An error occurred while signing in. Please try again later."
)

type AuthHandler struct {
	svc     *application.AuthService
	cookies *helpers.Manager
	log     *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, cookies *helpers.Manager, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies, log: log}
}

// LoginPage returns the login view state. A signed-in admin never sees this;
// the route guard redirects them to /admin first.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	snap := middleware.CurrentSession(c, h.svc)
	response.Success(c, http.StatusOK, gin.H{"navbar": NewNavbar(snap)}, "login", nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates the form locally, then delegates credential verification to
// the gateway. Validation failures never reach the network.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if msg := validation.ValidateLogin(req.Email, req.Password); msg != "" {
		response.Error[any](c, http.StatusUnprocessableEntity, msg, nil)
		return
	}

	sess, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, msgInvalidCredentials, nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, msgSignInFailed, nil)
		return
	}

	h.cookies.SetPair(c, sess.AccessToken, sess.ExpiresAt, sess.RefreshToken)

	// Resolve now so the redirect target sees the fresh session instead of
	// waiting for the SIGNED_IN notification.
	sid := c.GetString("sid")
	h.svc.ResolveSession(c.Request.Context(), sid, sess.AccessToken)

	response.Success(c, http.StatusOK, gin.H{"redirect": "/admin"}, "signed in", nil)
}

// Logout signs the session out at the gateway, clears the auth cookies and
// sends the browser back to the home page.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetString("sid")
	token := c.GetString("access_token")

	if err := h.svc.SignOut(c.Request.Context(), sid, token); err != nil {
		h.log.WithError(err).Warn("logout failed")
	}
	h.cookies.Clear(c)
	c.Redirect(http.StatusSeeOther, "/")
}
