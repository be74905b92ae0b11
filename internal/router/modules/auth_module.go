package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/container"
	handlers "github.com/devblog-app/devblog-api/internal/interface/http"
	"github.com/devblog-app/devblog-api/internal/interface/middleware"
)

// AuthModule wires the login page and the sign-in/sign-out endpoints.
// GET /login redirects signed-in admins to /admin; POST /login is rate
// limited per IP because it fronts the gateway's credential check.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    *application.AuthService
}

func NewAuthModule(h *handlers.AuthHandler, auth *application.AuthService) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil) // 10 req/min per IP

	rg.GET("/login", middleware.RedirectIfAdmin(m.Auth), m.Handler.LoginPage)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/logout", m.Handler.Logout)
}
