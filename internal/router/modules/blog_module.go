package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/container"
	handlers "github.com/devblog-app/devblog-api/internal/interface/http"
	"github.com/devblog-app/devblog-api/internal/interface/middleware"
)

// BlogModule wires the public reading surface and the guarded admin surface.
// Public: GET /, GET /category/:slug, GET /post/:slug, GET /api/posts/search
// Admin:  GET /admin, POST /admin/posts, POST /admin/uploads
type BlogModule struct {
	Feed  *handlers.FeedHandler
	Posts *handlers.PostHandler
	Auth  *application.AuthService
}

func NewBlogModule(feed *handlers.FeedHandler, posts *handlers.PostHandler, auth *application.AuthService) *BlogModule {
	return &BlogModule{Feed: feed, Posts: posts, Auth: auth}
}

func (m *BlogModule) Register(rg *gin.RouterGroup) {
	readLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil)
	searchLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/", readLimiter, m.Feed.Home)
	rg.GET("/category/:slug", readLimiter, m.Feed.Category)
	rg.GET("/post/:slug", readLimiter, m.Posts.Detail)
	rg.GET("/api/posts/search", searchLimiter, m.Posts.Search)

	admin := rg.Group("/admin")
	admin.Use(middleware.RequireAdmin(m.Auth))
	{
		admin.GET("", m.Posts.Dashboard)
		admin.POST("/posts", m.Posts.Create)
		admin.POST("/uploads", m.Posts.Upload)
	}
}
