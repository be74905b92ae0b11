package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/interface/middleware"
	"github.com/devblog-app/devblog-api/pkg/response"
)

type FeedHandler struct {
	feed *application.FeedService
	auth *application.AuthService
	log  *logrus.Logger
}

func NewFeedHandler(feed *application.FeedService, auth *application.AuthService, log *logrus.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, auth: auth, log: log}
}

// Home serves the all-posts feed, six posts per page.
func (h *FeedHandler) Home(c *gin.Context) {
	h.serve(c, "")
}

// Category serves the feed scoped to one category slug.
func (h *FeedHandler) Category(c *gin.Context) {
	h.serve(c, c.Param("slug"))
}

func (h *FeedHandler) serve(c *gin.Context, scopeSlug string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	res, err := h.feed.Load(c.Request.Context(), scopeSlug, page)
	if err != nil {
		if errors.Is(err, application.ErrCategoryNotFound) {
			response.Error[any](c, http.StatusNotFound, "Category not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "could not load posts", nil)
		return
	}

	nav := NewNavbar(middleware.CurrentSession(c, h.auth))
	response.Success(c, http.StatusOK, NewFeedView(res, nav), "feed", gin.H{
		"page":        res.Page,
		"total_count": res.TotalCount,
	})
}
