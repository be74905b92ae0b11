package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/domain/entity"
	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/internal/interface/middleware"
	"github.com/devblog-app/devblog-api/pkg/helpers"
	"github.com/devblog-app/devblog-api/pkg/response"
	"github.com/devblog-app/devblog-api/pkg/validation"
)

const postCacheTTL = 60 * time.Second

type PostHandler struct {
	posts *application.PostService
	auth  *application.AuthService
	rdb   *redis.Client
	log   *logrus.Logger
}

func NewPostHandler(posts *application.PostService, auth *application.AuthService, rdb *redis.Client, log *logrus.Logger) *PostHandler {
	return &PostHandler{posts: posts, auth: auth, rdb: rdb, log: log}
}

func postCacheKey(slug string) string { return "cache:post:" + slug }

// Detail serves one post by slug. Hot posts are served from a short-lived
// Redis cache; a miss falls through to the gateway.
func (h *PostHandler) Detail(c *gin.Context) {
	slug := c.Param("slug")
	nav := NewNavbar(middleware.CurrentSession(c, h.auth))

	if h.rdb != nil {
		var cached entity.Post
		if ok, err := helpers.RedisGetJSON(c.Request.Context(), h.rdb, postCacheKey(slug), &cached); err == nil && ok {
			response.Success(c, http.StatusOK, NewPostView(&cached, nav), "post", nil)
			return
		}
	}

	post, err := h.posts.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, application.ErrPostNotFound) {
			response.Error[any](c, http.StatusNotFound, "Post not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "could not load post", nil)
		return
	}

	if h.rdb != nil {
		if err := helpers.RedisSetJSON(c.Request.Context(), h.rdb, postCacheKey(slug), post, postCacheTTL); err != nil {
			h.log.WithError(err).Debug("post cache write failed")
		}
	}
	response.Success(c, http.StatusOK, NewPostView(post, nav), "post", nil)
}

// Dashboard serves the admin page state: recent posts and the category
// choices for the create form. The route guard has already established the
// caller is an admin.
func (h *PostHandler) Dashboard(c *gin.Context) {
	identity := c.MustGet("identity").(*entity.Identity)

	recent, err := h.posts.Recent(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("loading recent posts failed")
		recent = nil
	}
	cats, err := h.posts.Categories(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("loading categories failed")
		cats = nil
	}

	response.Success(c, http.StatusOK, gin.H{
		"email":      identity.Email,
		"recent":     NewPostCards(recent),
		"categories": cats,
		"navbar":     NewNavbar(middleware.CurrentSession(c, h.auth)),
	}, "dashboard", nil)
}

type createPostRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content"`
	CategoryID string `json:"category_id" binding:"required,uuid"`
	ImageURL   string `json:"image_url" binding:"omitempty,url"`
}

// Create publishes a new post authored by the signed-in admin. Failures come
// back to the form instead of being swallowed.
func (h *PostHandler) Create(c *gin.Context) {
	identity := c.MustGet("identity").(*entity.Identity)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	ctx := c.Request.Context()
	if token := c.GetString("access_token"); token != "" {
		ctx = gateway.WithAccessToken(ctx, token)
	}

	post, err := h.posts.Create(ctx, application.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		AuthorID:   identity.ID,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, application.ErrTitleRequired) {
			response.Error[any](c, http.StatusUnprocessableEntity, "Title is required", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "Could not publish the post. Please try again.", nil)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"slug": post.Slug, "redirect": "/post/" + post.Slug}, "post created", nil)
}

// Upload stores a post image and returns its public URL for the create form.
func (h *PostHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "image file is required", nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read upload", nil)
		return
	}
	defer func() { _ = src.Close() }()

	url, err := h.posts.UploadImage(c.Request.Context(), src, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		h.log.WithError(err).Error("image upload failed")
		response.Error[any](c, http.StatusInternalServerError, "upload failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": url}, "uploaded", nil)
}

// Search queries the posts index.
func (h *PostHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.posts.Search(c.Request.Context(), q, size)
	if err != nil {
		h.log.WithError(err).Error("search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "results", gin.H{"count": len(hits)})
}
