package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/internal/session"
)

// emptyData has no rows at all: every single-row query misses, every list
// query returns nothing.
type emptyData struct{}

func (emptyData) Query(_ context.Context, q *gateway.Query, dest any) error {
	if q.SingleRow {
		return gateway.ErrNoRows
	}
	return json.Unmarshal([]byte("[]"), dest)
}

func (emptyData) Count(context.Context, *gateway.Query) (int64, error) { return 0, nil }

func (emptyData) Insert(context.Context, string, map[string]any) error { return nil }

func newFeedRouter(data gateway.Data) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()
	authSvc := application.NewAuthService(newScriptedAuth(), data, session.NewManager(nil, log), log)
	feedSvc := application.NewFeedService(data, log)
	handler := NewFeedHandler(feedSvc, authSvc, log)

	r := gin.New()
	r.GET("/", handler.Home)
	r.GET("/category/:slug", handler.Category)
	return r
}

func TestCategoryFeedUnknownSlugIs404(t *testing.T) {
	r := newFeedRouter(emptyData{})

	req := httptest.NewRequest(http.MethodGet, "/category/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := messageOf(t, w); got != "Category not found" {
		t.Fatalf("message = %q, want %q", got, "Category not found")
	}
}

func TestHomeFeedEmptyStillRendersOnePage(t *testing.T) {
	r := newFeedRouter(emptyData{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Data FeedView `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Pagination.Label != "Page 1 of 1" {
		t.Fatalf("label = %q, want %q", resp.Data.Pagination.Label, "Page 1 of 1")
	}
	if !resp.Data.Navbar.ShowLogin {
		t.Fatal("anonymous navbar should show the login link")
	}
}
