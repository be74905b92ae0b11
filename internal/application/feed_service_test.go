package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/devblog-app/devblog-api/internal/gateway"
)

func seedFeed(data *fakeData, n int, categoryID string) {
	for i := 1; i <= n; i++ {
		data.add("posts", map[string]any{
			"id":          fmt.Sprintf("p%d", i),
			"title":       fmt.Sprintf("Post %d", i),
			"slug":        fmt.Sprintf("post-%d", i),
			"content":     "body",
			"created_at":  fmt.Sprintf("2024-01-%02dT10:00:00Z", i),
			"category_id": categoryID,
		})
	}
}

func TestFeedLoadFirstPage(t *testing.T) {
	data := newFakeData()
	data.add("categories", map[string]any{"id": "c1", "name": "React", "slug": "react"})
	seedFeed(data, 7, "c1")
	feed := NewFeedService(data, quietLogger())

	res, err := feed.Load(context.Background(), "", 1)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != PageSize {
		t.Fatalf("len(Posts) = %d, want %d", len(res.Posts), PageSize)
	}
	if res.TotalCount != 7 || res.TotalPages != 2 {
		t.Fatalf("TotalCount=%d TotalPages=%d, want 7 and 2", res.TotalCount, res.TotalPages)
	}
	// Newest first.
	if res.Posts[0].Slug != "post-7" {
		t.Fatalf("first post = %s, want post-7", res.Posts[0].Slug)
	}
	if res.Posts[0].Category == nil || res.Posts[0].Category.Slug != "react" {
		t.Fatalf("embedded category = %+v, want react", res.Posts[0].Category)
	}
}

func TestFeedLoadLastPageWindow(t *testing.T) {
	data := newFakeData()
	seedFeed(data, 7, "")
	feed := NewFeedService(data, quietLogger())

	res, err := feed.Load(context.Background(), "", 2)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 1 || res.Posts[0].Slug != "post-1" {
		t.Fatalf("page 2 = %+v, want just post-1", res.Posts)
	}
}

func TestFeedSinglePostMeansOnePage(t *testing.T) {
	data := newFakeData()
	seedFeed(data, 1, "")
	feed := NewFeedService(data, quietLogger())

	res, err := feed.Load(context.Background(), "", 1)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.TotalPages != 1 {
		t.Fatalf("TotalPages = %d, want 1", res.TotalPages)
	}
}

func TestFeedCategoryScope(t *testing.T) {
	data := newFakeData()
	data.add("categories", map[string]any{"id": "c1", "name": "React", "slug": "react"})
	data.add("categories", map[string]any{"id": "c2", "name": "TypeScript", "slug": "typescript"})
	seedFeed(data, 3, "c1")
	data.add("posts", map[string]any{
		"id": "px", "title": "Other", "slug": "other",
		"created_at": "2024-02-01T10:00:00Z", "category_id": "c2",
	})
	feed := NewFeedService(data, quietLogger())

	res, err := feed.Load(context.Background(), "react", 1)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Category == nil || res.Category.Name != "React" {
		t.Fatalf("Category = %+v, want React", res.Category)
	}
	if len(res.Posts) != 3 || res.TotalCount != 3 {
		t.Fatalf("got %d posts, total %d; want 3 and 3", len(res.Posts), res.TotalCount)
	}
}

func TestFeedCategoryFetchedOncePerScope(t *testing.T) {
	data := newFakeData()
	data.add("categories", map[string]any{"id": "c1", "name": "React", "slug": "react"})
	seedFeed(data, 3, "c1")
	feed := NewFeedService(data, quietLogger())

	for page := 1; page <= 3; page++ {
		if _, err := feed.Load(context.Background(), "react", page); err != nil {
			t.Fatalf("Load page %d: %v", page, err)
		}
	}

	categoryQueries := 0
	for _, table := range data.queries {
		if table == "categories" {
			categoryQueries++
		}
	}
	if categoryQueries != 1 {
		t.Fatalf("categories queried %d times across one scope, want 1", categoryQueries)
	}
}

func TestFeedUnknownCategory(t *testing.T) {
	data := newFakeData()
	feed := NewFeedService(data, quietLogger())

	_, err := feed.Load(context.Background(), "nope", 1)

	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
}

func TestFeedFetchErrorKeepsPreviousList(t *testing.T) {
	data := newFakeData()
	seedFeed(data, 2, "")
	feed := NewFeedService(data, quietLogger())
	if _, err := feed.Load(context.Background(), "", 1); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	data.mu.Lock()
	data.countErr = errors.New("gateway down")
	data.mu.Unlock()

	res, err := feed.Load(context.Background(), "", 1)

	// Loading still completes; the previous window stays up.
	if err != nil {
		t.Fatalf("err = %v, want nil on a failed fetch", err)
	}
	if len(res.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want the previous 2", len(res.Posts))
	}
}

func TestFeedStaleCompletionIsDiscarded(t *testing.T) {
	data := newFakeData()
	seedFeed(data, 7, "")
	feed := NewFeedService(data, quietLogger())

	release := make(chan struct{})
	started := make(chan struct{})
	var blocked atomic.Bool
	data.queryHook = func(q *gateway.Query) {
		if q.Table == "posts" && blocked.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
	}

	var wg sync.WaitGroup
	var slowRes *FeedResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowRes, _ = feed.Load(context.Background(), "", 1)
	}()

	// The newer request completes while the first is still in flight.
	<-started
	fastRes, err := feed.Load(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	close(release)
	wg.Wait()

	// The slow completion must not overwrite the newer window.
	if len(fastRes.Posts) != 1 || fastRes.Posts[0].Slug != "post-1" {
		t.Fatalf("newer window = %+v, want just post-1", fastRes.Posts)
	}
	if len(slowRes.Posts) != 1 || slowRes.Posts[0].Slug != "post-1" {
		t.Fatalf("stale request returned %+v, want the applied newer window", slowRes.Posts)
	}
}
