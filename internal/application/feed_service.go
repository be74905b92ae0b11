package application

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/domain/entity"
	"github.com/devblog-app/devblog-api/internal/gateway"
)

// PageSize is the fixed feed window; both the count query and the range
// query assume it.
const PageSize = 6

// ErrCategoryNotFound means the scope slug matched no category; callers
// render a dedicated not-found view for it.
var ErrCategoryNotFound = errors.New("category not found")

// FeedResult is one loaded window plus the totals the pagination control
// derives its state from.
type FeedResult struct {
	Posts      []entity.Post
	Category   *entity.Category // nil for the home scope
	Page       int
	TotalCount int64
	TotalPages int
}

// FeedService loads bounded windows of posts for a scope (all posts, or one
// category) and keeps the last applied window so a failed fetch degrades to
// the previous list instead of an error page. Completions are applied
// last-request-wins: a slow response started before a newer request is
// discarded by sequence number.
type FeedService struct {
	data gateway.Data
	log  *logrus.Logger

	mu        sync.Mutex
	seq       uint64
	applied   uint64
	lastScope string
	category  *entity.Category
	posts     []entity.Post
	total     int64
}

func NewFeedService(data gateway.Data, log *logrus.Logger) *FeedService {
	return &FeedService{data: data, log: log}
}

// Load fetches page pageNumber of the scope. scopeSlug is empty for the home
// feed. Category metadata is looked up once per scope change; the count and
// window queries run for every (scope, page) pair. Fetch errors are logged
// and the previous (or empty) list is returned with no error — loading still
// completes. Only an unknown category surfaces as ErrCategoryNotFound.
func (f *FeedService) Load(ctx context.Context, scopeSlug string, pageNumber int) (*FeedResult, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}

	f.mu.Lock()
	f.seq++
	seq := f.seq
	category := f.category
	scopeChanged := scopeSlug != f.lastScope
	f.mu.Unlock()

	if scopeSlug == "" {
		category = nil
	} else if scopeChanged || category == nil {
		var cat entity.Category
		q := gateway.From("categories").Select("*").Eq("slug", scopeSlug).Single()
		if err := f.data.Query(ctx, q, &cat); err != nil {
			if errors.Is(err, gateway.ErrNoRows) {
				return nil, ErrCategoryNotFound
			}
			f.log.WithError(err).WithField("slug", scopeSlug).Error("fetching category failed")
			return f.previous(pageNumber), nil
		}
		category = &cat
	}

	countQ := gateway.From("posts")
	listQ := gateway.From("posts").
		Select("*").
		Embed("categories", "name", "slug").
		OrderDesc("created_at").
		Range((pageNumber-1)*PageSize, pageNumber*PageSize-1)
	if category != nil {
		countQ.Eq("category_id", category.ID)
		listQ.Eq("category_id", category.ID)
	}

	total, err := f.data.Count(ctx, countQ)
	if err != nil {
		f.log.WithError(err).Error("counting posts failed")
		return f.previous(pageNumber), nil
	}

	var posts []entity.Post
	if err := f.data.Query(ctx, listQ, &posts); err != nil {
		f.log.WithError(err).Error("fetching posts failed")
		return f.previous(pageNumber), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq < f.applied {
		// A newer request already applied its window; keep it.
		return f.result(pageNumber), nil
	}
	f.applied = seq
	f.lastScope = scopeSlug
	f.category = category
	f.posts = posts
	f.total = total
	return f.result(pageNumber), nil
}

func (f *FeedService) previous(page int) *FeedResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result(page)
}

func (f *FeedService) result(page int) *FeedResult {
	return &FeedResult{
		Posts:      f.posts,
		Category:   f.category,
		Page:       page,
		TotalCount: f.total,
		TotalPages: int((f.total + PageSize - 1) / PageSize),
	}
}
