package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/domain/entity"
	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/pkg/helpers"
	"github.com/devblog-app/devblog-api/pkg/mailer"
	"github.com/devblog-app/devblog-api/pkg/slug"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrPostNotFound  = errors.New("post not found")
)

// PostService covers the admin surface (create, recent posts, categories,
// image upload) and the public detail fetch. Search indexing and publish
// notifications are best-effort: their failure never fails the write.
type PostService struct {
	data gateway.Data
	log  *logrus.Logger

	ES        *elasticsearch.Client
	ESIndex   string
	Pub       *helpers.RabbitPublisher
	GCS       *storage.Client
	GCSBucket string
}

func NewPostService(data gateway.Data, log *logrus.Logger) *PostService {
	return &PostService{data: data, log: log}
}

type CreatePostInput struct {
	Title      string
	Content    string
	CategoryID string
	AuthorID   string
	ImageURL   string
}

// Create derives the slug from the title, resolves collisions with a numeric
// suffix, and inserts the post with the acting admin as author. Failures are
// logged and returned to the caller for display.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*entity.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	postSlug := s.uniqueSlug(ctx, slug.Make(title))

	post := &entity.Post{
		ID:         uuid.NewString(),
		Title:      title,
		Slug:       postSlug,
		Content:    in.Content,
		ImageURL:   in.ImageURL,
		CreatedAt:  time.Now().UTC(),
		CategoryID: in.CategoryID,
		AuthorID:   in.AuthorID,
	}
	record := map[string]any{
		"id":          post.ID,
		"title":       post.Title,
		"slug":        post.Slug,
		"content":     post.Content,
		"category_id": post.CategoryID,
		"author_id":   post.AuthorID,
	}
	if post.ImageURL != "" {
		record["image_url"] = post.ImageURL
	}
	if err := s.data.Insert(ctx, "posts", record); err != nil {
		s.log.WithError(err).WithField("slug", post.Slug).Error("creating post failed")
		return nil, err
	}

	_ = s.indexPost(ctx, post)
	s.publishPublished(ctx, post)
	return post, nil
}

// uniqueSlug appends -2, -3, ... until the slug matches no existing post.
// If the collision check itself fails the base slug is used; the write is
// not blocked on it.
func (s *PostService) uniqueSlug(ctx context.Context, base string) string {
	candidate := base
	for i := 2; ; i++ {
		n, err := s.data.Count(ctx, gateway.From("posts").Eq("slug", candidate))
		if err != nil {
			s.log.WithError(err).WithField("slug", candidate).Warn("slug collision check failed")
			return base
		}
		if n == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetBySlug fetches one post with its category embedded. Duplicate slugs are
// broken newest-first so the route resolves deterministically.
func (s *PostService) GetBySlug(ctx context.Context, postSlug string) (*entity.Post, error) {
	var posts []entity.Post
	q := gateway.From("posts").
		Select("*").
		Embed("categories", "name", "slug").
		Eq("slug", postSlug).
		OrderDesc("created_at").
		Range(0, 0)
	if err := s.data.Query(ctx, q, &posts); err != nil {
		s.log.WithError(err).WithField("slug", postSlug).Error("fetching post failed")
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}
	return &posts[0], nil
}

// Recent returns every post newest-first for the admin dashboard.
func (s *PostService) Recent(ctx context.Context) ([]entity.Post, error) {
	var posts []entity.Post
	q := gateway.From("posts").Select("*").OrderDesc("created_at")
	if err := s.data.Query(ctx, q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Categories returns all categories ordered by name, for the create form.
func (s *PostService) Categories(ctx context.Context) ([]entity.Category, error) {
	var cats []entity.Category
	q := gateway.From("categories").Select("*").Order("name")
	if err := s.data.Query(ctx, q, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// UploadImage stores a post image and returns its public URL.
func (s *PostService) UploadImage(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("image storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("posts", uuid.NewString()+ext))
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}

// Search runs a multi_match over title and content in the posts index.
func (s *PostService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "content"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *PostService) indexPost(ctx context.Context, p *entity.Post) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"slug":        p.Slug,
		"content":     p.Content,
		"category_id": p.CategoryID,
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.log.WithError(err).WithField("post_id", p.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.log.WithField("status", res.Status()).WithField("post_id", p.ID).Warn("es index response error")
	}
	return nil
}

func (s *PostService) publishPublished(ctx context.Context, p *entity.Post) {
	if s.Pub == nil {
		return
	}
	job := mailer.PostPublishedJob{
		PostID:      p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		CategoryID:  p.CategoryID,
		PublishedAt: p.CreatedAt,
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.log.WithError(err).WithField("post_id", p.ID).Warn("publishing post event failed")
	}
}
