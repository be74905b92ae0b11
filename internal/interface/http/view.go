package handlers

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/domain/entity"
	"github.com/devblog-app/devblog-api/internal/session"
)

// DefaultPostImage is shown on cards for posts saved without an image.
const DefaultPostImage = "https://images.unsplash.com/photo-1461749280684-dccba630e2f6?auto=format&fit=crop&w=800&q=80"

const dateLayout = "January 2, 2006"

// FormatDate renders timestamps the way the site displays them,
// e.g. "January 1, 2024".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// PostCard is one feed entry.
type PostCard struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Excerpt      string `json:"excerpt"`
	ImageURL     string `json:"image_url"`
	Date         string `json:"date"`
	CategoryName string `json:"category_name,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
}

func NewPostCard(p entity.Post) PostCard {
	card := PostCard{
		Title:    p.Title,
		Slug:     p.Slug,
		Excerpt:  excerpt(p.Content, 160),
		ImageURL: p.ImageURL,
		Date:     FormatDate(p.CreatedAt),
	}
	if card.ImageURL == "" {
		card.ImageURL = DefaultPostImage
	}
	if p.Category != nil {
		card.CategoryName = p.Category.Name
		card.CategorySlug = p.Category.Slug
	}
	return card
}

func NewPostCards(posts []entity.Post) []PostCard {
	cards := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, NewPostCard(p))
	}
	return cards
}

func excerpt(content string, max int) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= max {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// Pagination drives the Previous/Next control under the feed. TotalPages is
// floored at 1 for display so an empty feed still reads "Page 1 of 1".
type Pagination struct {
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	Label        string `json:"label"`
	PrevDisabled bool   `json:"prev_disabled"`
	NextDisabled bool   `json:"next_disabled"`
}

func NewPagination(page, totalPages int) Pagination {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	return Pagination{
		Page:         page,
		TotalPages:   totalPages,
		Label:        fmt.Sprintf("Page %d of %d", page, totalPages),
		PrevDisabled: page <= 1,
		NextDisabled: page >= totalPages,
	}
}

// FeedView is the payload for the home and category feed endpoints.
type FeedView struct {
	Posts        []PostCard `json:"posts"`
	CategoryName string     `json:"category_name,omitempty"`
	CategorySlug string     `json:"category_slug,omitempty"`
	Pagination   Pagination `json:"pagination"`
	Navbar       Navbar     `json:"navbar"`
}

func NewFeedView(res *application.FeedResult, nav Navbar) FeedView {
	view := FeedView{
		Posts:      NewPostCards(res.Posts),
		Pagination: NewPagination(res.Page, res.TotalPages),
		Navbar:     nav,
	}
	if res.Category != nil {
		view.CategoryName = res.Category.Name
		view.CategorySlug = res.Category.Slug
	}
	return view
}

// PostView is the detail page payload.
type PostView struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Content      string `json:"content"`
	ImageURL     string `json:"image_url"`
	Date         string `json:"date"`
	CategoryName string `json:"category_name,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
	Navbar       Navbar `json:"navbar"`
}

func NewPostView(p *entity.Post, nav Navbar) PostView {
	view := PostView{
		Title:    p.Title,
		Slug:     p.Slug,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		Date:     FormatDate(p.CreatedAt),
		Navbar:   nav,
	}
	if view.ImageURL == "" {
		view.ImageURL = DefaultPostImage
	}
	if p.Category != nil {
		view.CategoryName = p.Category.Name
		view.CategorySlug = p.Category.Slug
	}
	return view
}

// Navbar tells the client which nav links to show. The admin link and the
// sign-out button appear only for a signed-in admin; everyone else gets the
// login link.
type Navbar struct {
	SignedIn  bool   `json:"signed_in"`
	Email     string `json:"email,omitempty"`
	ShowAdmin bool   `json:"show_admin"`
	ShowLogin bool   `json:"show_login"`
}

func NewNavbar(snap session.Snapshot) Navbar {
	nav := Navbar{ShowLogin: true}
	if snap.State == session.StateAuthenticated && snap.Identity != nil {
		nav.SignedIn = true
		nav.Email = snap.Identity.Email
		nav.ShowAdmin = snap.Identity.IsAdmin
		nav.ShowLogin = false
	}
	return nav
}
