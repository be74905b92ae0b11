package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/devblog-app/devblog-api/internal/domain/entity"
	"github.com/devblog-app/devblog-api/internal/session"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)

	if got := FormatDate(ts); got != "January 1, 2024" {
		t.Fatalf("FormatDate = %q, want %q", got, "January 1, 2024")
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		totalPages int
		wantLabel  string
		wantPrev   bool
		wantNext   bool
	}{
		{name: "first of many", page: 1, totalPages: 3, wantLabel: "Page 1 of 3", wantPrev: true, wantNext: false},
		{name: "middle", page: 2, totalPages: 3, wantLabel: "Page 2 of 3", wantPrev: false, wantNext: false},
		{name: "last", page: 3, totalPages: 3, wantLabel: "Page 3 of 3", wantPrev: false, wantNext: true},
		{name: "single page", page: 1, totalPages: 1, wantLabel: "Page 1 of 1", wantPrev: true, wantNext: true},
		{name: "empty feed floors at one", page: 1, totalPages: 0, wantLabel: "Page 1 of 1", wantPrev: true, wantNext: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := NewPagination(test.page, test.totalPages)
			if got.Label != test.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, test.wantLabel)
			}
			if got.PrevDisabled != test.wantPrev {
				t.Errorf("PrevDisabled = %v, want %v", got.PrevDisabled, test.wantPrev)
			}
			if got.NextDisabled != test.wantNext {
				t.Errorf("NextDisabled = %v, want %v", got.NextDisabled, test.wantNext)
			}
		})
	}
}

func TestNewPostCardDefaultsImage(t *testing.T) {
	card := NewPostCard(entity.Post{
		Title:     "No Image",
		Slug:      "no-image",
		CreatedAt: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	})

	if card.ImageURL != DefaultPostImage {
		t.Fatalf("ImageURL = %q, want the default", card.ImageURL)
	}
	if card.Date != "March 5, 2024" {
		t.Fatalf("Date = %q, want %q", card.Date, "March 5, 2024")
	}
}

func TestNewPostCardKeepsOwnImageAndCategory(t *testing.T) {
	card := NewPostCard(entity.Post{
		Title:    "Hooks",
		Slug:     "hooks",
		ImageURL: "https://example.com/x.png",
		Category: &entity.Category{Name: "React", Slug: "react"},
	})

	if card.ImageURL != "https://example.com/x.png" {
		t.Fatalf("ImageURL = %q, want the post's own image", card.ImageURL)
	}
	if card.CategoryName != "React" || card.CategorySlug != "react" {
		t.Fatalf("category = %q/%q, want React/react", card.CategoryName, card.CategorySlug)
	}
}

func TestExcerptTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)

	card := NewPostCard(entity.Post{Title: "Long", Content: long})

	if len([]rune(card.Excerpt)) > 161 {
		t.Fatalf("excerpt length = %d runes, want at most 161", len([]rune(card.Excerpt)))
	}
	if !strings.HasSuffix(card.Excerpt, "…") {
		t.Fatalf("excerpt = %q, want a trailing ellipsis", card.Excerpt)
	}
}

func TestNewNavbar(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want Navbar
	}{
		{
			name: "anonymous shows login",
			snap: session.Snapshot{State: session.StateAnonymous},
			want: Navbar{ShowLogin: true},
		},
		{
			name: "loading shows login",
			snap: session.Snapshot{State: session.StateLoading},
			want: Navbar{ShowLogin: true},
		},
		{
			name: "admin shows admin link",
			snap: session.Snapshot{
				State:    session.StateAuthenticated,
				Identity: &entity.Identity{ID: "u1", Email: "admin@devblog.dev", IsAdmin: true},
			},
			want: Navbar{SignedIn: true, Email: "admin@devblog.dev", ShowAdmin: true},
		},
		{
			name: "signed-in non-admin has no admin link",
			snap: session.Snapshot{
				State:    session.StateAuthenticated,
				Identity: &entity.Identity{ID: "u2", Email: "reader@devblog.dev"},
			},
			want: Navbar{SignedIn: true, Email: "reader@devblog.dev"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := NewNavbar(test.snap); got != test.want {
				t.Errorf("NewNavbar = %+v, want %+v", got, test.want)
			}
		})
	}
}
