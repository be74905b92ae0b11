package entity

import "time"

// Post is a published blog entry. Content is stored as sanitized HTML from
// the admin editor. Slug is derived from the title at creation time and is
// what the /post/:slug route resolves against.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
	CategoryID string    `json:"category_id"`
	AuthorID   string    `json:"author_id,omitempty"`

	// Category is populated when the query embeds the categories relation.
	Category *Category `json:"categories,omitempty"`
}
