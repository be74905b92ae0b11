package mailer

import "time"

// PostPublishedJob is the JSON payload put on the RabbitMQ queue whenever an
// admin publishes a post. The notify worker turns it into subscriber emails.
type PostPublishedJob struct {
	PostID      string    `json:"post_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	CategoryID  string    `json:"category_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
