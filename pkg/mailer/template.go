package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

var newPostHTML = template.Must(template.New("new_post").Parse(`<!doctype html>
<html>
  <body style="font-family: sans-serif; color: #1a202c;">
    <h2>New on DevBlog: {{.Title}}</h2>
    <p>A new article was just published.</p>
    <p><a href="{{.URL}}">Read &ldquo;{{.Title}}&rdquo;</a></p>
    <p style="color: #718096; font-size: 12px;">You receive this because you subscribed to DevBlog updates.</p>
  </body>
</html>`))

// RenderNewPost builds the subject, plain-text and HTML bodies for a
// post-published notification. baseURL is the public site root.
func RenderNewPost(baseURL string, job PostPublishedJob) (subject, text, html string, err error) {
	url := strings.TrimRight(baseURL, "/") + "/post/" + job.Slug
	subject = "New post: " + job.Title
	text = fmt.Sprintf("A new article was just published on DevBlog.\n\n%s\n%s\n", job.Title, url)

	var b strings.Builder
	if err = newPostHTML.Execute(&b, struct {
		Title string
		URL   string
	}{Title: job.Title, URL: url}); err != nil {
		return "", "", "", err
	}
	return subject, text, b.String(), nil
}
