package entity

// Category groups posts. Slug is unique and drives the /category/:slug route.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
