package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/devblog-app/devblog-api/config"
	"github.com/devblog-app/devblog-api/pkg/helpers"
	"github.com/devblog-app/devblog-api/pkg/slug"
)

// Seeds the hosted project's database with the demo content: two categories,
// one admin user and a couple of posts. Requires DB_DSN.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is required for seeding")
	}
	db, err := sql.Open("pgx", cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	catIDs := map[string]string{}
	for _, name := range []string{"React", "TypeScript"} {
		var id string
		if err := db.QueryRow(`
			INSERT INTO categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name, slug.Make(name)).Scan(&id); err != nil {
			log.Fatalf("failed to seed category %s: %v", name, err)
		}
		catIDs[name] = id
	}
	fmt.Printf("categories ensured: %v\n", catIDs)

	email := "admin@devblog.dev"
	password := "admin123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var adminID string
	if err := db.QueryRow(`
		INSERT INTO users (email, password, is_admin)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (email) DO UPDATE SET is_admin = TRUE
		RETURNING id
	`, email, hash).Scan(&adminID); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", adminID, email, password)

	posts := []struct {
		Title    string
		Content  string
		Category string
	}{
		{
			Title:    "Getting Started with React Hooks",
			Content:  "Hooks let function components use state and side effects. This post walks through useState and useEffect with practical examples.",
			Category: "React",
		},
		{
			Title:    "TypeScript Generics in Practice",
			Content:  "Generics make reusable code type-safe. Here is how to put constraints, defaults and inference to work in everyday code.",
			Category: "TypeScript",
		},
	}
	for _, p := range posts {
		if _, err := db.Exec(`
			INSERT INTO posts (title, slug, content, category_id, author_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO NOTHING
		`, p.Title, slug.Make(p.Title), p.Content, catIDs[p.Category], adminID); err != nil {
			log.Fatalf("failed to seed post %q: %v", p.Title, err)
		}
	}
	fmt.Printf("seeded %d posts\n", len(posts))
}
