package postgres

import (
	"testing"

	"github.com/devblog-app/devblog-api/internal/gateway"
)

func TestCompileCountAliasesFilteredTable(t *testing.T) {
	q := gateway.From("posts").Eq("category_id", "c1")

	sql, args := compileCount(q)

	want := `SELECT count(*) FROM "posts" t WHERE t."category_id" = $1`
	if sql != want {
		t.Fatalf("sql = %s, want %s", sql, want)
	}
	if len(args) != 1 || args[0] != "c1" {
		t.Fatalf("args = %v, want [c1]", args)
	}
}

func TestCompileCountUnfiltered(t *testing.T) {
	sql, args := compileCount(gateway.From("posts"))

	if want := `SELECT count(*) FROM "posts" t`; sql != want {
		t.Fatalf("sql = %s, want %s", sql, want)
	}
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
}

func TestCompileSelectWindow(t *testing.T) {
	q := gateway.From("posts").Eq("category_id", "c1").OrderDesc("created_at").Range(6, 11)

	sql, args := compileSelect(q)

	want := `SELECT coalesce(jsonb_agg(obj), '[]'::jsonb) FROM (` +
		`SELECT to_jsonb(t) AS obj FROM "posts" t WHERE t."category_id" = $1` +
		` ORDER BY t."created_at" DESC OFFSET 6 LIMIT 6) sub`
	if sql != want {
		t.Fatalf("sql = %s, want %s", sql, want)
	}
	if len(args) != 1 || args[0] != "c1" {
		t.Fatalf("args = %v, want [c1]", args)
	}
}

func TestCompileSelectSingleWithEmbed(t *testing.T) {
	q := gateway.From("posts").Embed("categories", "name", "slug").Eq("slug", "hello").Single()

	sql, args := compileSelect(q)

	want := `SELECT obj FROM (` +
		`SELECT to_jsonb(t) || jsonb_build_object('categories', ` +
		`(SELECT jsonb_build_object('name', e."name", 'slug', e."slug") FROM "categories" e WHERE e.id = t."category_id")` +
		`) AS obj FROM "posts" t WHERE t."slug" = $1 LIMIT 1) sub`
	if sql != want {
		t.Fatalf("sql = %s, want %s", sql, want)
	}
	if len(args) != 1 || args[0] != "hello" {
		t.Fatalf("args = %v, want [hello]", args)
	}
}
