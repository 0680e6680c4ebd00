//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM projects_fts`).Scan(&count); err != nil {
		t.Fatalf("projects_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	r := row("fts", "f1", time.Now())
	r.Title = "FTS Project"
	r.Tags = []string{"search"}
	if err := db.UpsertProject(r, "Folio renders powerful case studies.", nil); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Slug != "fts" {
		t.Errorf("slug = %q", results[0].Slug)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertProject(row("gone", "g", time.Now()), "vanishing content", nil)
	_ = db.DeleteProject("gone")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Slug == "gone" {
			t.Error("deleted project still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	old := row("evo", "1", now)
	old.Title = "Old"
	_ = db.UpsertProject(old, "original text", nil)
	upd := row("evo", "2", now)
	upd.Title = "New"
	_ = db.UpsertProject(upd, "replacement text", nil)

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

func TestMatchQuery(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"gopher", `"gopher"*`},
		{"c++ go-chi", `"c++" "go-chi"*`},
		{`say "hi"`, `"say" """hi"""*`},
	}
	for _, tc := range cases {
		if got := matchQuery(tc.in); got != tc.want {
			t.Errorf("matchQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFTS5_PunctuationAndPrefix(t *testing.T) {
	db := testDB(t)
	r := row("router", "r1", time.Now())
	r.Title = "Routing with go-chi"
	if err := db.UpsertProject(r, "middleware chains for c++ fans", nil); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	for _, q := range []string{"go-chi", "c++", "middle"} {
		results, err := db.Search(q, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(results) != 1 {
			t.Errorf("Search(%q) = %+v, want 1 hit", q, results)
		}
	}

	results, _ := db.Search("middle", 10)
	if len(results) == 1 && !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("snippet not highlighted: %q", results[0].Snippet)
	}
}
