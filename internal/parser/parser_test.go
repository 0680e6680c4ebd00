package parser

import (
	"errors"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

const sample = `{
  "slug": "lumen",
  "title": "Lumen",
  "description": "A notes server.",
  "image_url": "/assets/cover.png",
  "technologies": [{"name":"Go","iconName":"go"},{"name":"Go","iconName":"go"},{"name":"SQLite","iconName":"db"}],
  "content": [
    {"id":"h","type":"heading","content":"Setup","level":2},
    {"id":"p","type":"paragraph","content":"Install deps."},
    {"id":"i","type":"image","content":{"url":"/assets/shot.png","alt":"screen"}},
    {"id":"l","type":"link","content":{"url":"https://go.dev","title":"Go","image":"/assets/shot.png"}},
    {"id":"v","type":"video","content":{"src":"x"}}
  ]
}`

func TestParse_Project(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Lumen" {
		t.Errorf("title = %q, want %q", r.Title, "Lumen")
	}
	if len(r.Project.Content) != 5 {
		t.Errorf("blocks = %d, want 5", len(r.Project.Content))
	}
	want := "A notes server.\nSetup\nInstall deps.\nscreen\nGo"
	if r.Body != want {
		t.Errorf("body = %q, want %q", r.Body, want)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "Go" || r.Tags[1] != "SQLite" {
		t.Errorf("tags = %v, want [Go SQLite]", r.Tags)
	}
}

func TestParse_Refs(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	want := []Ref{
		{URL: "/assets/cover.png"},
		{URL: "/assets/shot.png", BlockID: "i"},
		{URL: "https://go.dev", BlockID: "l"},
		{URL: "/assets/shot.png", BlockID: "l"},
	}
	if len(r.Refs) != len(want) {
		t.Fatalf("refs = %v, want %v", r.Refs, want)
	}
	for i := range want {
		if r.Refs[i] != want[i] {
			t.Errorf("refs[%d] = %v, want %v", i, r.Refs[i], want[i])
		}
	}
}

func TestParse_TitleFallsBackToHeading(t *testing.T) {
	r, err := Parse([]byte(`{"slug":"x","content":[{"id":"h","type":"heading","content":" First "}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "First" {
		t.Errorf("title = %q, want %q", r.Title, "First")
	}

	r, err = Parse([]byte(`{"slug":"only-slug","content":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "only-slug" {
		t.Errorf("title = %q, want %q", r.Title, "only-slug")
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "[]", "{not json"} {
		_, err := Parse([]byte(in))
		if !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalid", in, err)
		}
	}
}

func TestParse_MissingReadingTime(t *testing.T) {
	r, err := Parse([]byte(`{"slug":"x","content":[{"id":"a","type":"divider"},{"id":"b","type":"divider"},{"id":"c","type":"divider"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Project.ReadingTime != nil {
		t.Fatalf("reading time = %v, want nil", *r.Project.ReadingTime)
	}
	if got := r.Project.Minutes(); got != 2 {
		t.Errorf("Minutes() = %d, want 2", got)
	}
}
