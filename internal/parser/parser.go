// Package parser decodes stored project records and extracts what the index
// needs from them: title, searchable text, tags and outbound references.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/models"
)

// Ref is one outbound url found in a block.
type Ref struct {
	URL     string
	BlockID string
}

// Result holds the output of parsing a stored project.
type Result struct {
	Project *models.Project
	Title   string
	Body    string
	Tags    []string
	Refs    []Ref
}

// Parse decodes raw project bytes. Malformed blocks never fail the parse;
// only input that is not a project object does.
func Parse(data []byte) (*Result, error) {
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parser: decode project: %w: %v", apperr.ErrInvalid, err)
	}
	return &Result{
		Project: &p,
		Title:   deriveTitle(&p),
		Body:    extractBody(&p),
		Tags:    extractTags(&p),
		Refs:    extractRefs(&p),
	}, nil
}

// deriveTitle returns the project title if present, otherwise the first
// heading, otherwise the slug.
func deriveTitle(p *models.Project) string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	for _, b := range p.Content {
		if h, ok := b.Payload.(*block.Heading); ok && strings.TrimSpace(h.Text) != "" {
			return strings.TrimSpace(h.Text)
		}
	}
	return p.Slug
}

// extractBody joins description, excerpt and the text of every block.
func extractBody(p *models.Project) string {
	parts := []string{p.Description, p.Excerpt}
	for _, b := range p.Content {
		parts = append(parts, b.Text())
	}
	var sb strings.Builder
	for _, s := range parts {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// extractTags collects technology names, deduplicated in order.
func extractTags(p *models.Project) []string {
	seen := make(map[string]struct{}, len(p.Technologies))
	var out []string
	for _, t := range p.Technologies {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// extractRefs returns each (url, block) pair once, plus the cover image.
func extractRefs(p *models.Project) []Ref {
	seen := make(map[Ref]struct{})
	var out []Ref
	add := func(r Ref) {
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" {
			return
		}
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	add(Ref{URL: p.ImageURL})
	for _, b := range p.Content {
		for _, u := range b.URLs() {
			add(Ref{URL: u, BlockID: b.ID})
		}
	}
	return out
}
