// Package anchor derives the in-page anchor ids of heading blocks. The
// renderer and the table of contents both use it so their ids always agree.
package anchor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/folio/internal/block"
)

// Prefix namespaces heading anchors within a page.
const Prefix = "heading-"

// untitled stands in for headings whose text has no slug characters.
const untitled = "untitled"

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases text, collapses every run of characters outside [a-z0-9]
// into one hyphen, and trims hyphens from both ends.
func Slug(text string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(s, "-")
}

// HeadingID returns the undisambiguated anchor id for heading text.
func HeadingID(text string) string {
	s := Slug(text)
	if s == "" {
		s = untitled
	}
	return Prefix + s
}

// Set hands out unique anchor ids in document order. The first heading with
// a given id keeps it; later duplicates get -2, -3, ... skipping any id that
// is already taken.
type Set struct {
	used map[string]struct{}
	next map[string]int
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{used: make(map[string]struct{}), next: make(map[string]int)}
}

// Next returns the anchor id for the next heading with the given text.
func (s *Set) Next(text string) string {
	base := HeadingID(text)
	id := base
	if _, dup := s.used[id]; dup {
		n := max(s.next[base], 2)
		for {
			id = base + "-" + strconv.Itoa(n)
			n++
			if _, dup := s.used[id]; !dup {
				break
			}
		}
		s.next[base] = n
	}
	s.used[id] = struct{}{}
	return id
}

// Assign returns the anchor id of every block in doc by position. Entries
// for non-heading blocks are empty.
func Assign(doc block.Document) []string {
	set := NewSet()
	out := make([]string, len(doc))
	for i, b := range doc {
		h, ok := b.Payload.(*block.Heading)
		if !ok {
			continue
		}
		out[i] = set.Next(h.Text)
	}
	return out
}
