// Package toc derives the table of contents of a document and tracks which
// section a reader is currently looking at.
package toc

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/starford/folio/internal/anchor"
	"github.com/starford/folio/internal/block"
)

// Item is one outline entry. ID matches the rendered heading's anchor id.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// Build returns the outline of doc's heading blocks in document order.
func Build(doc block.Document) []Item {
	ids := anchor.Assign(doc)
	var items []Item
	for i, b := range doc {
		h, ok := b.Payload.(*block.Heading)
		if !ok {
			continue
		}
		items = append(items, Item{
			ID:    ids[i],
			Title: h.Text,
			Level: block.EffectiveLevel(h.Level),
		})
	}
	return items
}

// FromHTML scans rendered markup for h1..h6 elements carrying an id.
func FromHTML(r io.Reader) ([]Item, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var items []Item
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if id := attr(n, "id"); id != "" {
					items = append(items, Item{ID: id, Title: strings.TrimSpace(textOf(n)), Level: level})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return items, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}
