// Package render turns a block document into a display tree. Rendering is
// pure and never fails: incomplete blocks render as empty or placeholder
// elements and blocks of unknown type render nothing.
package render

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/folio/internal/anchor"
	"github.com/starford/folio/internal/block"
)

// Placeholder image used when a block has no usable url.
const PlaceholderURL = "/placeholder.svg"

// Image dimensions used when a block leaves them unset.
const (
	DefaultImageWidth  = 800
	DefaultImageHeight = 400
)

// EmptyText is shown in place of an empty document.
const EmptyText = "No content available."

// Element is the display element produced for one block.
type Element struct {
	BlockID string
	Type    block.Type
	Node    *html.Node
}

// Article is a rendered document.
type Article struct {
	// Root is the article container; element nodes are its children.
	Root     *html.Node
	Elements []Element
	// Anchors maps heading block ids to their anchor ids.
	Anchors map[string]string
}

// Empty reports whether the article has nothing to show.
func (a *Article) Empty() bool { return len(a.Elements) == 0 }

// WriteTo serializes the article as an HTML fragment.
func (a *Article) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := html.Render(cw, a.Root)
	return cw.n, err
}

// HTML returns the serialized article.
func (a *Article) HTML() string {
	var sb strings.Builder
	_, _ = a.WriteTo(&sb)
	return sb.String()
}

// Render converts doc into an Article. It does not modify doc.
func Render(doc block.Document) *Article {
	anchors := anchor.Assign(doc)
	a := &Article{
		Root:    elem(atom.Div, "class", "article").Node,
		Anchors: make(map[string]string),
	}
	for i, b := range doc {
		var n *html.Node
		switch p := b.Payload.(type) {
		case *block.Paragraph:
			n = paragraph(p)
		case *block.Heading:
			id := anchors[i]
			a.Anchors[b.ID] = id
			n = heading(p, id)
		case *block.Image:
			n = image(p)
		case *block.Code:
			n = code(p)
		case *block.List:
			n = list(p)
		case *block.Quote:
			n = quote(p)
		case *block.Link:
			n = link(p)
		case *block.Divider:
			n = elem(atom.Hr, "class", "divider").Node
		default:
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: "data-block-id", Val: b.ID})
		a.Root.AppendChild(n)
		a.Elements = append(a.Elements, Element{BlockID: b.ID, Type: b.Type(), Node: n})
	}
	if a.Empty() {
		a.Root.Attr = []html.Attribute{{Key: "class", Val: "article article-empty"}}
		a.Root.AppendChild(text(EmptyText))
	}
	return a
}

func paragraph(p *block.Paragraph) *html.Node {
	return elem(atom.P, "class", "paragraph").with(text(p.Text)).Node
}

func heading(p *block.Heading, id string) *html.Node {
	level := block.EffectiveLevel(p.Level)
	tag := atom.Lookup([]byte("h" + strconv.Itoa(level)))
	return elem(tag, "id", id, "class", "heading heading-"+strconv.Itoa(level)).with(text(p.Text)).Node
}

func image(p *block.Image) *html.Node {
	src, ok := safeURL(p.URL)
	img := elem(atom.Img,
		"alt", p.Alt,
		"width", strconv.Itoa(positiveOr(p.Width, DefaultImageWidth)),
		"height", strconv.Itoa(positiveOr(p.Height, DefaultImageHeight)),
		"loading", "lazy",
	)
	if ok {
		img.set("src", src)
	} else {
		img.set("src", PlaceholderURL)
		img.set("data-placeholder", "")
	}
	fig := elem(atom.Figure, "class", "image").with(
		elem(atom.Div, "class", "image-frame").with(img.Node).Node,
	)
	if c := block.Str(p.Caption); c != "" {
		fig.with(elem(atom.Figcaption).with(text(c)).Node)
	}
	return fig.Node
}

func code(p *block.Code) *html.Node {
	lang := block.Str(p.Language)
	if strings.TrimSpace(lang) == "" {
		lang = "text"
	}
	wrap := elem(atom.Div, "class", "code-block", "data-language", lang)
	if fn := block.Str(p.Filename); fn != "" {
		wrap.with(elem(atom.Div, "class", "code-filename").with(
			elem(atom.Span).with(text(fn)).Node,
		).Node)
	}
	for _, n := range highlight(p.Text, lang) {
		wrap.with(n)
	}
	return wrap.Node
}

func list(p *block.List) *html.Node {
	tag, class := atom.Ul, "list list-bullet"
	if p.Kind == block.ListNumbered {
		tag, class = atom.Ol, "list list-numbered"
	}
	l := elem(tag, "class", class)
	for _, it := range p.Items {
		l.with(elem(atom.Li).with(text(it)).Node)
	}
	return l.Node
}

func quote(p *block.Quote) *html.Node {
	q := elem(atom.Blockquote, "class", "quote").with(
		elem(atom.P).with(text("“" + p.Text + "”")).Node,
	)
	if a := block.Str(p.Author); a != "" {
		q.with(elem(atom.Cite).with(text("— " + a)).Node)
	}
	return q.Node
}

func link(p *block.Link) *html.Node {
	href, ok := safeURL(p.URL)
	var card builder
	if ok {
		card = elem(atom.A, "class", "link-card", "href", href, "target", "_blank", "rel", "noopener noreferrer")
	} else {
		card = elem(atom.Div, "class", "link-card", "data-placeholder", "")
	}
	if src, ok := safeURL(block.Str(p.Image)); ok {
		card.with(elem(atom.Div, "class", "link-preview").with(
			elem(atom.Img, "src", src, "alt", p.Title, "width", "64", "height", "64").Node,
		).Node)
	}
	body := elem(atom.Div, "class", "link-body").with(elem(atom.H4).with(text(p.Title)).Node)
	if d := block.Str(p.Description); d != "" {
		body.with(elem(atom.P).with(text(d)).Node)
	}
	return card.with(body.Node).Node
}

func positiveOr(p *int, def int) int {
	if p == nil || *p <= 0 {
		return def
	}
	return *p
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
