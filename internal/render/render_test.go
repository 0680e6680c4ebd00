package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/starford/folio/internal/block"
)

func setupDoc() block.Document {
	return block.Document{
		{ID: "h", Payload: &block.Heading{Text: "Setup", Level: 2}},
		{ID: "p", Payload: &block.Paragraph{Text: "Install deps."}},
		{ID: "l", Payload: &block.List{Items: []string{"a", "b"}, Kind: block.ListBullet}},
	}
}

func TestRender_OneElementPerBlock(t *testing.T) {
	a := Render(setupDoc())

	require.Len(t, a.Elements, 3)
	assert.Equal(t, []string{"h", "p", "l"}, []string{a.Elements[0].BlockID, a.Elements[1].BlockID, a.Elements[2].BlockID})

	h := a.Elements[0].Node
	assert.Equal(t, "h2", h.Data)
	id, _ := Attr(h, "id")
	assert.Equal(t, "heading-setup", id)
	assert.Equal(t, "heading-setup", a.Anchors["h"])

	assert.Equal(t, "ul", a.Elements[2].Node.Data)
	assert.Equal(t, "ab", TextContent(a.Elements[2].Node))
}

func TestRender_DividerAndRoot(t *testing.T) {
	a := Render(block.Document{{ID: "d", Payload: &block.Divider{}}})

	assert.Equal(t, "div", a.Root.Data)
	class, _ := Attr(a.Root, "class")
	assert.Equal(t, "article", class)
	require.Len(t, a.Elements, 1)
	assert.Equal(t, "hr", a.Elements[0].Node.Data)
	assert.Same(t, a.Root, a.Elements[0].Node.Parent)
	assert.Contains(t, a.HTML(), `<hr class="divider" data-block-id="d"/>`)
}

func TestRender_AnchorsFollowPositionNotBlockID(t *testing.T) {
	a := Render(block.Document{
		{ID: "h", Payload: &block.Heading{Text: "One", Level: 2}},
		{ID: "h", Payload: &block.Heading{Text: "Two", Level: 2}},
	})
	require.Len(t, a.Elements, 2)
	first, _ := Attr(a.Elements[0].Node, "id")
	second, _ := Attr(a.Elements[1].Node, "id")
	assert.Equal(t, "heading-one", first)
	assert.Equal(t, "heading-two", second)
}

func TestRender_UnknownBlocksProduceNothing(t *testing.T) {
	doc := block.Document{
		{ID: "a", Payload: &block.Paragraph{Text: "one"}},
		{ID: "x", Payload: &block.Unknown{Kind: "video"}},
		{ID: "b", Payload: &block.Divider{}},
	}
	a := Render(doc)
	require.Len(t, a.Elements, 2)
	assert.Equal(t, "a", a.Elements[0].BlockID)
	assert.Equal(t, "b", a.Elements[1].BlockID)
	assert.NotContains(t, a.HTML(), `data-block-id="x"`)
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	doc := setupDoc()
	before := doc.Clone()
	Render(doc)
	assert.Equal(t, before, doc)
}

func TestRender_ImageWithoutURLIsPlaceholder(t *testing.T) {
	doc := block.Document{{ID: "i", Payload: &block.Image{URL: "", Alt: "x"}}}
	a := Render(doc)
	require.Len(t, a.Elements, 1)

	img := find(a.Elements[0].Node, "img")
	require.NotNil(t, img)
	src, _ := Attr(img, "src")
	assert.Equal(t, PlaceholderURL, src)
	_, marked := Attr(img, "data-placeholder")
	assert.True(t, marked)
	alt, _ := Attr(img, "alt")
	assert.Equal(t, "x", alt)
	w, _ := Attr(img, "width")
	assert.Equal(t, "800", w)
	assert.Nil(t, find(a.Elements[0].Node, "figcaption"))
}

func TestRender_ImageRejectsScriptURL(t *testing.T) {
	doc := block.Document{{ID: "i", Payload: &block.Image{URL: "javascript:alert(1)", Alt: "x"}}}
	out := Render(doc).HTML()
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, PlaceholderURL)
}

func TestRender_ImageCaptionAndSize(t *testing.T) {
	doc := block.Document{{ID: "i", Payload: &block.Image{
		URL: "/assets/a.png", Alt: "a", Caption: block.Ptr("Figure 1"), Width: block.Ptr(320),
	}}}
	n := Render(doc).Elements[0].Node
	img := find(n, "img")
	src, _ := Attr(img, "src")
	assert.Equal(t, "/assets/a.png", src)
	w, _ := Attr(img, "width")
	h, _ := Attr(img, "height")
	assert.Equal(t, "320", w)
	assert.Equal(t, "400", h)
	require.NotNil(t, find(n, "figcaption"))
	assert.Equal(t, "Figure 1", TextContent(find(n, "figcaption")))
}

func TestRender_CodeFilenameRow(t *testing.T) {
	without := Render(block.Document{{ID: "c", Payload: &block.Code{Text: "x := 1", Language: block.Ptr("go")}}})
	assert.NotContains(t, without.HTML(), "code-filename")

	with := Render(block.Document{{ID: "c", Payload: &block.Code{Text: "x := 1", Language: block.Ptr("go"), Filename: block.Ptr("main.go")}}})
	out := with.HTML()
	assert.Contains(t, out, `class="code-filename"`)
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, `data-language="go"`)
	assert.Contains(t, out, "chroma")
}

func TestRender_CodeLanguageDefaultsToText(t *testing.T) {
	a := Render(block.Document{{ID: "c", Payload: &block.Code{Text: "<b>raw</b>"}}})
	lang, _ := Attr(a.Elements[0].Node, "data-language")
	assert.Equal(t, "text", lang)
	assert.Contains(t, TextContent(a.Elements[0].Node), "<b>raw</b>")
	assert.NotContains(t, a.HTML(), "<b>raw</b>")
}

func TestRender_ListKinds(t *testing.T) {
	a := Render(block.Document{
		{ID: "b", Payload: &block.List{Items: []string{"x"}, Kind: block.ListBullet}},
		{ID: "n", Payload: &block.List{Items: []string{"y", "z"}, Kind: block.ListNumbered}},
	})
	assert.Equal(t, "ul", a.Elements[0].Node.Data)
	assert.Equal(t, "ol", a.Elements[1].Node.Data)
}

func TestRender_QuoteAuthorOptional(t *testing.T) {
	a := Render(block.Document{
		{ID: "q1", Payload: &block.Quote{Text: "Ship it"}},
		{ID: "q2", Payload: &block.Quote{Text: "Ship it", Author: block.Ptr("Ada")}},
	})
	assert.Nil(t, find(a.Elements[0].Node, "cite"))
	require.NotNil(t, find(a.Elements[1].Node, "cite"))
	assert.Contains(t, TextContent(find(a.Elements[1].Node, "cite")), "Ada")
}

func TestRender_LinkOptionalParts(t *testing.T) {
	a := Render(block.Document{
		{ID: "l1", Payload: &block.Link{URL: "https://go.dev", Title: "Go"}},
		{ID: "l2", Payload: &block.Link{URL: "https://go.dev", Title: "Go", Description: block.Ptr("lang"), Image: block.Ptr("https://go.dev/x.png")}},
		{ID: "l3", Payload: &block.Link{URL: "", Title: "draft"}},
	})
	l1 := a.Elements[0].Node
	assert.Equal(t, "a", l1.Data)
	assert.Nil(t, find(l1, "img"))
	assert.Nil(t, find(l1, "p"))
	rel, _ := Attr(l1, "rel")
	assert.Equal(t, "noopener noreferrer", rel)

	l2 := a.Elements[1].Node
	assert.NotNil(t, find(l2, "img"))
	assert.Equal(t, "lang", TextContent(find(l2, "p")))

	l3 := a.Elements[2].Node
	assert.Equal(t, "div", l3.Data)
	_, marked := Attr(l3, "data-placeholder")
	assert.True(t, marked)
}

func TestRender_DuplicateHeadings(t *testing.T) {
	a := Render(block.Document{
		{ID: "a", Payload: &block.Heading{Text: "Intro", Level: 2}},
		{ID: "b", Payload: &block.Heading{Text: "Intro", Level: 2}},
	})
	assert.Equal(t, "heading-intro", a.Anchors["a"])
	assert.Equal(t, "heading-intro-2", a.Anchors["b"])
}

func TestRender_HeadingLevelClamped(t *testing.T) {
	a := Render(block.Document{
		{ID: "a", Payload: &block.Heading{Text: "x", Level: 0}},
		{ID: "b", Payload: &block.Heading{Text: "y", Level: 9}},
	})
	assert.Equal(t, "h2", a.Elements[0].Node.Data)
	assert.Equal(t, "h6", a.Elements[1].Node.Data)
}

func TestRender_EmptyDocument(t *testing.T) {
	a := Render(nil)
	assert.True(t, a.Empty())
	assert.Contains(t, a.HTML(), EmptyText)
}

func TestRender_EmptyFieldsDoNotPanic(t *testing.T) {
	doc := block.Document{}
	for _, typ := range block.Types {
		doc = append(doc, block.New(typ, doc))
	}
	a := Render(doc)
	assert.Len(t, a.Elements, len(block.Types))

	// Output parses back as HTML.
	_, err := html.Parse(strings.NewReader(a.HTML()))
	require.NoError(t, err)
}

func TestStylesheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Stylesheet(&buf, DefaultStyle))
	assert.Contains(t, buf.String(), ".chroma")
}

func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, tag); f != nil {
			return f
		}
	}
	return nil
}
