package render

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultStyle is the chroma style used for the code stylesheet.
const DefaultStyle = "onedark"

var formatter = chromahtml.New(chromahtml.WithClasses(true))

// highlight returns the highlighted markup of src as nodes. Languages chroma
// does not know fall back to plain text.
func highlight(src, lang string) []*html.Node {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	var buf bytes.Buffer
	it, err := lexer.Tokenise(nil, src)
	if err == nil {
		err = formatter.Format(&buf, styles.Fallback, it)
	}
	var nodes []*html.Node
	if err == nil {
		nodes, err = html.ParseFragment(&buf, &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"})
	}
	if err != nil {
		slog.Warn("render: highlight failed", slog.String("language", lang), slog.String("error", err.Error()))
		return []*html.Node{plainCode(src)}
	}
	return nodes
}

func plainCode(src string) *html.Node {
	return elem(atom.Pre, "class", "chroma").with(elem(atom.Code).with(text(src)).Node).Node
}

// Stylesheet writes the CSS for the highlighting classes in the named chroma
// style. Unknown names use chroma's fallback style.
func Stylesheet(w io.Writer, style string) error {
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return formatter.WriteCSS(w, s)
}
