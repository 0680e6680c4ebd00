package render

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type builder struct {
	*html.Node
}

// elem creates an element node with attributes given as key/value pairs.
func elem(tag atom.Atom, kv ...string) builder {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return builder{n}
}

func (b builder) with(children ...*html.Node) builder {
	for _, c := range children {
		b.AppendChild(c)
	}
	return b
}

func (b builder) set(key, val string) {
	for i := range b.Attr {
		if b.Attr[i].Key == key {
			b.Attr[i].Val = val
			return
		}
	}
	b.Attr = append(b.Attr, html.Attribute{Key: key, Val: val})
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// safeURL accepts relative references and absolute http(s) urls.
func safeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		if u.Path == "" && u.Host == "" && u.Fragment == "" {
			return "", false
		}
	case "http", "https":
		if u.Host == "" {
			return "", false
		}
	default:
		return "", false
	}
	return raw, true
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent concatenates the text nodes below n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
