package block

import "strings"

// Text returns the human-readable text carried by b, joined with newlines.
// Unknown blocks and dividers have none.
func (b Block) Text() string {
	switch p := b.Payload.(type) {
	case *Paragraph:
		return p.Text
	case *Heading:
		return p.Text
	case *Code:
		return p.Text
	case *Quote:
		return joinNonEmpty(p.Text, Str(p.Author))
	case *List:
		return joinNonEmpty(p.Items...)
	case *Image:
		return joinNonEmpty(p.Alt, Str(p.Caption))
	case *Link:
		return joinNonEmpty(p.Title, Str(p.Description))
	}
	return ""
}

// URLs returns the external references carried by b: image sources, link
// targets and link preview images.
func (b Block) URLs() []string {
	switch p := b.Payload.(type) {
	case *Image:
		return nonEmptyStrings(p.URL)
	case *Link:
		return nonEmptyStrings(p.URL, Str(p.Image))
	}
	return nil
}

func joinNonEmpty(parts ...string) string {
	return strings.Join(nonEmptyStrings(parts...), "\n")
}

func nonEmptyStrings(in ...string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
