package block

import "slices"

// Patch is a partial payload update. Nil fields are left untouched; fields
// that do not apply to the target variant are ignored. Nested image and link
// content is merged field by field, not replaced.
type Patch struct {
	Text        *string   `json:"text,omitempty"`
	Level       *int      `json:"level,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Alt         *string   `json:"alt,omitempty"`
	Caption     *string   `json:"caption,omitempty"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	Language    *string   `json:"language,omitempty"`
	Filename    *string   `json:"filename,omitempty"`
	Items       []string  `json:"items,omitempty"`
	ListKind    *ListKind `json:"listType,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Image       *string   `json:"image,omitempty"`
}

// Apply returns a copy of b with p merged into its payload. The block id and
// any passthrough members not overwritten by p are preserved.
func (b Block) Apply(p Patch) Block {
	out := b.Clone()

	// A member kept verbatim because it failed to decode is superseded as
	// soon as the editor writes the field.
	set := func(key string) {
		delete(out.Extra, key)
	}

	switch v := out.Payload.(type) {
	case *Paragraph:
		if p.Text != nil {
			v.Text = *p.Text
			set(keyContent)
		}
	case *Heading:
		if p.Text != nil {
			v.Text = *p.Text
			set(keyContent)
		}
		if p.Level != nil {
			v.Level = clampLevel(*p.Level)
			set(keyLevel)
		}
	case *Image:
		touched := false
		if p.URL != nil {
			v.URL, touched = *p.URL, true
		}
		if p.Alt != nil {
			v.Alt, touched = *p.Alt, true
		}
		if p.Caption != nil {
			v.Caption, touched = Ptr(*p.Caption), true
		}
		if p.Width != nil {
			v.Width, touched = Ptr(*p.Width), true
		}
		if p.Height != nil {
			v.Height, touched = Ptr(*p.Height), true
		}
		if touched {
			set(keyContent)
		}
	case *Code:
		if p.Text != nil {
			v.Text = *p.Text
			set(keyContent)
		}
		if p.Language != nil {
			v.Language = Ptr(*p.Language)
			set(keyLanguage)
		}
		if p.Filename != nil {
			v.Filename = Ptr(*p.Filename)
			set(keyFilename)
		}
	case *List:
		if p.Items != nil {
			v.Items = slices.Clone(p.Items)
			set(keyContent)
		}
		if p.ListKind != nil {
			v.Kind = *p.ListKind
			set(keyListType)
		}
	case *Quote:
		if p.Text != nil {
			v.Text = *p.Text
			set(keyContent)
		}
		if p.Author != nil {
			v.Author = Ptr(*p.Author)
			set(keyAuthor)
		}
	case *Link:
		touched := false
		if p.URL != nil {
			v.URL, touched = *p.URL, true
		}
		if p.Title != nil {
			v.Title, touched = *p.Title, true
		}
		if p.Description != nil {
			v.Description, touched = Ptr(*p.Description), true
		}
		if p.Image != nil {
			v.Image, touched = Ptr(*p.Image), true
		}
		if touched {
			set(keyContent)
		}
	}
	if len(out.Extra) == 0 {
		out.Extra = nil
	}
	return out
}

func clampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}
