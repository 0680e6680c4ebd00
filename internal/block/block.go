// Package block defines the rich-content document model: an ordered sequence of
// typed content blocks used to author project case studies.
package block

import (
	"slices"

	"github.com/google/uuid"
)

// Type is the variant tag of a block.
type Type string

// Block variants.
const (
	TypeParagraph Type = "paragraph"
	TypeHeading   Type = "heading"
	TypeImage     Type = "image"
	TypeCode      Type = "code"
	TypeList      Type = "list"
	TypeQuote     Type = "quote"
	TypeLink      Type = "link"
	TypeDivider   Type = "divider"
)

// Types lists every known variant in palette order.
var Types = []Type{
	TypeParagraph,
	TypeHeading,
	TypeImage,
	TypeCode,
	TypeList,
	TypeQuote,
	TypeLink,
	TypeDivider,
}

var labels = map[Type]string{
	TypeParagraph: "Paragraph",
	TypeHeading:   "Heading",
	TypeImage:     "Image",
	TypeCode:      "Code",
	TypeList:      "List",
	TypeQuote:     "Quote",
	TypeLink:      "Link",
	TypeDivider:   "Divider",
}

// Known reports whether t is one of the eight supported variants.
func (t Type) Known() bool {
	_, ok := labels[t]
	return ok
}

// Label returns the human-readable name of the variant.
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// ListKind selects the list marker style.
type ListKind string

const (
	ListBullet   ListKind = "bullet"
	ListNumbered ListKind = "numbered"
)

// Heading levels.
const (
	MinLevel     = 1
	MaxLevel     = 6
	DefaultLevel = 2
)

// DefaultCodeLanguage is the language a freshly created code block starts with.
const DefaultCodeLanguage = "javascript"

// Payload is the variant-specific content of a block. The set of
// implementations is closed to this package.
type Payload interface {
	Type() Type
	clone() Payload
}

// Paragraph is a plain text paragraph.
type Paragraph struct {
	Text string
}

// Heading is a section heading. A zero Level means the level was never set.
type Heading struct {
	Text  string
	Level int
}

// Image references a hosted image. Alt is required for accessibility but may
// be empty while authoring; URL may be empty transiently as well.
type Image struct {
	URL     string
	Alt     string
	Caption *string
	Width   *int
	Height  *int

	// Extra holds unrecognized keys of the stored content object.
	Extra Raw
}

// Code is a source snippet.
type Code struct {
	Text     string
	Language *string
	Filename *string
}

// List is an ordered sequence of items. Position is the item identity.
type List struct {
	Items []string
	Kind  ListKind
}

// Quote is a pull quote with an optional author.
type Quote struct {
	Text   string
	Author *string
}

// Link is an external reference card.
type Link struct {
	URL         string
	Title       string
	Description *string
	Image       *string

	Extra Raw
}

// Divider is a visual separator with no payload.
type Divider struct{}

// Unknown carries a block whose type tag this version does not understand.
// Its fields are kept verbatim in Block.Extra.
type Unknown struct {
	Kind Type
}

func (*Paragraph) Type() Type { return TypeParagraph }
func (*Heading) Type() Type   { return TypeHeading }
func (*Image) Type() Type     { return TypeImage }
func (*Code) Type() Type      { return TypeCode }
func (*List) Type() Type      { return TypeList }
func (*Quote) Type() Type     { return TypeQuote }
func (*Link) Type() Type      { return TypeLink }
func (*Divider) Type() Type   { return TypeDivider }
func (u *Unknown) Type() Type { return u.Kind }

func (p *Paragraph) clone() Payload { c := *p; return &c }
func (p *Heading) clone() Payload   { c := *p; return &c }
func (p *Divider) clone() Payload   { return &Divider{} }
func (p *Unknown) clone() Payload   { c := *p; return &c }

func (p *Image) clone() Payload {
	c := *p
	c.Caption = clonePtr(p.Caption)
	c.Width = clonePtr(p.Width)
	c.Height = clonePtr(p.Height)
	c.Extra = p.Extra.clone()
	return &c
}

func (p *Code) clone() Payload {
	c := *p
	c.Language = clonePtr(p.Language)
	c.Filename = clonePtr(p.Filename)
	return &c
}

func (p *List) clone() Payload {
	c := *p
	if p.Items != nil {
		c.Items = slices.Clone(p.Items)
	}
	return &c
}

func (p *Quote) clone() Payload {
	c := *p
	c.Author = clonePtr(p.Author)
	return &c
}

func (p *Link) clone() Payload {
	c := *p
	c.Description = clonePtr(p.Description)
	c.Image = clonePtr(p.Image)
	c.Extra = p.Extra.clone()
	return &c
}

// Block is one addressable unit of content.
type Block struct {
	ID      string
	Payload Payload

	// Extra holds top-level keys this version does not understand so a
	// re-save passes them through unchanged.
	Extra Raw
}

// Type returns the variant tag, or "" for a block without payload.
func (b Block) Type() Type {
	if b.Payload == nil {
		return ""
	}
	return b.Payload.Type()
}

// Clone returns a deep copy of b.
func (b Block) Clone() Block {
	c := Block{ID: b.ID, Extra: b.Extra.clone()}
	if b.Payload != nil {
		c.Payload = b.Payload.clone()
	}
	return c
}

// Document is an ordered sequence of blocks; order is display order.
type Document []Block

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, b := range d {
		out[i] = b.Clone()
	}
	return out
}

// Index returns the position of the block with the given id, or -1.
func (d Document) Index(id string) int {
	for i, b := range d {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the set of block ids in d.
func (d Document) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(d))
	for _, b := range d {
		out[b.ID] = struct{}{}
	}
	return out
}

// New constructs an empty block of type t with a fresh id that does not
// collide with any block in doc.
func New(t Type, doc Document) Block {
	return Block{ID: NewID(doc), Payload: defaultPayload(t)}
}

// NewID returns a block id not present in doc.
func NewID(doc Document) string {
	taken := doc.IDs()
	for {
		id := "block-" + uuid.NewString()
		if _, dup := taken[id]; !dup {
			return id
		}
	}
}

func defaultPayload(t Type) Payload {
	switch t {
	case TypeParagraph:
		return &Paragraph{}
	case TypeHeading:
		return &Heading{Level: DefaultLevel}
	case TypeImage:
		return &Image{Caption: Ptr("")}
	case TypeCode:
		return &Code{Language: Ptr(DefaultCodeLanguage)}
	case TypeList:
		return &List{Items: []string{}, Kind: ListBullet}
	case TypeQuote:
		return &Quote{}
	case TypeLink:
		return &Link{Description: Ptr("")}
	case TypeDivider:
		return &Divider{}
	default:
		return &Unknown{Kind: t}
	}
}

// EffectiveLevel clamps a stored heading level into 1..6, treating an unset
// level as DefaultLevel.
func EffectiveLevel(level int) int {
	switch {
	case level == 0:
		return DefaultLevel
	case level < MinLevel:
		return MinLevel
	case level > MaxLevel:
		return MaxLevel
	}
	return level
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Str dereferences an optional string, returning "" for nil.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
