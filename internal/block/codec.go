package block

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Wire keys of the stored block format.
const (
	keyID          = "id"
	keyType        = "type"
	keyContent     = "content"
	keyLevel       = "level"
	keyLanguage    = "language"
	keyFilename    = "filename"
	keyListType    = "listType"
	keyAuthor      = "author"
	keyURL         = "url"
	keyAlt         = "alt"
	keyCaption     = "caption"
	keyWidth       = "width"
	keyHeight      = "height"
	keyTitle       = "title"
	keyDescription = "description"
	keyImage       = "image"
)

// Raw is a set of JSON object members kept verbatim.
type Raw map[string]json.RawMessage

func (r Raw) clone() Raw {
	if r == nil {
		return nil
	}
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// take decodes r[key] into dst and removes it. A member that is null or fails
// to decode stays in r so it survives a re-save.
func (r Raw) take(key string, dst any) bool {
	v, ok := r[key]
	if !ok || string(bytes.TrimSpace(v)) == "null" {
		return false
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return false
	}
	delete(r, key)
	return true
}

// takeKeepZero is take for members that encode omits while zero. A decoded
// zero stays in r so the explicit member survives a re-save.
func takeKeepZero[T comparable](r Raw, key string, dst *T) {
	v := r[key]
	var zero T
	if r.take(key, dst) && *dst == zero {
		r[key] = v
	}
}

// put marshals v under key unless key is already held verbatim.
func (r Raw) put(key string, v any) error {
	if _, kept := r[key]; kept {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("block: encode %s: %w", key, err)
	}
	r[key] = data
	return nil
}

func (r Raw) putOpt(key string, v any, present bool) error {
	if !present {
		return nil
	}
	return r.put(key, v)
}

// UnmarshalJSON decodes a stored block. It never rejects a block because of
// a malformed or unknown member; those are kept in Extra.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("block: decode: %w", err)
	}
	if raw == nil {
		raw = Raw{}
	}

	var id string
	var t Type
	raw.take(keyID, &id)
	raw.take(keyType, &t)

	*b = Block{ID: id}

	switch t {
	case TypeParagraph:
		p := &Paragraph{}
		raw.take(keyContent, &p.Text)
		b.Payload = p
	case TypeHeading:
		p := &Heading{}
		raw.take(keyContent, &p.Text)
		takeKeepZero(raw, keyLevel, &p.Level)
		b.Payload = p
	case TypeImage:
		p := &Image{}
		if inner, ok := takeObject(raw); ok {
			inner.take(keyURL, &p.URL)
			inner.take(keyAlt, &p.Alt)
			inner.take(keyCaption, &p.Caption)
			inner.take(keyWidth, &p.Width)
			inner.take(keyHeight, &p.Height)
			p.Extra = nonEmpty(inner)
		}
		b.Payload = p
	case TypeCode:
		p := &Code{}
		raw.take(keyContent, &p.Text)
		raw.take(keyLanguage, &p.Language)
		raw.take(keyFilename, &p.Filename)
		b.Payload = p
	case TypeList:
		p := &List{}
		raw.take(keyContent, &p.Items)
		takeKeepZero(raw, keyListType, &p.Kind)
		b.Payload = p
	case TypeQuote:
		p := &Quote{}
		raw.take(keyContent, &p.Text)
		raw.take(keyAuthor, &p.Author)
		b.Payload = p
	case TypeLink:
		p := &Link{}
		if inner, ok := takeObject(raw); ok {
			inner.take(keyURL, &p.URL)
			inner.take(keyTitle, &p.Title)
			inner.take(keyDescription, &p.Description)
			inner.take(keyImage, &p.Image)
			p.Extra = nonEmpty(inner)
		}
		b.Payload = p
	case TypeDivider:
		b.Payload = &Divider{}
	default:
		b.Payload = &Unknown{Kind: t}
	}

	b.Extra = nonEmpty(raw)
	return nil
}

// MarshalJSON encodes the block in the stored wire format. Map keys are
// emitted in sorted order so identical blocks always encode identically.
func (b Block) MarshalJSON() ([]byte, error) {
	out := b.Extra.clone()
	if out == nil {
		out = Raw{}
	}
	if err := out.put(keyID, b.ID); err != nil {
		return nil, err
	}
	if t := b.Type(); t != "" {
		if err := out.put(keyType, t); err != nil {
			return nil, err
		}
	}

	var err error
	switch p := b.Payload.(type) {
	case *Paragraph:
		err = out.put(keyContent, p.Text)
	case *Heading:
		err = firstErr(
			out.put(keyContent, p.Text),
			out.putOpt(keyLevel, p.Level, p.Level != 0),
		)
	case *Image:
		var inner Raw
		inner, err = encodeImage(p)
		if err == nil {
			err = out.put(keyContent, inner)
		}
	case *Code:
		err = firstErr(
			out.put(keyContent, p.Text),
			out.putOpt(keyLanguage, p.Language, p.Language != nil),
			out.putOpt(keyFilename, p.Filename, p.Filename != nil),
		)
	case *List:
		err = firstErr(
			out.putOpt(keyContent, p.Items, p.Items != nil),
			out.putOpt(keyListType, p.Kind, p.Kind != ""),
		)
	case *Quote:
		err = firstErr(
			out.put(keyContent, p.Text),
			out.putOpt(keyAuthor, p.Author, p.Author != nil),
		)
	case *Link:
		var inner Raw
		inner, err = encodeLink(p)
		if err == nil {
			err = out.put(keyContent, inner)
		}
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage(out))
}

func encodeImage(p *Image) (Raw, error) {
	inner := p.Extra.clone()
	if inner == nil {
		inner = Raw{}
	}
	err := firstErr(
		inner.put(keyURL, p.URL),
		inner.put(keyAlt, p.Alt),
		inner.putOpt(keyCaption, p.Caption, p.Caption != nil),
		inner.putOpt(keyWidth, p.Width, p.Width != nil),
		inner.putOpt(keyHeight, p.Height, p.Height != nil),
	)
	return inner, err
}

func encodeLink(p *Link) (Raw, error) {
	inner := p.Extra.clone()
	if inner == nil {
		inner = Raw{}
	}
	err := firstErr(
		inner.put(keyURL, p.URL),
		inner.put(keyTitle, p.Title),
		inner.putOpt(keyDescription, p.Description, p.Description != nil),
		inner.putOpt(keyImage, p.Image, p.Image != nil),
	)
	return inner, err
}

// takeObject pulls the nested content object used by image and link blocks.
func takeObject(raw Raw) (Raw, bool) {
	var inner Raw
	if !raw.take(keyContent, &inner) {
		return nil, false
	}
	if inner == nil {
		inner = Raw{}
	}
	return inner, true
}

func nonEmpty(r Raw) Raw {
	if len(r) == 0 {
		return nil
	}
	return maps.Clone(r)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
