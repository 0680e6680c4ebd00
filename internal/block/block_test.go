package block

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultPayloads(t *testing.T) {
	cases := []struct {
		typ   Type
		check func(t *testing.T, p Payload)
	}{
		{TypeParagraph, func(t *testing.T, p Payload) {
			assert.Equal(t, &Paragraph{}, p)
		}},
		{TypeHeading, func(t *testing.T, p Payload) {
			assert.Equal(t, DefaultLevel, p.(*Heading).Level)
		}},
		{TypeImage, func(t *testing.T, p Payload) {
			img := p.(*Image)
			assert.Empty(t, img.URL)
			require.NotNil(t, img.Caption)
			assert.Empty(t, *img.Caption)
		}},
		{TypeCode, func(t *testing.T, p Payload) {
			assert.Equal(t, DefaultCodeLanguage, Str(p.(*Code).Language))
		}},
		{TypeList, func(t *testing.T, p Payload) {
			l := p.(*List)
			assert.NotNil(t, l.Items)
			assert.Empty(t, l.Items)
			assert.Equal(t, ListBullet, l.Kind)
		}},
		{TypeQuote, func(t *testing.T, p Payload) {
			assert.Nil(t, p.(*Quote).Author)
		}},
		{TypeLink, func(t *testing.T, p Payload) {
			require.NotNil(t, p.(*Link).Description)
		}},
		{TypeDivider, func(t *testing.T, p Payload) {
			assert.Equal(t, &Divider{}, p)
		}},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			b := New(tc.typ, nil)
			assert.Equal(t, tc.typ, b.Type())
			assert.NotEmpty(t, b.ID)
			tc.check(t, b.Payload)
		})
	}
}

func TestNew_IDNotInDocument(t *testing.T) {
	var doc Document
	for range 50 {
		b := New(TypeParagraph, doc)
		_, dup := doc.IDs()[b.ID]
		require.False(t, dup, "id %q reused", b.ID)
		doc = append(doc, b)
	}
}

func TestClone_IsDeep(t *testing.T) {
	b := New(TypeList, nil)
	b.Payload.(*List).Items = []string{"a", "b"}
	c := b.Clone()
	c.Payload.(*List).Items[0] = "changed"
	assert.Equal(t, "a", b.Payload.(*List).Items[0])

	img := New(TypeImage, nil)
	ic := img.Clone()
	*ic.Payload.(*Image).Caption = "changed"
	assert.Empty(t, *img.Payload.(*Image).Caption)
}

func TestEffectiveLevel(t *testing.T) {
	assert.Equal(t, 2, EffectiveLevel(0))
	assert.Equal(t, 1, EffectiveLevel(-3))
	assert.Equal(t, 6, EffectiveLevel(9))
	assert.Equal(t, 4, EffectiveLevel(4))
}

func TestApply_MergesNestedFields(t *testing.T) {
	b := Block{ID: "img", Payload: &Image{URL: "https://x/a.png", Alt: "a", Caption: Ptr("cap")}}
	got := b.Apply(Patch{Alt: Ptr("new alt")})

	img := got.Payload.(*Image)
	assert.Equal(t, "https://x/a.png", img.URL)
	assert.Equal(t, "new alt", img.Alt)
	assert.Equal(t, "cap", Str(img.Caption))
	assert.Equal(t, "a", b.Payload.(*Image).Alt, "original must not change")
}

func TestApply_IgnoresFieldsOfOtherVariants(t *testing.T) {
	b := Block{ID: "p", Payload: &Paragraph{Text: "hi"}}
	got := b.Apply(Patch{Level: Ptr(3), URL: Ptr("x")})
	assert.Equal(t, b, got)
}

func TestApply_ClampsHeadingLevel(t *testing.T) {
	b := New(TypeHeading, nil)
	assert.Equal(t, 6, b.Apply(Patch{Level: Ptr(12)}).Payload.(*Heading).Level)
	assert.Equal(t, 1, b.Apply(Patch{Level: Ptr(0)}).Payload.(*Heading).Level)
}

func TestApply_SupersedesMalformedMember(t *testing.T) {
	var b Block
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"paragraph","content":42}`), &b))
	assert.Contains(t, b.Extra, "content")

	got := b.Apply(Patch{Text: Ptr("fixed")})
	assert.Nil(t, got.Extra)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","type":"paragraph","content":"fixed"}`, string(data))
}

func TestText(t *testing.T) {
	assert.Equal(t, "one\ntwo", Block{Payload: &List{Items: []string{"one", "", "two"}}}.Text())
	assert.Equal(t, "said\nme", Block{Payload: &Quote{Text: "said", Author: Ptr("me")}}.Text())
	assert.Empty(t, Block{Payload: &Divider{}}.Text())
}

func TestURLs(t *testing.T) {
	l := Block{Payload: &Link{URL: "https://a", Image: Ptr("https://b.png")}}
	assert.Equal(t, []string{"https://a", "https://b.png"}, l.URLs())
	assert.Nil(t, Block{Payload: &Image{}}.URLs())
}
