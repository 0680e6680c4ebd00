package readtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/folio/internal/block"
)

func para(words int) block.Block {
	return block.Block{ID: "p", Payload: &block.Paragraph{Text: strings.TrimSpace(strings.Repeat("word ", words))}}
}

func TestEstimate_Empty(t *testing.T) {
	assert.Equal(t, 0, Estimate(nil))
	assert.Equal(t, 0, Estimate(block.Document{{ID: "d", Payload: &block.Divider{}}, para(0)}))
}

func TestEstimate_RoundsUp(t *testing.T) {
	assert.Equal(t, 1, Estimate(block.Document{para(1)}))
	assert.Equal(t, 1, Estimate(block.Document{para(200)}))
	assert.Equal(t, 2, Estimate(block.Document{para(201)}))
}

func TestWords_PerVariant(t *testing.T) {
	cases := []struct {
		name string
		p    block.Payload
		want int
	}{
		{"paragraph", &block.Paragraph{Text: "  one two\tthree\n"}, 3},
		{"heading", &block.Heading{Text: "Getting started", Level: 2}, 2},
		{"quote", &block.Quote{Text: "ship it", Author: block.Ptr("Ada Lovelace")}, 2},
		{"list", &block.List{Items: []string{"a b", "", "c"}}, 3},
		{"code", &block.Code{Text: "a := 1\nb := 2\n\nreturn a+b\n"}, 6},
		{"code blank lines", &block.Code{Text: "\n\nx()\n \t\r\n\ny()"}, 4},
		{"empty code", &block.Code{Text: "\n \n"}, 0},
		{"image", &block.Image{URL: "x", Alt: "lots of alt words"}, 0},
		{"link", &block.Link{URL: "x", Title: "a title"}, 0},
		{"divider", &block.Divider{}, 0},
		{"unknown", &block.Unknown{Kind: "video"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Words(block.Block{Payload: tc.p}))
		})
	}
}

func TestEstimate_MonotonicInWords(t *testing.T) {
	doc := block.Document{para(0), {ID: "c", Payload: &block.Code{}}}
	prev := Estimate(doc)
	for i := 1; i <= 600; i++ {
		doc[0] = para(i)
		if i%3 == 0 {
			doc[1].Payload.(*block.Code).Text += "x\n"
		}
		got := Estimate(doc)
		assert.GreaterOrEqual(t, got, prev, "at %d words", i)
		prev = got
	}
	assert.Equal(t, 5, prev)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, 0, Fallback(0))
	assert.Equal(t, 1, Fallback(1))
	assert.Equal(t, 1, Fallback(2))
	assert.Equal(t, 3, Fallback(5))
}
