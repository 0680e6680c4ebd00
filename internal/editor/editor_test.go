package editor

import (
	"encoding/json"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/block"
)

func ids(doc block.Document) []string {
	out := make([]string, len(doc))
	for i, b := range doc {
		out[i] = b.ID
	}
	return out
}

func seed(n int) block.Document {
	doc := make(block.Document, n)
	for i := range doc {
		doc[i] = block.Block{ID: string(rune('a' + i)), Payload: &block.Paragraph{Text: "p"}}
	}
	return doc
}

func TestAddBlock(t *testing.T) {
	var seen []block.Document
	e := New(seed(2), func(d block.Document) { seen = append(seen, d) })
	prior := e.Document()

	b := e.AddBlock(block.TypeHeading)

	require.Equal(t, 3, e.Len())
	assert.Equal(t, b.ID, e.Document()[2].ID)
	assert.NotContains(t, ids(prior), b.ID)
	assert.Equal(t, block.DefaultLevel, b.Payload.(*block.Heading).Level)
	require.Len(t, seen, 1)
	assert.Len(t, prior, 2, "earlier snapshot must not change")
}

func TestAddBlock_UnknownTypePanics(t *testing.T) {
	e := New(nil, nil)
	assert.Panics(t, func() { e.AddBlock("video") })
}

func TestUpdateBlock_MissingIDIsNoop(t *testing.T) {
	doc := block.Document{
		{ID: "h", Payload: &block.Heading{Text: "Setup", Level: 2}},
		{ID: "p", Payload: &block.Paragraph{Text: "Install deps."}},
	}
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	calls := 0
	e := New(doc, func(block.Document) { calls++ })
	assert.False(t, e.UpdateBlock("missing-id", block.Patch{Text: block.Ptr("x")}))

	after, err := json.Marshal(e.Document())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Zero(t, calls)
}

func TestUpdateBlock_MergesOnlyTarget(t *testing.T) {
	e := New(block.Document{
		{ID: "i", Payload: &block.Image{URL: "/a.png", Alt: "old"}},
		{ID: "p", Payload: &block.Paragraph{Text: "keep"}},
	}, nil)
	require.True(t, e.UpdateBlock("i", block.Patch{Alt: block.Ptr("new")}))

	img := e.Document()[0].Payload.(*block.Image)
	assert.Equal(t, "/a.png", img.URL)
	assert.Equal(t, "new", img.Alt)
	assert.Equal(t, "keep", e.Document()[1].Payload.(*block.Paragraph).Text)
	assert.Equal(t, []string{"i", "p"}, ids(e.Document()))
}

func TestDeleteBlock(t *testing.T) {
	e := New(seed(4), nil)
	require.True(t, e.DeleteBlock("b"))
	assert.Equal(t, []string{"a", "c", "d"}, ids(e.Document()))
	assert.False(t, e.DeleteBlock("b"))
	assert.Equal(t, 3, e.Len())
}

func TestReorderBlocks(t *testing.T) {
	cases := []struct {
		from, to int
		want     []string
	}{
		{0, 3, []string{"b", "c", "d", "a"}},
		{3, 0, []string{"d", "a", "b", "c"}},
		{1, 2, []string{"a", "c", "b", "d"}},
		{2, 2, []string{"a", "b", "c", "d"}},
	}
	for _, tc := range cases {
		e := New(seed(4), nil)
		e.ReorderBlocks(tc.from, tc.to)
		assert.Equal(t, tc.want, ids(e.Document()), "move %d->%d", tc.from, tc.to)
	}
}

func TestReorderBlocks_OutOfRangePanics(t *testing.T) {
	e := New(seed(2), nil)
	assert.Panics(t, func() { e.ReorderBlocks(0, 2) })
	assert.Panics(t, func() { e.ReorderBlocks(-1, 0) })
}

func TestMutations_PreserveIDSet(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	e := New(seed(6), nil)
	for range 200 {
		before := ids(e.Document())
		switch r.IntN(3) {
		case 0:
			e.ReorderBlocks(r.IntN(e.Len()), r.IntN(e.Len()))
			after := ids(e.Document())
			assert.ElementsMatch(t, before, after)
		case 1:
			b := e.AddBlock(block.Types[r.IntN(len(block.Types))])
			assert.Equal(t, len(before)+1, e.Len())
			assert.NotContains(t, before, b.ID)
		case 2:
			if e.Len() == 1 {
				continue
			}
			victim := before[r.IntN(len(before))]
			e.DeleteBlock(victim)
			assert.Equal(t, len(before)-1, e.Len())
			assert.NotContains(t, ids(e.Document()), victim)
		}
		got := ids(e.Document())
		sorted := slices.Clone(got)
		slices.Sort(sorted)
		assert.Len(t, slices.Compact(sorted), len(got), "ids must stay unique")
	}
}

func TestListItems(t *testing.T) {
	e := New(nil, nil)
	l := e.AddBlock(block.TypeList)

	require.True(t, e.AddItem(l.ID))
	require.True(t, e.AddItem(l.ID))
	require.True(t, e.AddItem(l.ID))
	require.True(t, e.UpdateItem(l.ID, 0, "one"))
	require.True(t, e.UpdateItem(l.ID, 1, "two"))
	require.True(t, e.UpdateItem(l.ID, 2, "three"))
	snapshot := e.Document()

	require.True(t, e.RemoveItem(l.ID, 1))
	assert.Equal(t, []string{"one", "three"}, e.Document()[0].Payload.(*block.List).Items)
	assert.Equal(t, []string{"one", "two", "three"}, snapshot[0].Payload.(*block.List).Items)

	require.True(t, e.RemoveItem(l.ID, 0))
	require.True(t, e.RemoveItem(l.ID, 0))
	items := e.Document()[0].Payload.(*block.List).Items
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListItems_BadTargets(t *testing.T) {
	e := New(block.Document{{ID: "p", Payload: &block.Paragraph{}}, {ID: "l", Payload: &block.List{Items: []string{"x"}}}}, nil)
	assert.False(t, e.AddItem("missing"))
	assert.False(t, e.AddItem("p"))
	assert.Panics(t, func() { e.UpdateItem("l", 1, "y") })
	assert.Panics(t, func() { e.RemoveItem("l", -1) })
}

func TestDrag_DropCommitsMove(t *testing.T) {
	calls := 0
	e := New(seed(3), func(block.Document) { calls++ })
	e.BeginDrag(0)
	phase, src := e.Drag()
	assert.Equal(t, Dragging, phase)
	assert.Equal(t, 0, src)

	assert.True(t, e.Drop(2))
	assert.Equal(t, []string{"b", "c", "a"}, ids(e.Document()))
	phase, _ = e.Drag()
	assert.Equal(t, Idle, phase)
	assert.Equal(t, 1, calls)
}

func TestDrag_CancelLeavesOrder(t *testing.T) {
	calls := 0
	e := New(seed(3), func(block.Document) { calls++ })

	e.BeginDrag(1)
	e.CancelDrag()
	assert.False(t, e.Drop(0), "drop after cancel")

	e.BeginDrag(1)
	assert.False(t, e.Drop(7), "drop outside the document")

	e.BeginDrag(1)
	assert.False(t, e.Drop(-1))

	e.BeginDrag(1)
	assert.False(t, e.Drop(1), "drop on itself")

	assert.Equal(t, []string{"a", "b", "c"}, ids(e.Document()))
	assert.Zero(t, calls)
	phase, _ := e.Drag()
	assert.Equal(t, Idle, phase)
}

func TestDrag_SourceDeletedMidDrag(t *testing.T) {
	calls := 0
	e := New(seed(3), func(block.Document) { calls++ })

	e.BeginDrag(2)
	require.True(t, e.DeleteBlock("c"))
	phase, _ := e.Drag()
	assert.Equal(t, Idle, phase)

	assert.NotPanics(t, func() { assert.False(t, e.Drop(0)) })
	assert.Equal(t, []string{"a", "b"}, ids(e.Document()))
	assert.Equal(t, 1, calls)
}

func TestDrag_FollowsBlockAcrossEdits(t *testing.T) {
	e := New(seed(3), nil)

	e.BeginDrag(2)
	require.True(t, e.DeleteBlock("a"))
	_, src := e.Drag()
	assert.Equal(t, 1, src)

	assert.True(t, e.Drop(0))
	assert.Equal(t, []string{"c", "b"}, ids(e.Document()))
}

func TestDrag_BeginOutOfRangePanics(t *testing.T) {
	e := New(seed(1), nil)
	assert.Panics(t, func() { e.BeginDrag(1) })
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, "javascript", Languages[0].Value)
	assert.Equal(t, block.DefaultCodeLanguage, Languages[0].Value)
	types := BlockTypes()
	require.Len(t, types, 8)
	assert.Equal(t, Option{Value: "paragraph", Label: "Paragraph"}, types[0])
}
