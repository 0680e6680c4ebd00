package toc

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/render"
)

func TestBuild_SetupScenario(t *testing.T) {
	doc := block.Document{
		{ID: "h", Payload: &block.Heading{Text: "Setup", Level: 2}},
		{ID: "p", Payload: &block.Paragraph{Text: "Install deps."}},
		{ID: "l", Payload: &block.List{Items: []string{"a", "b"}, Kind: block.ListBullet}},
	}
	assert.Equal(t, []Item{{ID: "heading-setup", Title: "Setup", Level: 2}}, Build(doc))
}

func TestBuild_NoHeadings(t *testing.T) {
	assert.Empty(t, Build(block.Document{{ID: "p", Payload: &block.Paragraph{Text: "x"}}}))
}

func TestBuild_MatchesRenderedAnchors(t *testing.T) {
	doc := block.Document{
		{ID: "a", Payload: &block.Heading{Text: "Intro", Level: 1}},
		{ID: "b", Payload: &block.Heading{Text: "Intro", Level: 3}},
		{ID: "c", Payload: &block.Heading{Text: "", Level: 0}},
	}
	items := Build(doc)
	require.Len(t, items, 3)
	assert.Equal(t, "heading-intro", items[0].ID)
	assert.Equal(t, "heading-intro-2", items[1].ID)
	assert.Equal(t, "heading-untitled", items[2].ID)
	assert.Equal(t, 2, items[2].Level)

	a := render.Render(doc)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, a.Anchors[id], items[i].ID)
	}

	fromHTML, err := FromHTML(strings.NewReader(a.HTML()))
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{ID: "heading-intro", Title: "Intro", Level: 1},
		{ID: "heading-intro-2", Title: "Intro", Level: 3},
		{ID: "heading-untitled", Title: "", Level: 2},
	}, fromHTML)
}

func TestFromHTML_IgnoresHeadingsWithoutID(t *testing.T) {
	items, err := FromHTML(strings.NewReader(`<h2>plain</h2><h3 id="x">X <em>y</em></h3><header id="h">no</header>`))
	require.NoError(t, err)
	assert.Equal(t, []Item{{ID: "x", Title: "X y", Level: 3}}, items)
}

// staticLayout places headings at fixed document offsets.
type staticLayout map[string]Rect

func (l staticLayout) Bounds(id string) (Rect, bool) {
	r, ok := l[id]
	return r, ok
}

func trackerFixture() *Tracker {
	items := []Item{{ID: "one"}, {ID: "two"}, {ID: "three"}}
	layout := staticLayout{
		"one":   {Top: 100, Height: 40},
		"two":   {Top: 900, Height: 40},
		"three": {Top: 2000, Height: 40},
	}
	return NewTracker(items, layout, DefaultOptions())
}

func TestTracker_InBand(t *testing.T) {
	tr := trackerFixture()
	// Band for scroll 700, height 1000 is 900..1100.
	id, changed := tr.Update(Viewport{ScrollY: 700, Height: 1000})
	assert.Equal(t, "two", id)
	assert.True(t, changed)
	assert.Equal(t, "two", tr.Active())

	_, changed = tr.Update(Viewport{ScrollY: 710, Height: 1000})
	assert.False(t, changed)
}

func TestTracker_LargestOverlapWins(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}}
	layout := staticLayout{
		"a": {Top: 190, Height: 20}, // overlaps band 200..400 by 10
		"b": {Top: 300, Height: 40}, // fully inside
	}
	tr := NewTracker(items, layout, DefaultOptions())
	id, _ := tr.Update(Viewport{ScrollY: 0, Height: 1000})
	assert.Equal(t, "b", id)
}

func TestTracker_TieGoesToEarlierHeading(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}}
	layout := staticLayout{
		"a": {Top: 220, Height: 30},
		"b": {Top: 300, Height: 30},
	}
	tr := NewTracker(items, layout, DefaultOptions())
	id, _ := tr.Update(Viewport{ScrollY: 0, Height: 1000})
	assert.Equal(t, "a", id)
}

func TestTracker_FallbackClosestToCenter(t *testing.T) {
	tr := trackerFixture()
	// Band 1700..1900 holds nothing; centre at 2000 sits on "three".
	id, _ := tr.Update(Viewport{ScrollY: 1500, Height: 1000})
	assert.Equal(t, "three", id)

	// Centre at 1350: "two" (900) is closer than "three" (2000).
	id, _ = tr.Update(Viewport{ScrollY: 850, Height: 1000})
	assert.Equal(t, "two", id)
}

func TestTracker_SubscribeAndClose(t *testing.T) {
	tr := trackerFixture()
	var got []string
	sub := tr.Subscribe(func(id string) { got = append(got, id) })
	assert.Equal(t, 1, tr.Subscribers())

	tr.Update(Viewport{ScrollY: 0, Height: 1000})
	tr.Update(Viewport{ScrollY: 700, Height: 1000})
	tr.Update(Viewport{ScrollY: 700, Height: 1000})

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, tr.Subscribers())
	tr.Update(Viewport{ScrollY: 1500, Height: 1000})

	assert.Equal(t, []string{"one", "two"}, got)
}

func TestTracker_NoItemsObservesNothing(t *testing.T) {
	tr := NewTracker(nil, staticLayout{}, DefaultOptions())
	called := false
	sub := tr.Subscribe(func(string) { called = true })
	defer sub.Close()
	assert.Equal(t, 0, tr.Subscribers())

	_, changed := tr.Update(Viewport{Height: 1000})
	assert.False(t, changed)
	assert.False(t, called)

	ch := make(chan Viewport)
	assert.NoError(t, tr.Watch(context.Background(), ch, func(string) { called = true }))
}

func TestTracker_WatchReleasesOnCancel(t *testing.T) {
	tr := trackerFixture()
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan Viewport)

	var mu sync.Mutex
	var seen []string
	done := make(chan error, 1)
	go func() {
		done <- tr.Watch(ctx, updates, func(id string) {
			mu.Lock()
			seen = append(seen, id)
			mu.Unlock()
		})
	}()

	updates <- Viewport{ScrollY: 700, Height: 1000}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
	assert.Equal(t, 0, tr.Subscribers())
	mu.Lock()
	assert.Equal(t, []string{"two"}, seen)
	mu.Unlock()
}

func TestTracker_WatchReturnsWhenUpdatesClose(t *testing.T) {
	tr := trackerFixture()
	updates := make(chan Viewport, 1)
	updates <- Viewport{ScrollY: 0, Height: 1000}
	close(updates)
	require.NoError(t, tr.Watch(context.Background(), updates, func(string) {}))
	assert.Equal(t, "one", tr.Active())
	assert.Equal(t, 0, tr.Subscribers())
}

func TestTracker_ScrollTarget(t *testing.T) {
	tr := trackerFixture()
	y, ok := tr.ScrollTarget("two")
	require.True(t, ok)
	assert.Equal(t, 800.0, y)

	y, ok = tr.ScrollTarget("one")
	require.True(t, ok)
	assert.Equal(t, 0.0, y)

	_, ok = tr.ScrollTarget("missing")
	assert.False(t, ok)
}
