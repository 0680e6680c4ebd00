package toc

import (
	"context"
	"math"
	"sync"
)

// Rect is the vertical extent of an element in document coordinates.
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns the lower edge of r.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Layout reports where rendered headings currently sit. ok is false for ids
// that are not laid out.
type Layout interface {
	Bounds(id string) (r Rect, ok bool)
}

// LayoutFunc adapts a function to Layout.
type LayoutFunc func(id string) (Rect, bool)

func (f LayoutFunc) Bounds(id string) (Rect, bool) { return f(id) }

// Viewport is the visible window: scroll offset and height.
type Viewport struct {
	ScrollY float64
	Height  float64
}

// Options tune active-section tracking.
type Options struct {
	// BandTop and BandBottom inset the observed band from the top and the
	// bottom of the viewport, as fractions of its height.
	BandTop    float64 `json:"band_top" yaml:"band_top"`
	BandBottom float64 `json:"band_bottom" yaml:"band_bottom"`
	// HeaderOffset is the height of the fixed page header.
	HeaderOffset float64 `json:"header_offset" yaml:"header_offset"`
}

// DefaultOptions observe the band from 20% to 40% of the viewport height
// and leave room for a 100px header.
func DefaultOptions() Options {
	return Options{BandTop: 0.2, BandBottom: 0.6, HeaderOffset: 100}
}

// Tracker determines the active outline entry as the viewport moves and
// notifies subscribers when it changes. It is safe for concurrent use.
type Tracker struct {
	items  []Item
	layout Layout
	opts   Options

	mu     sync.Mutex
	active string
	subs   map[uint64]func(string)
	nextID uint64
}

// NewTracker returns a tracker over items laid out by layout.
func NewTracker(items []Item, layout Layout, opts Options) *Tracker {
	return &Tracker{
		items:  items,
		layout: layout,
		opts:   opts,
		subs:   make(map[uint64]func(string)),
	}
}

// Active returns the current active id, or "" before the first update.
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Subscription is a registered change callback. Close releases it and may be
// called more than once.
type Subscription struct {
	once  sync.Once
	close func()
}

// Close unregisters the callback.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.close != nil {
			s.close()
		}
	})
}

// Subscribe registers fn to be called with the new active id whenever it
// changes. A tracker without items observes nothing and never calls fn.
func (t *Tracker) Subscribe(fn func(id string)) *Subscription {
	if len(t.items) == 0 || fn == nil {
		return &Subscription{}
	}
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	return &Subscription{close: func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}}
}

// Subscribers returns the number of live subscriptions.
func (t *Tracker) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Update recomputes the active entry for vp. It reports the active id and
// whether it changed; subscribers are notified on change.
func (t *Tracker) Update(vp Viewport) (string, bool) {
	if len(t.items) == 0 {
		return "", false
	}
	next := t.pick(vp)

	t.mu.Lock()
	if next == "" || next == t.active {
		cur := t.active
		t.mu.Unlock()
		return cur, false
	}
	t.active = next
	fns := make([]func(string), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next, true
}

// Watch subscribes fn for as long as ctx is live and updates is open,
// feeding every viewport into Update. The subscription is released on every
// return path.
func (t *Tracker) Watch(ctx context.Context, updates <-chan Viewport, fn func(id string)) error {
	if len(t.items) == 0 {
		return nil
	}
	sub := t.Subscribe(fn)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case vp, ok := <-updates:
			if !ok {
				return nil
			}
			t.Update(vp)
		}
	}
}

// ScrollTarget returns the scroll offset that brings heading id just below
// the fixed header.
func (t *Tracker) ScrollTarget(id string) (float64, bool) {
	r, ok := t.layout.Bounds(id)
	if !ok {
		return 0, false
	}
	return math.Max(0, r.Top-t.opts.HeaderOffset), true
}

// pick selects the in-band heading with the largest overlap, earliest first
// on ties. With nothing in band it falls back to the heading closest to the
// viewport centre.
func (t *Tracker) pick(vp Viewport) string {
	bandTop := vp.ScrollY + vp.Height*t.opts.BandTop
	bandBottom := vp.ScrollY + vp.Height*(1-t.opts.BandBottom)
	center := vp.ScrollY + vp.Height/2

	best, bestOverlap := "", -1.0
	closest, closestDist := "", math.Inf(1)
	for _, it := range t.items {
		r, ok := t.layout.Bounds(it.ID)
		if !ok {
			continue
		}
		if overlap, in := intersect(r, bandTop, bandBottom); in && overlap > bestOverlap {
			best, bestOverlap = it.ID, overlap
		}
		if d := math.Abs(center - r.Top); d < closestDist {
			closest, closestDist = it.ID, d
		}
	}
	if best != "" {
		return best
	}
	return closest
}

func intersect(r Rect, top, bottom float64) (float64, bool) {
	if r.Height <= 0 {
		return 0, r.Top >= top && r.Top <= bottom
	}
	overlap := math.Min(r.Bottom(), bottom) - math.Max(r.Top, top)
	return overlap, overlap > 0
}
