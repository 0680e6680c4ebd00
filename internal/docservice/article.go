package docservice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/toc"
)

// Article is a rendered project as a reader receives it.
type Article struct {
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Checksum    string      `json:"checksum"`
	HTML        string      `json:"html"`
	TOC         []toc.Item  `json:"toc"`
	ReadingTime int         `json:"reading_time"`
	Empty       bool        `json:"empty"`
	Reader      toc.Options `json:"reader"`
}

func cacheKey(slug, sum string) string { return slug + "@" + sum }

// Article renders the project under slug. Results are cached per stored
// checksum, so a save never serves a stale render.
func (s *Service) Article(_ context.Context, slug string) (*Article, error) {
	p, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	key := cacheKey(slug, p.Checksum)
	if v, ok := s.cache.Get(key); ok {
		s.metrics.RecordCache(true)
		return v.(*Article), nil
	}
	s.metrics.RecordCache(false)

	a := s.render(p)
	s.cache.Set(key, a, gocache.DefaultExpiration)
	return a, nil
}

func (s *Service) render(p *models.Project) *Article {
	start := time.Now()
	out := render.Render(p.Content)
	html := out.HTML()
	s.metrics.ObserveRender(time.Since(start))
	s.log.Debug("docservice: rendered", slog.String("slug", p.Slug), slog.Int("elements", len(out.Elements)))

	items := toc.Build(p.Content)
	if items == nil {
		items = []toc.Item{}
	}
	return &Article{
		Slug:        p.Slug,
		Title:       p.Title,
		Checksum:    p.Checksum,
		HTML:        html,
		TOC:         items,
		ReadingTime: p.Minutes(),
		Empty:       out.Empty(),
		Reader:      s.reader,
	}
}

// TOC returns the table of contents of the project under slug.
func (s *Service) TOC(ctx context.Context, slug string) ([]toc.Item, error) {
	a, err := s.Article(ctx, slug)
	if err != nil {
		return nil, err
	}
	return a.TOC, nil
}

// Invalidate drops every cached render of slug.
func (s *Service) Invalidate(slug string) {
	prefix := slug + "@"
	for k := range s.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Delete(k)
		}
	}
}
