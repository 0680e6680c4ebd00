// Package docservice coordinates the store, index, asset backend and event
// broker around project documents.
package docservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/starford/folio/internal/anchor"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/assets"
	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/readtime"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/toc"
)

// Publisher receives project change notifications.
type Publisher interface {
	PublishProjectEvent(kind string, ev sse.ProjectEvent)
}

// Options configures a Service. Zero values are usable.
type Options struct {
	Assets        assets.Store
	Events        Publisher
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Reader        toc.Options
	MaxAssetBytes int
	CacheTTL      time.Duration
	CacheCleanup  time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service coordinates storage and index operations.
type Service struct {
	store   storage.Provider
	db      index.ProjectIndex
	assets  assets.Store
	events  Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
	reader  toc.Options
	maxSize int
	cache   *gocache.Cache
	now     func() time.Time

	// mu serializes read-check-write sequences against the store.
	mu sync.Mutex
}

// New creates a document service.
func New(store storage.Provider, db index.ProjectIndex, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reader == (toc.Options{}) {
		opts.Reader = toc.DefaultOptions()
	}
	if opts.MaxAssetBytes <= 0 {
		opts.MaxAssetBytes = assets.DefaultMaxBytes
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.CacheCleanup == 0 {
		opts.CacheCleanup = 2 * opts.CacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:   store,
		db:      db,
		assets:  opts.Assets,
		events:  opts.Events,
		metrics: opts.Metrics,
		log:     opts.Logger,
		reader:  opts.Reader,
		maxSize: opts.MaxAssetBytes,
		cache:   gocache.New(opts.CacheTTL, opts.CacheCleanup),
		now:     opts.Now,
	}
}

// Reader returns the scroll-tracking options handed to readers.
func (s *Service) Reader() toc.Options { return s.reader }

// ValidSlug reports whether slug is already in normalized form.
func ValidSlug(slug string) bool {
	return slug != "" && anchor.Slug(slug) == slug
}

// LoadDocument reads and decodes the project stored under slug.
func (s *Service) LoadDocument(_ context.Context, slug string) (*models.Project, error) {
	p, err := s.load(slug)
	s.metrics.RecordDocumentOp("load", ignoreNotFound(err))
	return p, err
}

func (s *Service) load(slug string) (*models.Project, error) {
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("docservice: %q: %w", slug, apperr.ErrNotFound)
	}
	data, err := s.store.Read(storage.ProjectPath(slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("docservice: %s: %w", slug, apperr.ErrNotFound)
		}
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	p := res.Project
	p.Slug = slug
	p.Checksum = checksum.Sum(data)
	if p.Content == nil {
		p.Content = block.Document{}
	}
	return p, nil
}

// CreateDocument stores a new project. An empty slug is derived from the
// title with the heading slug rules.
func (s *Service) CreateDocument(_ context.Context, p models.Project) (*models.Project, error) {
	if p.Slug == "" {
		p.Slug = anchor.Slug(p.Title)
	}
	if err := validateProject(&p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.write(&p, s.store.Create); err != nil {
		if errors.Is(err, fs.ErrExist) {
			err = fmt.Errorf("docservice: %s: %w", p.Slug, apperr.ErrAlreadyExists)
		}
		s.metrics.RecordDocumentOp("create", err)
		return nil, err
	}
	s.metrics.RecordDocumentOp("create", nil)
	s.publish(sse.KindCreated, &p)
	s.log.Info("docservice: created", slog.String("slug", p.Slug))
	return &p, nil
}

// SaveDocument replaces the project under slug. When ifMatch is non-empty it
// must equal the checksum of the stored record. Reading time is recomputed
// and written with the blocks.
func (s *Service) SaveDocument(_ context.Context, slug string, p models.Project, ifMatch string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.save(slug, p, ifMatch)
	s.metrics.RecordDocumentOp("save", err)
	return out, err
}

func (s *Service) save(slug string, p models.Project, ifMatch string) (*models.Project, error) {
	existing, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != existing.Checksum {
		return nil, fmt.Errorf("docservice: %s changed since %s: %w", slug, ifMatch, apperr.ErrConflict)
	}
	p.Slug = slug
	if err := validateProject(&p); err != nil {
		return nil, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	if err := s.write(&p, s.store.Write); err != nil {
		return nil, err
	}
	s.publish(sse.KindUpdated, &p)
	return &p, nil
}

// RenameDocument moves a project to a new slug.
func (s *Service) RenameDocument(_ context.Context, slug, newSlug string) (*models.Project, error) {
	if !ValidSlug(newSlug) {
		return nil, fmt.Errorf("docservice: slug %q is not normalized: %w", newSlug, apperr.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if newSlug == slug {
		return p, nil
	}
	if err := s.store.Move(storage.ProjectPath(slug), storage.ProjectPath(newSlug)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("docservice: %s: %w", newSlug, apperr.ErrAlreadyExists)
		}
		return nil, err
	}
	if err := s.db.DeleteProject(slug); err != nil {
		return nil, err
	}
	s.Invalidate(slug)
	s.publish(sse.KindDeleted, p)

	p.Slug = newSlug
	p.UpdatedAt = s.now().UTC()
	if err := s.write(p, s.store.Write); err != nil {
		return nil, err
	}
	s.publish(sse.KindCreated, p)
	s.log.Info("docservice: renamed", slog.String("from", slug), slog.String("to", newSlug))
	return p, nil
}

// DeleteDocument removes a project from storage and index.
func (s *Service) DeleteDocument(_ context.Context, slug string) error {
	if !ValidSlug(slug) {
		return fmt.Errorf("docservice: %q: %w", slug, apperr.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(storage.ProjectPath(slug)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("docservice: %s: %w", slug, apperr.ErrNotFound)
		}
		s.metrics.RecordDocumentOp("delete", err)
		return err
	}
	s.metrics.RecordDocumentOp("delete", nil)
	s.Invalidate(slug)
	if s.events != nil {
		s.events.PublishProjectEvent(sse.KindDeleted, sse.ProjectEvent{Slug: slug})
	}
	return s.db.DeleteProject(slug)
}

// write stamps reading time, stores p through put and indexes the stored
// bytes. Callers hold mu.
func (s *Service) write(p *models.Project, put func(path string, data []byte) error) error {
	if p.Content == nil {
		p.Content = block.Document{}
	}
	minutes := readtime.Estimate(p.Content)
	p.ReadingTime = &minutes

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("docservice: encode %s: %w", p.Slug, err)
	}
	if err := put(storage.ProjectPath(p.Slug), data); err != nil {
		return err
	}
	p.Checksum = checksum.Sum(data)
	s.metrics.ObserveReadingTime(minutes)
	if err := index.IndexProject(s.db, p.Slug, data, p.UpdatedAt); err != nil {
		return fmt.Errorf("docservice: index %s: %w", p.Slug, err)
	}
	return nil
}

func (s *Service) publish(kind string, p *models.Project) {
	if s.events == nil {
		return
	}
	s.events.PublishProjectEvent(kind, sse.ProjectEvent{Slug: p.Slug, Checksum: p.Checksum})
}

func validateProject(p *models.Project) error {
	if p.Status == "" {
		p.Status = models.StatusInProgress
	}
	p.Title = strings.TrimSpace(p.Title)
	err := validation.ValidateStruct(p,
		validation.Field(&p.Slug, validation.Required, validation.By(func(any) error {
			if !ValidSlug(p.Slug) {
				return errors.New("must be lower-case letters, digits and single dashes")
			}
			return nil
		})),
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Status, validation.By(func(any) error {
			if !p.Status.Valid() {
				return fmt.Errorf("must be %q or %q", models.StatusInProgress, models.StatusCompleted)
			}
			return nil
		})),
		validation.Field(&p.Content, validation.By(func(any) error {
			return uniqueBlockIDs(p.Content)
		})),
	)
	if err != nil {
		return fmt.Errorf("docservice: %w: %w", apperr.ErrInvalid, err)
	}
	return nil
}

// uniqueBlockIDs reports the first empty or repeated block id in doc.
func uniqueBlockIDs(doc block.Document) error {
	seen := make(map[string]int, len(doc))
	for i, b := range doc {
		if b.ID == "" {
			return fmt.Errorf("block %d has an empty id", i)
		}
		if j, dup := seen[b.ID]; dup {
			return fmt.Errorf("block %d repeats id %q of block %d", i, b.ID, j)
		}
		seen[b.ID] = i
	}
	return nil
}

// ListDocuments returns project summaries, newest first.
func (s *Service) ListDocuments(_ context.Context, opts index.ListOptions) ([]models.ProjectSummary, int, error) {
	rows, total, err := s.db.ListProjects(opts)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.ProjectSummary, len(rows))
	for i, r := range rows {
		out[i] = r.Summary()
	}
	return out, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(query, limit)
}

// References lists the blocks that point at url.
func (s *Service) References(_ context.Context, url string) ([]models.Reference, error) {
	return s.db.References(url)
}

// UploadAsset validates and stores an image. hint is a file name or stem.
func (s *Service) UploadAsset(ctx context.Context, hint string, data []byte) (assets.Asset, error) {
	if s.assets == nil {
		return assets.Asset{}, fmt.Errorf("docservice: no asset backend: %w", apperr.ErrUnavailable)
	}
	a, err := assets.Upload(ctx, s.assets, hint, "", data, s.maxSize, s.now())
	s.metrics.RecordUpload(s.assets.Backend(), err)
	if err != nil {
		return assets.Asset{}, err
	}
	s.log.Info("docservice: asset stored", slog.String("name", a.Name), slog.Int("size", a.Size))
	return a, nil
}

// UploadAssetFrom fetches an http(s) URL or data URI and stores it.
func (s *Service) UploadAssetFrom(ctx context.Context, rawURL, filename string) (assets.Asset, error) {
	if s.assets == nil {
		return assets.Asset{}, fmt.Errorf("docservice: no asset backend: %w", apperr.ErrUnavailable)
	}
	f, err := assets.Fetch(ctx, rawURL, s.maxSize)
	if err != nil {
		s.metrics.RecordUpload(s.assets.Backend(), err)
		return assets.Asset{}, err
	}
	hint := filename
	if hint == "" {
		hint = f.Hint
	}
	a, err := assets.Upload(ctx, s.assets, hint, f.Ext, f.Data, s.maxSize, s.now())
	s.metrics.RecordUpload(s.assets.Backend(), err)
	return a, err
}

// Asset returns stored asset bytes for serving.
func (s *Service) Asset(ctx context.Context, name string) ([]byte, error) {
	if s.assets == nil {
		return nil, fmt.Errorf("docservice: %s: %w", name, apperr.ErrNotFound)
	}
	return s.assets.Get(ctx, name)
}

// DeleteAsset removes a stored asset. An asset still referenced by a block
// is kept and reported as a conflict.
func (s *Service) DeleteAsset(ctx context.Context, name string) error {
	if s.assets == nil || !assets.ValidName(name) {
		return fmt.Errorf("docservice: %s: %w", name, apperr.ErrNotFound)
	}
	refs, err := s.db.References(s.assets.URL(name))
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return fmt.Errorf("docservice: %s is used by %s: %w", name, refs[0].Slug, apperr.ErrConflict)
	}
	if err := s.assets.Delete(ctx, name); err != nil {
		return err
	}
	s.log.Info("docservice: asset deleted", slog.String("name", name))
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}
