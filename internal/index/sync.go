package index

import (
	"log/slog"
	"time"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// Sync walks the projects directory and brings the index up to date:
//   - new/changed project files are parsed and upserted
//   - projects removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List(storage.ProjectsDir, storage.ProjectExt)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		slug, ok := storage.SlugFromPath(m.Path)
		if !ok {
			continue
		}
		disk[slug] = struct{}{}

		if checksums[slug] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexProject(db, slug, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("slug", slug))
		}
	}

	for slug := range checksums {
		if _, ok := disk[slug]; !ok {
			if err := db.DeleteProject(slug); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", slug))
			}
		}
	}

	return nil
}

// IndexProject parses stored project bytes and upserts them under slug.
// modTime stands in for timestamps the record does not carry.
func IndexProject(db ProjectIndex, slug string, data []byte, modTime time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	p := res.Project

	r := ProjectRow{
		Slug:        slug,
		Title:       res.Title,
		Excerpt:     p.Excerpt,
		ImageURL:    p.ImageURL,
		Status:      p.Status,
		Featured:    p.Featured,
		ReadingTime: p.Minutes(),
		Checksum:    checksum.Sum(data),
		Tags:        res.Tags,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = modTime
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.UpdatedAt
	}

	refs := make([]RefRow, len(res.Refs))
	for i, ref := range res.Refs {
		refs[i] = RefRow{URL: ref.URL, BlockID: ref.BlockID}
	}
	return db.UpsertProject(r, res.Body, refs)
}
