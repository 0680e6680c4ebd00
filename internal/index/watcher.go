package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, slug string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the projects directory under root and
// processes file change events until ctx is cancelled. It calls cb (if
// non-nil) after each index mutation caused by an out-of-band edit; writes
// whose checksum is already indexed are skipped.
//
// Rename events trigger a debounced reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db ProjectIndex, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Join(root, storage.ProjectsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind, slug string) {
		if cb != nil {
			cb(kind, slug)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			slug, isProject := storage.SlugFromPath(rel)
			if !isProject {
				continue
			}
			rel = storage.ProjectPath(slug)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				changed, idxErr := reindex(db, store, slug)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				if changed {
					logger.Debug("watcher: indexed", slog.String("slug", slug), slog.String("op", kind))
					notify(kind, slug)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteProject(slug); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("slug", slug), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("slug", slug))
				notify("deleted", slug)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only; the new path
				// arrives as a separate Create. Drop the old entry now and
				// reconcile shortly after to catch stragglers.
				if delErr := db.DeleteProject(slug); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("slug", slug), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("slug", slug))
					notify("deleted", slug)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reindex indexes the stored project unless its checksum is already current.
func reindex(db ProjectIndex, store storage.Provider, slug string) (bool, error) {
	data, err := store.Read(storage.ProjectPath(slug))
	if err != nil {
		return false, err
	}
	if cs, _ := db.GetChecksum(slug); cs == checksum.Sum(data) {
		return false, nil
	}
	return true, IndexProject(db, slug, data, time.Now())
}

// reconcile removes index entries without a file on disk and indexes files
// whose checksum differs from the index.
func reconcile(db ProjectIndex, store storage.Provider, logger *slog.Logger, notify func(kind, slug string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List(storage.ProjectsDir, storage.ProjectExt)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		if slug, ok := storage.SlugFromPath(m.Path); ok {
			disk[slug] = m.Checksum
		}
	}

	for slug := range checksums {
		if _, ok := disk[slug]; !ok {
			if delErr := db.DeleteProject(slug); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("slug", slug))
				notify("deleted", slug)
			}
		}
	}

	for slug, cs := range disk {
		if checksums[slug] == cs {
			continue
		}
		data, readErr := store.Read(storage.ProjectPath(slug))
		if readErr != nil {
			continue
		}
		if idxErr := IndexProject(db, slug, data, time.Now()); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("slug", slug))
			notify("created", slug)
		}
	}
}
