package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the store directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string { return f.root }

// Abs resolves a relative store path, rejecting paths that escape the root.
func (f *FS) Abs(rel string) (string, error) { return f.safePath(rel) }

// safePath resolves a relative path against the store root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes store root: %s", rel)
	}
	return abs, nil
}

// List walks dir and returns metadata for every file ending in ext. A
// missing dir yields an empty list.
func (f *FS) List(dir, ext string) ([]models.FileMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.FileMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == base && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) || isTemp(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, models.FileMetadata{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a stored file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically replaces path with content.
func (f *FS) Write(path string, content []byte) error {
	abs, tmp, err := f.stage(path, content)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return syncDir(filepath.Dir(abs))
}

// Create writes content to path only if nothing is stored there yet. An
// existing file is left alone and reported as fs.ErrExist. The check and
// the write are one hard-link step, so concurrent creators cannot both win.
func (f *FS) Create(path string, content []byte) error {
	abs, tmp, err := f.stage(path, content)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if err := os.Link(tmp, abs); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("storage: create %s: %w", path, fs.ErrExist)
		}
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	return syncDir(filepath.Dir(abs))
}

// stage writes content to an fsynced temp file next to path and returns
// both absolute names. The caller owns the temp file.
func (f *FS) stage(path string, content []byte) (abs, tmpName string, err error) {
	abs, err = f.safePath(path)
	if err != nil {
		return "", "", err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", "", fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName = tmp.Name()

	fail := func(err error) (string, string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", "", err
	}
	if _, err := tmp.Write(content); err != nil {
		return fail(fmt.Errorf("storage: write temp: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("storage: fsync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", "", fmt.Errorf("storage: close temp: %w", err)
	}
	return abs, tmpName, nil
}

// syncDir makes a rename or link in dir durable. Platforms that cannot
// fsync a directory are ignored.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("storage: open dir: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) && !errors.Is(err, errors.ErrUnsupported) {
		return fmt.Errorf("storage: fsync dir: %w", err)
	}
	return nil
}

// Delete removes a stored file.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// Move renames a stored file. An existing target is left alone and
// reported as fs.ErrExist.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	// Link refuses to replace the target; the old name is dropped after.
	if err := os.Link(absOld, absNew); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("storage: move to %s: %w", newPath, fs.ErrExist)
		}
		return fmt.Errorf("storage: move: %w", err)
	}
	if err := os.Remove(absOld); err != nil {
		return fmt.Errorf("storage: move: remove %s: %w", oldPath, err)
	}
	return syncDir(filepath.Dir(absNew))
}

// Exists reports whether path names a stored regular file.
func (f *FS) Exists(path string) (bool, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

const tempPrefix = ".folio-tmp-"

func isTemp(name string) bool { return strings.HasPrefix(name, tempPrefix) }
