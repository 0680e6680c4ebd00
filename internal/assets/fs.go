package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/storage"
)

// URLPrefix is where FS-backed assets are served.
const URLPrefix = "/assets/"

// FS keeps assets next to the projects in the file store.
type FS struct {
	store storage.Provider
}

// NewFS returns an FS backend over store.
func NewFS(store storage.Provider) *FS {
	return &FS{store: store}
}

// Backend returns "fs".
func (f *FS) Backend() string { return "fs" }

// URL serves the asset under URLPrefix.
func (f *FS) URL(name string) string { return URLPrefix + name }

func objectPath(name string) string { return storage.AssetsDir + "/" + name }

// Put stores data without replacing an existing asset.
func (f *FS) Put(_ context.Context, name string, data []byte) (Asset, error) {
	if !ValidName(name) {
		return Asset{}, fmt.Errorf("assets: bad name %q: %w", name, apperr.ErrInvalidAsset)
	}
	err := f.store.Create(objectPath(name), data)
	if errors.Is(err, fs.ErrExist) {
		return Asset{}, fmt.Errorf("assets: %s: %w", name, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return Asset{}, err
	}
	return Asset{Name: name, URL: f.URL(name), Size: len(data), ContentType: ContentType(name)}, nil
}

// Get reads the asset from the file store.
func (f *FS) Get(_ context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
	}
	data, err := f.store.Read(objectPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
	}
	return data, err
}

// Delete removes the asset from the file store.
func (f *FS) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
	}
	err := f.store.Delete(objectPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
	}
	return err
}
