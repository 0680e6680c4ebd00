// Package storage is the durable file store behind projects and assets.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/models"
)

// Layout of the store root.
const (
	ProjectsDir = "projects"
	AssetsDir   = "assets"
	ProjectExt  = ".json"
)

// Provider is the interface for store file operations. Paths are relative
// to the store root.
type Provider interface {
	// List returns metadata for every file under dir whose name ends in ext.
	List(dir, ext string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path. Missing files wrap
	// fs.ErrNotExist.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, replacing any file there.
	Write(path string, content []byte) error
	// Create writes content to path unless a file is already stored there,
	// in which case it returns an error wrapping fs.ErrExist.
	Create(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath. It fails if newPath exists.
	Move(oldPath, newPath string) error
	// Exists reports whether a file is stored at path.
	Exists(path string) (bool, error)
}

// ProjectPath returns the stored path of the project with the given slug.
func ProjectPath(slug string) string {
	return ProjectsDir + "/" + slug + ProjectExt
}

// SlugFromPath is the inverse of ProjectPath. Files nested below the
// projects directory are not projects.
func SlugFromPath(p string) (string, bool) {
	p = filepath.ToSlash(p)
	rest, ok := strings.CutPrefix(p, ProjectsDir+"/")
	if !ok || strings.Contains(rest, "/") {
		return "", false
	}
	slug, ok := strings.CutSuffix(rest, ProjectExt)
	if !ok || slug == "" || strings.HasPrefix(slug, ".") {
		return "", false
	}
	return slug, true
}
