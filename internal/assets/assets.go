// Package assets stores uploaded images for project documents. Uploads are
// checked against an extension allow-list and their leading bytes before a
// backend sees them.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
)

// DefaultMaxBytes bounds a single upload.
const DefaultMaxBytes = 10 << 20 // 10 MB

var (
	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".svg": true,
	}

	mimeToExt = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
	}

	safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Asset is a stored upload.
type Asset struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int    `json:"size"`
	ContentType string `json:"contentType"`
}

// Store is an asset backend. Names are flat; they never contain a slash.
type Store interface {
	// Backend names the implementation ("fs", "gcs") for logs and metrics.
	Backend() string
	// Put stores data under name. An existing name wraps apperr.ErrAlreadyExists.
	Put(ctx context.Context, name string, data []byte) (Asset, error)
	// Get returns the stored bytes. A missing name wraps apperr.ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes the stored object. A missing name wraps
	// apperr.ErrNotFound.
	Delete(ctx context.Context, name string) error
	// URL is the public address the renderer should reference.
	URL(name string) string
}

// Upload validates data, derives a unique name from hint and stores it.
// hint may be a file name or a bare stem such as the project slug; ext is
// used when hint carries no extension.
func Upload(ctx context.Context, st Store, hint, ext string, data []byte, maxBytes int, now time.Time) (Asset, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return Asset{}, fmt.Errorf("assets: empty upload: %w", apperr.ErrInvalidAsset)
	}
	if len(data) > maxBytes {
		return Asset{}, fmt.Errorf("assets: file too large: %d bytes (max %d): %w", len(data), maxBytes, apperr.ErrInvalidAsset)
	}
	name := Name(hint, ext, now)
	if err := Validate(name, data); err != nil {
		return Asset{}, err
	}
	return st.Put(ctx, name, data)
}

// Name builds "<stem>-<unixmilli><ext>" from a sanitized hint.
func Name(hint, ext string, now time.Time) string {
	base := sanitize(filepath.Base(hint))
	if e := filepath.Ext(base); e != "" && e != base {
		ext = e
		base = strings.TrimSuffix(base, e)
	}
	base = strings.Trim(base, "._-")
	if base == "" {
		base = uuid.New().String()
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + strings.ToLower(ext)
}

func sanitize(name string) string {
	if name == "." || name == "/" {
		return ""
	}
	return safeNameRe.ReplaceAllString(name, "_")
}

// ValidName reports whether name is a flat, already-sanitized asset name.
func ValidName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && sanitize(name) == name
}

// ContentType maps an asset name to its MIME type.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for mime, e := range mimeToExt {
		if e == ext {
			return mime
		}
	}
	return "application/octet-stream"
}

// Validate checks the extension of name against the allow-list and that
// data actually looks like that format.
func Validate(name string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("assets: unsupported file extension %q (allowed: png, jpg, jpeg, gif, webp, svg): %w", ext, apperr.ErrInvalidAsset)
	}
	if err := validateMagicBytes(data, ext); err != nil {
		return fmt.Errorf("assets: %w: %w", err, apperr.ErrInvalidAsset)
	}
	return nil
}

func validateMagicBytes(data []byte, ext string) error {
	if ext == ".svg" {
		prefix := data
		if len(prefix) > 1024 {
			prefix = prefix[:1024]
		}
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return nil
	}

	detected := http.DetectContentType(data)
	got := mimeToExt[strings.Split(detected, ";")[0]]
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if got != ext {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
