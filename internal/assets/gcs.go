package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/starford/folio/internal/apperr"
)

// GCSConfig selects the bucket and how to reach it.
type GCSConfig struct {
	Bucket string `yaml:"bucket"`
	// CDNDomain, when set, fronts the bucket in public URLs.
	CDNDomain string `yaml:"cdn_domain"`
	// Prefix is prepended to object keys.
	Prefix string `yaml:"prefix"`
	// CredentialsFile is a service account key. Empty uses ADC.
	CredentialsFile string `yaml:"credentials_file"`
	// Endpoint points at an emulator; authentication is skipped.
	Endpoint string `yaml:"endpoint"`
}

// GCS stores assets in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	cfg    GCSConfig
}

// NewGCS opens a storage client for cfg.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/")), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint == "" {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("assets: gcs client: %w", err)
	}
	return newGCS(client, cfg), nil
}

func newGCS(client *storage.Client, cfg GCSConfig) *GCS {
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	cfg.CDNDomain = strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(cfg.CDNDomain, "https://"), "http://"), "/")
	return &GCS{client: client, cfg: cfg}
}

// Backend returns "gcs".
func (g *GCS) Backend() string { return "gcs" }

func (g *GCS) key(name string) string {
	if g.cfg.Prefix == "" {
		return name
	}
	return g.cfg.Prefix + "/" + name
}

// URL addresses the object through the CDN domain when one is set, else
// through the public storage endpoint.
func (g *GCS) URL(name string) string {
	if g.cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", g.cfg.CDNDomain, g.key(name))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.cfg.Bucket, g.key(name))
}

// Put uploads data only if the object does not exist yet; a lost race
// wraps apperr.ErrAlreadyExists.
func (g *GCS) Put(ctx context.Context, name string, data []byte) (Asset, error) {
	if !ValidName(name) {
		return Asset{}, fmt.Errorf("assets: bad name %q: %w", name, apperr.ErrInvalidAsset)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := g.client.Bucket(g.cfg.Bucket).Object(g.key(name)).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = ContentType(name)
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Asset{}, g.wrap("write", name, err)
	}
	if err := w.Close(); err != nil {
		return Asset{}, g.wrap("write", name, err)
	}
	return Asset{Name: name, URL: g.URL(name), Size: len(data), ContentType: w.ContentType}, nil
}

// Get downloads the object. A missing object wraps apperr.ErrNotFound.
func (g *GCS) Get(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	rc, err := g.client.Bucket(g.cfg.Bucket).Object(g.key(name)).NewReader(ctx)
	if err != nil {
		return nil, g.wrap("read", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, g.wrap("read", name, err)
	}
	return data, nil
}

// Delete removes the object. A missing object wraps apperr.ErrNotFound.
func (g *GCS) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("assets: %s: %w", name, apperr.ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := g.client.Bucket(g.cfg.Bucket).Object(g.key(name)).Delete(ctx); err != nil {
		return g.wrap("delete", name, err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCS) Close() error { return g.client.Close() }

func (g *GCS) wrap(op, name string, err error) error {
	var gerr *googleapi.Error
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return fmt.Errorf("assets: gcs %s %s: %w", op, name, apperr.ErrNotFound)
	case errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed:
		return fmt.Errorf("assets: gcs %s %s: %w", op, name, apperr.ErrAlreadyExists)
	}
	return fmt.Errorf("assets: gcs %s %s: %v: %w", op, name, err, apperr.ErrUnavailable)
}
