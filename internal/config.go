package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/assets"
	"github.com/starford/folio/internal/toc"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Asset backends.
const (
	AssetBackendFS  = "fs"
	AssetBackendGCS = "gcs"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Assets AssetsConfig      `yaml:"assets"`
	Cache  CacheConfig       `yaml:"cache"`
	Reader ReaderConfig      `yaml:"reader"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Reader.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the directory projects are stored in.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// AssetsConfig selects where uploaded images are stored.
type AssetsConfig struct {
	Backend  string           `yaml:"backend"`
	MaxBytes int              `yaml:"max_bytes"`
	GCS      assets.GCSConfig `yaml:"gcs"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = AssetBackendFS
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = assets.DefaultMaxBytes
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(AssetBackendFS, AssetBackendGCS)),
		validation.Field(&c.MaxBytes, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.Backend == AssetBackendGCS && c.GCS.Bucket == "" {
		return fmt.Errorf("assets: backend is %q but gcs.bucket is empty", AssetBackendGCS)
	}
	return nil
}

// CacheConfig controls the rendered article cache.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.CleanupInterval, validation.Min(time.Duration(0))),
	)
}

// ReaderConfig holds the scroll-tracking parameters handed to readers with
// every article.
type ReaderConfig struct {
	toc.Options `yaml:",inline"`
}

// Validate validates the reader configuration.
func (c *ReaderConfig) Validate() error {
	if err := validation.ValidateStruct(&c.Options,
		validation.Field(&c.Options.BandTop, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.Options.BandBottom, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.Options.HeaderOffset, validation.Min(0.0)),
	); err != nil {
		return err
	}
	if c.BandTop+c.BandBottom >= 1 {
		return fmt.Errorf("reader: band_top + band_bottom must leave part of the viewport observed")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Assets: AssetsConfig{
			Backend:  AssetBackendFS,
			MaxBytes: assets.DefaultMaxBytes,
		},
		Cache: CacheConfig{
			TTL:             10 * time.Minute,
			CleanupInterval: 20 * time.Minute,
		},
		Reader: ReaderConfig{Options: toc.DefaultOptions()},
	}
}
