package internal

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/kbhost/internal/webpage"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Host      HostConfig        `yaml:"host" toml:"host"`
	Bookmarks BookmarksConfig   `yaml:"bookmarks" toml:"bookmarks"`
	Index     IndexConfig       `yaml:"index" toml:"index"`
	Migrate   MigrateConfig     `yaml:"migrate" toml:"migrate"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Host.Validate(); err != nil {
		return err
	}
	return c.Migrate.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	// LogFile receives log lines when set. Stdout is never used for logs.
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// HostConfig tunes the native messaging loop.
type HostConfig struct {
	// LockTimeout bounds the wait for the knowledge base file lock. Zero
	// blocks until the lock is granted.
	LockTimeout     time.Duration `yaml:"lock_timeout" toml:"lock_timeout"`
	MaxMessageBytes uint32        `yaml:"max_message_bytes" toml:"max_message_bytes"`
}

// Validate validates the host configuration.
func (c *HostConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LockTimeout, validation.Min(time.Duration(0))),
	)
}

// BookmarksConfig holds bookmark store options.
type BookmarksConfig struct {
	StagedCreate bool `yaml:"staged_create" toml:"staged_create"`
}

// IndexConfig holds the bookmark catalog location. An empty path disables
// the catalog.
type IndexConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Enabled reports whether a catalog is configured.
func (c *IndexConfig) Enabled() bool {
	return c.Path != ""
}

// MigrateConfig holds the page fetching settings of kbctl migrate.
type MigrateConfig struct {
	Concurrency       int           `yaml:"concurrency" toml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second" toml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" toml:"timeout"`
	UserAgent         string        `yaml:"user_agent" toml:"user_agent"`
}

// Validate validates the migrate configuration.
func (c *MigrateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Migrate: MigrateConfig{
			Concurrency:       4,
			RequestsPerSecond: 1,
			Timeout:           webpage.DefaultFetchTimeout,
			UserAgent:         webpage.DefaultUserAgent,
		},
	}
}
