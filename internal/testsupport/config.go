package testsupport

import (
	"path/filepath"
	"testing"

	"torrup/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Tracker.AnnounceKey = "test-announce-key"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAnnounceKey overrides the tracker announce key on the test config.
func WithAnnounceKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Tracker.AnnounceKey = key
	}
}
