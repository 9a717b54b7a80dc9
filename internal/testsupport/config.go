package testsupport

import (
	"path/filepath"
	"testing"

	"playhead/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(base, "projects")
	cfg.Paths.StorePath = filepath.Join(base, "playhead.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithTickRate overrides the simulation tick rate on the test config.
func WithTickRate(rate int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.TickRate = rate
	}
}

// WithTimelineFPS overrides the default director frame rate.
func WithTimelineFPS(fps int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Director.TimelineFPS = fps
	}
}
