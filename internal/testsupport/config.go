package testsupport

import (
	"path/filepath"
	"testing"

	"dashpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.JournalPath = filepath.Join(base, "journal.db")
	cfg.Storage.Endpoint = "storage.test"
	cfg.Storage.OutputBucket = "output-bucket"
	cfg.Storage.OutputPrefix = "dash"
	cfg.Transcode.ScratchBudgetMiB = 64

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithScratchBudgetMiB overrides the scratch ceiling on the test config.
func WithScratchBudgetMiB(mib int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcode.ScratchBudgetMiB = mib
	}
}

// WithJobTimeoutSeconds overrides the transcode wall-clock ceiling.
func WithJobTimeoutSeconds(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcode.JobTimeoutSeconds = seconds
	}
}
