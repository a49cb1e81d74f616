package testsupport

import (
	"path/filepath"
	"testing"

	"stylesync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Directories are created, the store uses the file backend with an
// in-process locker, and the API binds to an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.UploadsDir = filepath.Join(base, "uploads")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Store.Lock = config.StoreLockProcess

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithSQLite selects the sqlite record store backend.
func WithSQLite() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = config.StoreBackendSQLite
	}
}

// WithFileLock selects the flock-based locker.
func WithFileLock() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Lock = config.StoreLockFile
	}
}

// WithAPIToken requires bearer authentication on the HTTP surface.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithUploadLimits overrides the per-file and per-batch upload limits.
func WithUploadLimits(maxFileBytes int64, maxBatchFiles int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.MaxFileBytes = maxFileBytes
		b.cfg.Upload.MaxBatchFiles = maxBatchFiles
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
