package recordstore

import (
	"context"
	"fmt"
	"path/filepath"

	"stylesync/internal/config"
)

// OpenBackend returns the backend selected by store.backend.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendSQLite:
		return OpenSQLite(ctx, cfg.DatabasePath())
	case config.StoreBackendFile, "":
		return NewFileBackend(cfg.Paths.DataDir), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// NewLocker returns the locker selected by store.lock for the named collection.
func NewLocker(cfg *config.Config, collection string) (Locker, error) {
	switch cfg.Store.Lock {
	case config.StoreLockFile:
		return NewFileLocker(filepath.Join(cfg.Paths.DataDir, collection+".lock"))
	case config.StoreLockProcess, "":
		return NewProcessLocker(), nil
	default:
		return nil, fmt.Errorf("unsupported store lock %q", cfg.Store.Lock)
	}
}
