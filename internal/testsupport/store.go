package testsupport

import (
	"context"
	"testing"

	"stylesync/internal/api"
	"stylesync/internal/config"
	"stylesync/internal/logging"
)

// MustOpenService opens an api.Service for tests and registers cleanup.
func MustOpenService(t testing.TB, cfg *config.Config, opts ...api.Option) *api.Service {
	t.Helper()

	svc, err := api.Open(context.Background(), cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("api.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Close()
	})
	return svc
}
