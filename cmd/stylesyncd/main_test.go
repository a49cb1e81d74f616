package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"etcd\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := run(context.Background(), path)
	if err == nil {
		t.Fatal("expected invalid backend to fail")
	}
	if !strings.Contains(err.Error(), "backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}
