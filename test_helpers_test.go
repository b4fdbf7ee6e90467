package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBadConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ListenPort = 70000\n"), 0o600); err != nil {
		t.Fatalf("write temp config failed: %v", err)
	}
	return path
}
