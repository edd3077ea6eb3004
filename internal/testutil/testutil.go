// Package testutil provides shared fixture helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/budziq/link-checker/internal/links"
)

// WriteHTML writes an HTML fixture under dir, creating parent directories
// as needed, and returns its canonical path.
func WriteHTML(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for fixture %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return links.CanonicalPath(path)
}
