// Package testutil provides shared test helpers for setting up bookmark
// directories, knowledge base paths and catalog databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/kbhost/internal/index"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "kbhost-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBaseDir creates an empty directory to hold bookmark folders.
func TestBaseDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "08_bookmarked_content")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestKBPath returns a knowledge base path inside a fresh directory. The
// file itself does not exist.
func TestKBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "curated_sources.yaml")
}
