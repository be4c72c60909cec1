// Package testutil provides shared test helpers for setting up libraries and databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/staffline/internal/index"
	"github.com/starford/staffline/internal/storage"
)

// Etude is a small valid score used across package tests.
const Etude = `title: Etude
parts:
  - name: Melody
    measures:
      - notes:
          - {kind: pitched, duration: whole, pitch: Bb4}
          - {kind: pitched, duration: half, pitch: C4}
      - notes:
          - {kind: rest, duration: quarter}
  - name: Bass
    measures:
      - notes:
          - {kind: pitched, duration: double-whole, pitch: D3}
`

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary library directory with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
