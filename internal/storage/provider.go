// Package storage defines the score library file-system abstraction.
package storage

import "github.com/starford/staffline/internal/models"

// Ext is the extension of score files in the library.
const Ext = ".yaml"

// Provider is the interface for library file operations.
type Provider interface {
	// List returns metadata for every score file under dir (relative to the library root).
	List(dir string) ([]models.ScoreMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the library root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the library root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the library root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the library root).
	Move(oldPath, newPath string) error
	// Exists reports whether path names a regular file.
	Exists(path string) (bool, error)
}
