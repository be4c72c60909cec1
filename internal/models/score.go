// Package models defines the library types shared by storage, index and API.
package models

import "time"

// Score is a parsed score file in the library.
type Score struct {
	Path      string    `json:"path"`
	Content   []byte    `json:"-"`
	Title     string    `json:"title,omitempty"`
	Parts     []string  `json:"parts"`
	Measures  int       `json:"measures"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreMetadata is a lightweight representation returned by list operations.
type ScoreMetadata struct {
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is one hit of a library search.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}
