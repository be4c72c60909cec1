package index

import (
	"context"

	"github.com/starford/staffline/internal/models"
)

// ScoreIndex defines the interface for score indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ScoreIndex interface {
	UpsertScore(s ScoreRow, body string) error
	DeleteScore(path string) error
	GetChecksum(path string) (string, error)
	GetScore(path string) (*ScoreRow, error)
	ListScores(limit, offset int, sort string) ([]ScoreRow, int, error)
	Search(query string, limit int) ([]models.SearchResult, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies ScoreIndex at compile time.
var _ ScoreIndex = (*DB)(nil)
