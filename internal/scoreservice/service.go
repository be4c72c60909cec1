// Package scoreservice coordinates the score library on disk and its index.
package scoreservice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/checksum"
	"github.com/starford/staffline/internal/index"
	"github.com/starford/staffline/internal/midiexport"
	"github.com/starford/staffline/internal/models"
	"github.com/starford/staffline/internal/music"
	"github.com/starford/staffline/internal/scorefile"
	"github.com/starford/staffline/internal/storage"
)

// ScoreDetail is the full representation of a score.
type ScoreDetail struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Parts     []string  `json:"parts"`
	Measures  int       `json:"measures"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreListItem is a lightweight item in a list response.
type ScoreListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Parts     []string  `json:"parts"`
	Measures  int       `json:"measures"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.ScoreIndex

	// serialises check-then-write in create and update
	mu sync.Mutex
}

// NewService creates a new score service.
func NewService(store storage.Provider, db index.ScoreIndex) *Service {
	return &Service{store: store, db: db}
}

// checkPath rejects empty paths and paths without a score extension.
func checkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("scoreservice: path is required: %w", apperr.ErrInvalidInput)
	}
	if !storage.IsScoreFile(path) {
		return fmt.Errorf("scoreservice: %s is not a %s file: %w", path, storage.Ext, apperr.ErrInvalidInput)
	}
	return nil
}

// GetScore reads a score from storage and parses it.
func (s *Service) GetScore(_ context.Context, path string) (*ScoreDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return buildDetail(path, data)
}

// LoadScore reads and parses a score, returning it with the checksum of the
// bytes it was parsed from.
func (s *Service) LoadScore(_ context.Context, path string) (music.Score, string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return music.Score{}, "", err
	}
	res, err := scorefile.Parse(data)
	if err != nil {
		return music.Score{}, "", err
	}
	return res.Score, checksum.Sum(data), nil
}

// CreateScore validates, writes and indexes a new score file.
func (s *Service) CreateScore(_ context.Context, path string, content []byte) (*ScoreDetail, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	detail, err := buildDetail(path, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exists, err := s.store.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("scoreservice: %s: %w", path, apperr.ErrAlreadyExists)
	}
	if err := s.write(path, content); err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateScore replaces a score with optimistic concurrency. ifMatch is an
// If-Match value; an empty one skips the version check.
func (s *Service) UpdateScore(_ context.Context, path string, content []byte, ifMatch string) (*ScoreDetail, error) {
	detail, err := buildDetail(path, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if !checksum.Matches(ifMatch, checksum.Sum(existing)) {
		return nil, fmt.Errorf("scoreservice: %s changed since %s: %w", path, ifMatch, apperr.ErrConflict)
	}
	if err := s.write(path, content); err != nil {
		return nil, err
	}
	return detail, nil
}

// SaveScore serialises sc and stores it at path under the same concurrency
// rule as UpdateScore.
func (s *Service) SaveScore(ctx context.Context, path string, sc music.Score, ifMatch string) (*ScoreDetail, error) {
	data, err := scorefile.Marshal(sc)
	if err != nil {
		return nil, err
	}
	return s.UpdateScore(ctx, path, data, ifMatch)
}

func (s *Service) write(path string, content []byte) error {
	if err := s.store.Write(path, content); err != nil {
		return err
	}
	return index.IndexFile(s.db, path, content, time.Time{})
}

// DeleteScore removes a score from storage and index.
func (s *Service) DeleteScore(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteScore(path)
}

// MoveScore renames a score within the library. The target must not exist.
func (s *Service) MoveScore(_ context.Context, from, to string) (*ScoreDetail, error) {
	if err := checkPath(to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("scoreservice: move %s onto itself: %w", from, apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.store.Read(from)
	if err != nil {
		return nil, err
	}
	exists, err := s.store.Exists(to)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("scoreservice: %s: %w", to, apperr.ErrAlreadyExists)
	}
	if err := s.store.Move(from, to); err != nil {
		return nil, err
	}
	if err := s.db.DeleteScore(from); err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, to, data, time.Time{}); err != nil {
		return nil, err
	}
	return buildDetail(to, data)
}

// Ready reports whether the index is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ListScores returns one page of indexed scores.
func (s *Service) ListScores(_ context.Context, limit, offset int, sort string) ([]ScoreListItem, int, error) {
	rows, total, err := s.db.ListScores(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ScoreListItem, len(rows))
	for i, r := range rows {
		items[i] = ScoreListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Parts:     nonNilSlice(r.Parts),
			Measures:  r.Measures,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// ExportMIDI writes the score at path as a Standard MIDI File.
func (s *Service) ExportMIDI(ctx context.Context, path string, opts midiexport.Options, w io.Writer) error {
	sc, _, err := s.LoadScore(ctx, path)
	if err != nil {
		return err
	}
	return midiexport.Write(w, sc, opts)
}

func buildDetail(path string, data []byte) (*ScoreDetail, error) {
	res, err := scorefile.Parse(data)
	if err != nil {
		return nil, err
	}
	return &ScoreDetail{
		Path:      path,
		Title:     res.Title,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Parts:     nonNilSlice(res.PartNames),
		Measures:  res.Measures,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
