package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/models"
)

// ScoreRow represents a row in the scores table.
type ScoreRow struct {
	Path      string
	Title     string
	Checksum  string
	Parts     []string
	Measures  int
	UpdatedAt time.Time
}

// UpsertScore inserts or replaces a score and its FTS entry within a transaction.
func (db *DB) UpsertScore(s ScoreRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	parts := s.Parts
	if parts == nil {
		parts = []string{}
	}
	partsJSON, _ := json.Marshal(parts)

	_, err = tx.Exec(`
		INSERT INTO scores (path, title, checksum, parts, measures, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			parts      = excluded.parts,
			measures   = excluded.measures,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, s.Path, s.Title, s.Checksum, string(partsJSON), s.Measures, body, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert score: %w", err)
	}

	// no-op when the FTS5 tag is absent
	if err := ftsUpsert(tx, s.Path, s.Title, body, parts); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteScore removes a score and its FTS entry.
func (db *DB) DeleteScore(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM scores WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete score: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a score, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM scores WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

const rowColumns = `path, title, checksum, parts, measures, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (ScoreRow, error) {
	var (
		r     ScoreRow
		parts string
	)
	if err := sc.Scan(&r.Path, &r.Title, &r.Checksum, &parts, &r.Measures, &r.UpdatedAt); err != nil {
		return ScoreRow{}, err
	}
	if err := json.Unmarshal([]byte(parts), &r.Parts); err != nil {
		return ScoreRow{}, fmt.Errorf("index: decode parts of %s: %w", r.Path, err)
	}
	return r, nil
}

// GetScore returns the indexed row for path.
func (db *DB) GetScore(path string) (*ScoreRow, error) {
	r, err := scanRow(db.conn.QueryRow(`SELECT `+rowColumns+` FROM scores WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: score %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get score: %w", err)
	}
	return &r, nil
}

var sortOrders = map[string]string{
	"":         "path ASC",
	"path":     "path ASC",
	"title":    "title COLLATE NOCASE ASC, path ASC",
	"updated":  "updated_at DESC, path ASC",
	"measures": "measures DESC, path ASC",
}

// ListScores returns one page of scores and the total count. sort is one of
// path, title, updated or measures.
func (db *DB) ListScores(limit, offset int, sort string) ([]ScoreRow, int, error) {
	order, ok := sortOrders[sort]
	if !ok {
		return nil, 0, fmt.Errorf("index: unknown sort %q: %w", sort, apperr.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM scores`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count scores: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+rowColumns+` FROM scores ORDER BY `+order+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list scores: %w", err)
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed score path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM scores`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path to checksum for every indexed score.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM scores`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func scanResults(rows *sql.Rows) ([]models.SearchResult, error) {
	defer rows.Close()
	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
