//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/staffline/internal/models"
)

// Without FTS5 the body column of scores is searched directly.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search matches query as a substring of title, part names or body.
// Title hits come first; the snippet starts a little before the first body
// hit.
func (db *DB) Search(query string, limit int) ([]models.SearchResult, error) {
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, title,
		       substr(body, max(1, instr(lower(body), lower(?)) - 60), 200)
		FROM scores
		WHERE title LIKE ? OR parts LIKE ? OR body LIKE ?
		ORDER BY title LIKE ? DESC, path
		LIMIT ?
	`, query, like, like, like, like, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
