//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/staffline/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS scores_fts USING fts5(
			path UNINDEXED,
			title,
			body,
			parts,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, title, body string, parts []string) error {
	_, _ = tx.Exec(`DELETE FROM scores_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO scores_fts (path, title, body, parts) VALUES (?, ?, ?, ?)`,
		path, title, body, strings.Join(parts, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM scores_fts WHERE path = ?`, path)
}

// Search runs an FTS5 query. Title hits outrank part-name hits, which
// outrank hits in the note text.
func (db *DB) Search(query string, limit int) ([]models.SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT path,
		       title,
		       snippet(scores_fts, 2, '<b>', '</b>', '...', 64)
		FROM scores_fts
		WHERE scores_fts MATCH ?
		ORDER BY bm25(scores_fts, 0.0, 10.0, 1.0, 5.0)
		LIMIT ?
	`, query, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
