//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the bookmarks.body column.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error {
	// Body is already stored in the bookmarks table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]Bookmark, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT `+bookmarkColumns+`, substr(body, 1, 200)
		FROM bookmarks
		WHERE title LIKE ? OR body LIKE ? OR tags LIKE ? OR author LIKE ? OR source_url LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, like, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		var snippet string
		b, err := scanBookmark(rows.Scan, &snippet)
		if err != nil {
			return nil, err
		}
		b.Snippet = snippet
		out = append(out, *b)
	}
	return out, rows.Err()
}
