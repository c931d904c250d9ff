//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS bookmarks_fts USING fts5(
			path UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM bookmarks_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO bookmarks_fts (path, title, body, tags) VALUES (?, ?, ?, ?)`,
		path, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM bookmarks_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search and returns matching bookmarks with snippets.
func (db *DB) Search(query string, limit int) ([]Bookmark, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT b.path, b.base_dir, b.slug, b.title, b.source_url, b.platform, b.author, b.status,
		       b.sha256, b.checksum, b.tags, b.created_at, b.indexed_at,
		       snippet(bookmarks_fts, 2, '<b>', '</b>', '...', 64)
		FROM bookmarks_fts
		JOIN bookmarks b ON b.path = bookmarks_fts.path
		WHERE bookmarks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
