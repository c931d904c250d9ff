package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/kbhost/internal/apperr"
)

// DefaultLimit applies when a caller passes no positive limit.
const DefaultLimit = 20

// Bookmark is one catalogued bookmark folder.
type Bookmark struct {
	Path      string    `json:"path"`
	BaseDir   string    `json:"base_dir"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	SourceURL string    `json:"source_url,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Author    string    `json:"author,omitempty"`
	Status    string    `json:"status,omitempty"`
	SHA256    string    `json:"sha256,omitempty"`
	Checksum  string    `json:"-"`
	Tags      []string  `json:"tags"`
	CreatedAt string    `json:"created_at,omitempty"`
	IndexedAt time.Time `json:"indexed_at"`
	Snippet   string    `json:"snippet,omitempty"`
}

const bookmarkColumns = `path, base_dir, slug, title, source_url, platform, author, status, sha256, checksum, tags, created_at, indexed_at`

// UpsertBookmark inserts or replaces a bookmark, its FTS entry, and its
// outbound links within a transaction.
func (db *DB) UpsertBookmark(b Bookmark, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if b.IndexedAt.IsZero() {
		b.IndexedAt = time.Now().UTC()
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(b.Tags)

	_, err = tx.Exec(`
		INSERT INTO bookmarks (path, base_dir, slug, title, source_url, platform, author, status,
		                       sha256, checksum, tags, body, created_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			base_dir   = excluded.base_dir,
			slug       = excluded.slug,
			title      = excluded.title,
			source_url = excluded.source_url,
			platform   = excluded.platform,
			author     = excluded.author,
			status     = excluded.status,
			sha256     = excluded.sha256,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			created_at = excluded.created_at,
			indexed_at = excluded.indexed_at
	`, b.Path, b.BaseDir, b.Slug, b.Title, b.SourceURL, b.Platform, b.Author, b.Status,
		b.SHA256, b.Checksum, string(tagsJSON), body, b.CreatedAt, b.IndexedAt)
	if err != nil {
		return fmt.Errorf("index: upsert bookmark: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, b.Path, b.Title, body, b.Tags); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, b.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(b.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteBookmark removes a bookmark, its FTS entry, and outgoing links.
func (db *DB) DeleteBookmark(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM bookmarks WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a bookmark, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM bookmarks WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetBookmark returns one catalogued bookmark.
func (db *DB) GetBookmark(path string) (*Bookmark, error) {
	row := db.conn.QueryRow(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE path = ?`, path)
	b, err := scanBookmark(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: bookmark %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AllChecksums returns path → checksum for every bookmark below baseDir, or
// for the whole catalog when baseDir is empty.
func (db *DB) AllChecksums(baseDir string) (map[string]string, error) {
	baseDir, err := scopeBase(baseDir)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`SELECT path, checksum FROM bookmarks WHERE ? = '' OR base_dir = ?`, baseDir, baseDir)
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

// List returns bookmarks newest first, optionally restricted to baseDir, with
// the total count before paging.
func (db *DB) List(baseDir string, limit, offset int) ([]Bookmark, int, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	baseDir, err := scopeBase(baseDir)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM bookmarks WHERE ? = '' OR base_dir = ?`, baseDir, baseDir).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT `+bookmarkColumns+`
		FROM bookmarks
		WHERE ? = '' OR base_dir = ?
		ORDER BY created_at DESC, slug DESC
		LIMIT ? OFFSET ?
	`, baseDir, baseDir, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

// scopeBase resolves a base directory filter the way Sync stores it. Empty
// means no filter.
func scopeBase(baseDir string) (string, error) {
	if baseDir == "" {
		return "", nil
	}
	return absBase(baseDir)
}

// Citing returns the bookmark paths whose content links to url.
func (db *DB) Citing(url string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, url)
	if err != nil {
		return nil, fmt.Errorf("index: citing: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EachSourceURL calls fn for the source URL of every catalogued bookmark,
// stopping at the first error.
func (db *DB) EachSourceURL(fn func(url string) error) error {
	rows, err := db.conn.Query(`SELECT DISTINCT source_url FROM bookmarks WHERE source_url != ''`)
	if err != nil {
		return fmt.Errorf("index: source urls: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	return rows.Err()
}

// HasSourceURL reports whether any bookmark was made from url.
func (db *DB) HasSourceURL(url string) (bool, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM bookmarks WHERE source_url = ?`, url).Scan(&n); err != nil {
		return false, fmt.Errorf("index: source url: %w", err)
	}
	return n > 0, nil
}

func scanBookmark(scan func(dest ...any) error, extra ...any) (*Bookmark, error) {
	var b Bookmark
	var tags string
	dest := []any{&b.Path, &b.BaseDir, &b.Slug, &b.Title, &b.SourceURL, &b.Platform, &b.Author,
		&b.Status, &b.SHA256, &b.Checksum, &tags, &b.CreatedAt, &b.IndexedAt}
	if err := scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil || b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}
