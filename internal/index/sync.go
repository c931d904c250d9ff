package index

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/kbhost/internal/bookmark"
	"github.com/starford/kbhost/internal/checksum"
	"github.com/starford/kbhost/internal/parser"
	"github.com/starford/kbhost/internal/storage"
)

// metaPattern matches the metadata file of every bookmark folder.
var metaPattern = path.Join("*", bookmark.MetaFile)

// Sync walks baseDir and brings the catalog up to date:
//   - new/changed bookmark folders are parsed and upserted
//   - folders removed from disk are deleted from the catalog
func Sync(db *DB, baseDir string, logger *slog.Logger) error {
	base, err := absBase(baseDir)
	if err != nil {
		return err
	}
	slugs, err := listSlugs(base)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums(base)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		docPath := filepath.Join(base, slug)
		disk[docPath] = struct{}{}

		changed, err := indexFolder(db, base, slug, checksums[docPath])
		if err != nil {
			logger.Warn("sync: index failed", slog.String("path", docPath), slog.String("error", err.Error()))
			continue
		}
		if changed {
			logger.Debug("sync: indexed", slog.String("path", docPath))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteBookmark(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexBookmark catalogues the folder <baseDir>/<slug> unconditionally.
func (db *DB) IndexBookmark(baseDir, slug string) error {
	base, err := absBase(baseDir)
	if err != nil {
		return err
	}
	_, err = indexFolder(db, base, slug, "")
	return err
}

// listSlugs returns the visible folders of base that hold a meta.yaml.
// Hidden entries include in-flight staging directories.
func listSlugs(base string) ([]string, error) {
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(base), metaPattern)
	if err != nil {
		return nil, fmt.Errorf("index: glob %s: %w", base, err)
	}
	slugs := make([]string, 0, len(matches))
	for _, m := range matches {
		slug := path.Dir(m)
		if strings.HasPrefix(slug, ".") {
			continue
		}
		slugs = append(slugs, slug)
	}
	return slugs, nil
}

// indexFolder upserts one folder when its checksum differs from known and
// reports whether it did.
func indexFolder(db *DB, base, slug, known string) (bool, error) {
	docPath := filepath.Join(base, slug)
	metaData, err := os.ReadFile(filepath.Join(docPath, bookmark.MetaFile))
	if err != nil {
		return false, fmt.Errorf("index: read meta: %w", err)
	}
	content, err := os.ReadFile(filepath.Join(docPath, filepath.FromSlash(bookmark.ContentFile)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("index: read content: %w", err)
	}

	cs := checksum.Sum(append(append([]byte{}, metaData...), content...))
	if cs == known {
		return false, nil
	}

	meta, err := bookmark.ParseMeta(metaData)
	if err != nil {
		return false, err
	}
	res, err := parser.Parse(content)
	if err != nil {
		return false, err
	}

	b := Bookmark{
		Path:      docPath,
		BaseDir:   base,
		Slug:      slug,
		Title:     firstNonEmpty(meta.Title, res.Title, slug),
		SourceURL: firstNonEmpty(meta.Bookmark.SourceURL, res.Field("source_url")),
		Platform:  firstNonEmpty(meta.Bookmark.Platform, res.Field("platform")),
		Author:    firstNonEmpty(meta.Bookmark.AuthorName, res.Field("author")),
		Status:    firstNonEmpty(res.Field("status"), meta.Status),
		SHA256:    meta.RecordedSHA256(),
		Checksum:  cs,
		Tags:      mergeTags(meta.Tags, res.Tags),
		CreatedAt: firstNonEmpty(meta.CreatedAt, meta.Bookmark.DateBookmarked),
	}
	if err := db.UpsertBookmark(b, res.Body, res.Links); err != nil {
		return false, err
	}
	return true, nil
}

func absBase(baseDir string) (string, error) {
	p, err := storage.ExpandPath(baseDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("index: resolve base dir: %w", err)
	}
	return abs, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func mergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, l := range lists {
		for _, t := range l {
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
