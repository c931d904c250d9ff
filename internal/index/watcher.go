package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/kbhost/internal/bookmark"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "indexed", "deleted".
type EventCallback func(kind string, path string)

// settleDelay lets a folder finish being written before it is indexed.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on baseDir and keeps the catalog in step
// with the bookmark folders below it until ctx is cancelled. It calls cb (if
// non-nil) after each successful catalog mutation.
//
// Events are collected per slug and handled after the folder has been quiet
// for settleDelay: a folder with meta.yaml is (re)indexed, a vanished folder
// is removed. Renames additionally trigger a full reconciliation pass.
func Watch(ctx context.Context, db *DB, baseDir string, logger *slog.Logger, cb EventCallback) error {
	base, err := absBase(baseDir)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, base); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", base))

	pending := make(map[string]struct{})
	reconcile := false

	// settleTimer debounces bursts of events.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			for slug := range pending {
				refreshSlug(db, base, slug, logger, cb)
				delete(pending, slug)
			}
			if reconcile {
				reconcile = false
				reconcileCatalog(db, base, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := filepath.Rel(base, ev.Name)
			if relErr != nil || rel == "." || strings.HasPrefix(rel, "..") {
				continue
			}
			slug := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]

			// New directories (including a staging tree renamed into
			// place) need watches of their own.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}

			if strings.HasPrefix(slug, ".") {
				continue
			}
			pending[slug] = struct{}{}
			if ev.Op&fsnotify.Rename != 0 {
				reconcile = true
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// refreshSlug indexes or removes a single folder after it settled.
func refreshSlug(db *DB, base, slug string, logger *slog.Logger, cb EventCallback) {
	docPath := filepath.Join(base, slug)
	if _, err := os.Stat(filepath.Join(docPath, bookmark.MetaFile)); err != nil {
		known, _ := db.GetChecksum(docPath)
		if known == "" {
			return
		}
		if delErr := db.DeleteBookmark(docPath); delErr != nil {
			logger.Warn("watcher: delete failed", slog.String("path", docPath), slog.String("error", delErr.Error()))
			return
		}
		logger.Debug("watcher: deleted", slog.String("path", docPath))
		if cb != nil {
			cb("deleted", docPath)
		}
		return
	}

	known, _ := db.GetChecksum(docPath)
	changed, err := indexFolder(db, base, slug, known)
	if err != nil {
		logger.Warn("watcher: index failed", slog.String("path", docPath), slog.String("error", err.Error()))
		return
	}
	if changed {
		logger.Debug("watcher: indexed", slog.String("path", docPath))
		if cb != nil {
			cb("indexed", docPath)
		}
	}
}

// reconcileCatalog removes catalog entries whose folder is gone and indexes
// folders the catalog does not know.
func reconcileCatalog(db *DB, base string, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums(base)
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	slugs, err := listSlugs(base)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(slugs))
	for _, slug := range slugs {
		disk[filepath.Join(base, slug)] = slug
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteBookmark(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, slug := range disk {
		changed, idxErr := indexFolder(db, base, slug, checksums[p])
		if idxErr == nil && changed {
			logger.Debug("reconcile: indexed", slog.String("path", p))
			if cb != nil {
				cb("indexed", p)
			}
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
