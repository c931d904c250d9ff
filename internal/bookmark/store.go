// Package bookmark creates and inspects bookmark documents: one folder per
// slug holding meta.yaml, the content artifact and a retrieval symlink.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/starford/kbhost/internal/checksum"
	"github.com/starford/kbhost/internal/storage"
)

// Store creates bookmark folders below caller-supplied base directories.
type Store struct {
	staged bool
	logger *slog.Logger
	open   func(root string) (storage.Provider, error)
}

// Option configures a Store.
type Option func(*Store)

// WithStagedCreate builds each folder in a hidden staging directory and
// renames it into place, so a failed create leaves nothing behind.
func WithStagedCreate(enabled bool) Option {
	return func(s *Store) { s.staged = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithProvider replaces the file system used below a base directory.
func WithProvider(open func(root string) (storage.Provider, error)) Option {
	return func(s *Store) { s.open = open }
}

func New(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		open: func(root string) (storage.Provider, error) {
			return storage.NewFS(root)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Created describes a new bookmark folder.
type Created struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Create writes a bookmark folder for slug under baseDir. The slug is claimed
// with an atomic mkdir, so of two concurrent creates exactly one succeeds and
// the other gets an *ExistsError without touching the existing folder.
//
// Every occurrence of Placeholder in metaTemplate is replaced by the SHA-256
// of content's UTF-8 bytes.
func (s *Store) Create(ctx context.Context, baseDir, slug, metaTemplate, content string) (*Created, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	base, err := storage.ExpandPath(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("bookmark: create base dir: %w", err)
	}
	fsys, err := s.open(base)
	if err != nil {
		return nil, err
	}

	if err := fsys.Claim(slug); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &ExistsError{Slug: slug}
		}
		return nil, fmt.Errorf("bookmark: %w", err)
	}

	var sum string
	if s.staged {
		sum, err = s.createStaged(ctx, fsys, slug, metaTemplate, content)
	} else {
		sum, err = build(fsys, slug, metaTemplate, content)
		if err != nil {
			s.logger.Warn("bookmark partially written",
				slog.String("path", filepath.Join(base, slug)),
				slog.String("error", err.Error()))
		}
	}
	if err != nil {
		return nil, err
	}

	return &Created{Path: filepath.Join(base, slug), SHA256: sum}, nil
}

func (s *Store) createStaged(ctx context.Context, fsys storage.Provider, slug, metaTemplate, content string) (string, error) {
	staging := "." + slug + ".staging-" + uuid.NewString()

	cleanup := func() {
		for _, p := range []string{staging, slug} {
			if err := fsys.RemoveAll(p); err != nil {
				s.logger.Error("bookmark cleanup failed", slog.String("path", p), slog.String("error", err.Error()))
			}
		}
	}

	if err := fsys.MkdirAll(staging); err != nil {
		cleanup()
		return "", err
	}
	sum, err := build(fsys, staging, metaTemplate, content)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cleanup()
		return "", err
	}
	// The claimed directory is still empty, so rename may replace it.
	if err := fsys.Rename(staging, slug); err != nil {
		cleanup()
		return "", fmt.Errorf("bookmark: publish %s: %w", slug, err)
	}
	return sum, nil
}

// build lays out a bookmark folder at dir, relative to the provider root.
func build(fsys storage.Provider, dir, metaTemplate, content string) (string, error) {
	for _, sub := range []string{AssetsDir, CanonicalsDir} {
		if err := fsys.MkdirAll(path.Join(dir, sub)); err != nil {
			return "", fmt.Errorf("bookmark: %w", err)
		}
	}
	if err := fsys.Write(path.Join(dir, ContentFile), []byte(content)); err != nil {
		return "", fmt.Errorf("bookmark: %w", err)
	}

	sum := checksum.SumString(content)
	meta := strings.ReplaceAll(metaTemplate, Placeholder, sum)
	if err := fsys.Write(path.Join(dir, MetaFile), []byte(meta)); err != nil {
		return "", fmt.Errorf("bookmark: %w", err)
	}
	if err := fsys.Symlink(RetrievalTarget, path.Join(dir, RetrievalFile)); err != nil {
		return "", fmt.Errorf("bookmark: %w", err)
	}
	return sum, nil
}

// Exists reports whether anything occupies <baseDir>/<slug>, and that path.
func (s *Store) Exists(baseDir, slug string) (bool, string, error) {
	if err := ValidateSlug(slug); err != nil {
		return false, "", err
	}
	base, err := storage.ExpandPath(baseDir)
	if err != nil {
		return false, "", err
	}
	docPath := filepath.Join(base, slug)
	_, err = os.Lstat(docPath)
	switch {
	case err == nil:
		return true, docPath, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return false, docPath, nil
	default:
		return false, docPath, fmt.Errorf("bookmark: stat %s: %w", docPath, err)
	}
}
