// Package kbstore reads and writes the single-file YAML knowledge base with
// cross-process advisory locking and atomic replacement.
package kbstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/kbhost/internal/apperr"
	"github.com/starford/kbhost/internal/flock"
	"github.com/starford/kbhost/internal/kbdoc"
	"github.com/starford/kbhost/internal/storage"
)

// Store serves knowledge base files. It holds no per-file state; every call
// works on the path it is given.
type Store struct {
	now         func() time.Time
	lockTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for skeletons and write stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLockTimeout bounds every lock wait. Zero waits indefinitely.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the parsed knowledge base at path. A missing file yields the
// skeleton and an empty file yields an empty mapping. The file is parsed
// under a shared lock.
func (s *Store) Read(ctx context.Context, path string) (*kbdoc.Value, error) {
	p, err := storage.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("knowledge base missing, serving skeleton", slog.String("path", p))
		return Skeleton(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("kbstore: open %s: %w", p, err)
	}
	defer f.Close()

	if err := flock.Lock(ctx, f, flock.Shared, s.lockTimeout); err != nil {
		return nil, fmt.Errorf("kbstore: read %s: %w", p, err)
	}
	defer flock.Unlock(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("kbstore: read %s: %w", p, err)
	}
	doc, err := kbdoc.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("kbstore: parse %s: %w", p, err)
	}
	if doc.Falsy() {
		return kbdoc.NewMapping(), nil
	}
	return doc, nil
}

// Write stamps last_updated with today's date and atomically replaces the
// file at path with doc rendered as YAML. Parent directories are created.
// doc itself is not modified.
func (s *Store) Write(ctx context.Context, path string, doc *kbdoc.Value) error {
	if doc.Kind() != kbdoc.Mapping {
		return fmt.Errorf("kbstore: %w: knowledge base must be a mapping, got %s", apperr.ErrInvalid, doc.Kind())
	}
	p, err := storage.ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("kbstore: mkdir: %w", err)
	}

	stamped := doc.Clone()
	stamped.Set(LastUpdatedKey, kbdoc.NewString(s.now().Format(DateLayout)))
	data, err := stamped.EncodeYAML()
	if err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		perm = info.Mode().Perm()
	}
	guard := &lockGuard{ctx: ctx, path: p, timeout: s.lockTimeout}
	defer guard.Release(nil)
	if err := storage.WriteFileAtomic(p, data, perm, guard); err != nil {
		return fmt.Errorf("kbstore: write %s: %w", p, err)
	}
	s.logger.Debug("knowledge base written", slog.String("path", p), slog.Int("bytes", len(data)))
	return nil
}

// LockSuffix names the sibling file writers lock while a temp file is
// written. Readers lock the knowledge base itself, so a writer never blocks
// them.
const LockSuffix = ".lock"

// lockGuard holds an exclusive lock on <path>.lock while the temp file is
// written, so concurrent writers take turns.
type lockGuard struct {
	ctx     context.Context
	path    string
	timeout time.Duration
	f       *os.File
}

func (g *lockGuard) Acquire(*os.File) error {
	f, err := os.OpenFile(g.path+LockSuffix, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := flock.Lock(g.ctx, f, flock.Exclusive, g.timeout); err != nil {
		f.Close()
		return err
	}
	g.f = f
	return nil
}

func (g *lockGuard) Release(*os.File) error {
	if g.f == nil {
		return nil
	}
	defer func() { g.f = nil }()
	if err := flock.Unlock(g.f); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}
