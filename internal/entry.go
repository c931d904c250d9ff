// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/kbhost/internal/bookmark"
	"github.com/starford/kbhost/internal/frame"
	"github.com/starford/kbhost/internal/host"
	"github.com/starford/kbhost/internal/index"
	"github.com/starford/kbhost/internal/kbstore"
	"github.com/starford/kbhost/internal/storage"
)

// NewLogger builds the JSON logger. Output goes to the configured log file,
// or to stderr since stdout carries protocol frames. The returned close
// function releases the log file.
func NewLogger(cfg ApplicationConfig) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if cfg.LogFile != "" {
		p, err := storage.ExpandPath(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return logger, closeFn, nil
}

// NewStores builds the knowledge base and bookmark stores from cfg.
func NewStores(cfg *Config, logger *slog.Logger) (*kbstore.Store, *bookmark.Store) {
	kb := kbstore.New(
		kbstore.WithLockTimeout(cfg.Host.LockTimeout),
		kbstore.WithLogger(logger),
	)
	bm := bookmark.New(
		bookmark.WithStagedCreate(cfg.Bookmarks.StagedCreate),
		bookmark.WithLogger(logger),
	)
	return kb, bm
}

// NewHostServer wires the action dispatcher. When a catalog is configured
// but cannot be opened the host runs without it. The returned close function
// releases the catalog.
func NewHostServer(cfg *Config, logger *slog.Logger) (*host.Server, func() error) {
	kb, bm := NewStores(cfg, logger)
	opts := []host.Option{
		host.WithLogger(logger),
		host.WithLimits(frame.Limits{MaxPayloadBytes: cfg.Host.MaxMessageBytes}),
	}

	closeFn := func() error { return nil }
	if cfg.Index.Enabled() {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			logger.Warn("catalog unavailable", slog.String("path", cfg.Index.Path), slog.String("error", err.Error()))
		} else {
			opts = append(opts, host.WithCatalog(db))
			closeFn = db.Close
		}
	}
	return host.NewServer(kb, bm, opts...), closeFn
}

// Run starts the native messaging host with the given options. It returns
// when the browser closes the input stream.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{
		in:  os.Stdin,
		out: os.Stdout,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger, closeLog, err := NewLogger(cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("Host starting",
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Duration("lock_timeout", cfg.Host.LockTimeout),
		slog.Bool("staged_create", cfg.Bookmarks.StagedCreate),
		slog.String("index_path", cfg.Index.Path))

	srv, closeCatalog := NewHostServer(cfg, logger)
	defer closeCatalog()

	out := bufio.NewWriter(app.out)
	if err := srv.Serve(ctx, bufio.NewReader(app.in), out); err != nil {
		logger.Error("Host stopped", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Host stopped")
	return nil
}
