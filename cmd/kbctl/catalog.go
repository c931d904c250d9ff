package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/starford/kbhost/internal/apperr"
	"github.com/starford/kbhost/internal/index"
)

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:      "reindex",
		Usage:     "Bring the bookmark catalog in line with the folders under a base directory",
		ArgsUsage: "<base-dir>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			baseDir := cmd.Args().First()
			if baseDir == "" {
				return fmt.Errorf("base directory is required")
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			db, err := e.openCatalog(true)
			if err != nil {
				return err
			}
			defer db.Close()

			return index.Sync(db, baseDir, e.logger)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Keep the bookmark catalog in sync while folders change",
		ArgsUsage: "<base-dir>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "resync",
				Usage: "Interval of full resyncs on top of file events (0 disables)",
				Value: 15 * time.Minute,
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	baseDir := cmd.Args().First()
	if baseDir == "" {
		return fmt.Errorf("base directory is required")
	}
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	db, err := e.openCatalog(true)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := e.logger
	if err := index.Sync(db, baseDir, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, baseDir, logger, func(kind, path string) {
			logger.Info("catalog updated", slog.String("event", kind), slog.String("path", path))
		})
	})

	if every := cmd.Duration("resync"); every > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					if err := index.Sync(db, baseDir, logger); err != nil {
						logger.Warn("resync failed", slog.String("error", err.Error()))
					}
				}
			}
		})
	}

	logger.Info("Watching", slog.String("base_dir", baseDir))
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Watcher stopped")
	return nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search through catalogued bookmarks",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			db, err := e.openCatalog(true)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := db.Search(query, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			for _, b := range results {
				fmt.Printf("%s\t%s\t%s\n", b.Slug, b.Title, b.SourceURL)
			}
			return nil
		},
	}
}

func citingCommand() *cli.Command {
	return &cli.Command{
		Name:      "citing",
		Usage:     "List catalogued bookmarks whose content links to a URL",
		ArgsUsage: "<url>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			target := cmd.Args().First()
			if target == "" {
				return fmt.Errorf("url is required")
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			db, err := e.openCatalog(true)
			if err != nil {
				return err
			}
			defer db.Close()

			paths, err := db.Citing(target)
			if err != nil {
				return err
			}
			for _, p := range paths {
				b, err := db.GetBookmark(p)
				if errors.Is(err, apperr.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t%s\n", b.Slug, b.Title, b.Path)
			}
			return nil
		},
	}
}
