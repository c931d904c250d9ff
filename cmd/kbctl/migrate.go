package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/kbhost/internal"
	"github.com/starford/kbhost/internal/index"
	"github.com/starford/kbhost/internal/migrate"
	"github.com/starford/kbhost/internal/webpage"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Create a bookmark folder for every saved post and article in the knowledge base",
		ArgsUsage: "<knowledge-base.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for bookmark folders (default: 08_bookmarked_content under the AI_KB root)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Fetch and report without writing",
			},
		},
		Action: runMigrate,
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	kbPath := cmd.Args().First()
	if kbPath == "" {
		return fmt.Errorf("knowledge base path is required")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	outDir, err := migrate.OutputDir(kbPath, cmd.String("output-dir"))
	if err != nil {
		return err
	}

	mc := e.cfg.Migrate
	reader := webpage.NewReader(
		webpage.NewFetcher(webpage.WithTimeout(mc.Timeout), webpage.WithUserAgent(mc.UserAgent)),
		webpage.NewDomainLimiter(mc.RequestsPerSecond),
	)

	kb, bm := internal.NewStores(e.cfg, e.logger)
	dryRun := cmd.Bool("dry-run")
	opts := []migrate.Option{
		migrate.WithConcurrency(mc.Concurrency),
		migrate.WithDryRun(dryRun),
		migrate.WithLogger(e.logger),
	}

	db, err := e.openCatalog(false)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, migrate.WithSourceIndex(db))
	}

	sum, err := migrate.NewRunner(kb, bm, reader, opts...).Run(ctx, kbPath, outDir)
	if err != nil {
		return err
	}

	if db != nil && !dryRun {
		if err := index.Sync(db, outDir, e.logger); err != nil {
			e.logger.Warn("catalog sync failed", slog.String("error", err.Error()))
		}
	}

	fmt.Printf("Found:            %d\n", sum.Found)
	fmt.Printf("Created (full):   %d\n", sum.Full)
	fmt.Printf("Created (partial): %d\n", sum.Partial)
	fmt.Printf("Skipped:          %d\n", sum.Skipped)
	if dryRun {
		fmt.Println("Dry run: nothing was written.")
	}
	return nil
}
