package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/kbhost/internal"
	"github.com/starford/kbhost/internal/storage"
	pkgconfig "github.com/starford/kbhost/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	// Browsers pass the caller origin (and on Windows --parent-window); the
	// host does not depend on either.
	if origin := cmd.Args().First(); origin != "" {
		slog.Debug("launched", slog.String("origin", origin))
	}

	cfg := internal.NewDefaultConfig()
	if configPath := cmd.String("config"); configPath != "" {
		p, err := storage.ExpandPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
		if err := pkgconfig.LoadOptional(p, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("host run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "kbhost",
		Usage:     "Native messaging host that reads and writes the YAML knowledge base and creates bookmark documents",
		ArgsUsage: "[caller-origin]",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML or TOML config file",
				Sources: cli.EnvVars("KBHOST_CONFIG"),
			},
			&cli.StringFlag{
				Name:   "parent-window",
				Hidden: true,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
