package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/kbhost/internal"
	"github.com/starford/kbhost/internal/index"
	pkgconfig "github.com/starford/kbhost/pkg/config"
)

var version = "dev"

// env is what every subcommand starts from.
type env struct {
	cfg    *internal.Config
	logger *slog.Logger
	close  func() error
}

func setup(cmd *cli.Command) (*env, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	logger, closeLog, err := internal.NewLogger(cfg.App)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return &env{cfg: cfg, logger: logger, close: closeLog}, nil
}

// openCatalog opens the configured catalog. Commands that cannot work
// without one pass required.
func (e *env) openCatalog(required bool) (*index.DB, error) {
	if !e.cfg.Index.Enabled() {
		if required {
			return nil, fmt.Errorf("no catalog configured: set index.path")
		}
		return nil, nil
	}
	db, err := index.Open(e.cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return db, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "kbctl",
		Usage:   "Operator tool for the knowledge base and its bookmark documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("KBHOST_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			reindexCommand(),
			watchCommand(),
			searchCommand(),
			citingCommand(),
			verifyCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
