package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/trends-etl-service/internal/config"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	envFile string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "trends",
		Short: "Regional trending topics collector and API",
		Long: `trends resolves the current trending topics of each configured region
through an ordered chain of sources, stores them as cumulative daily
snapshots, and serves single-day and trailing-week views.

Example usage:
  trends collect                 # run one collection batch
  trends serve                   # serve the API, /healthz, /readyz, /metrics
  trends show FR -w yesterday    # print a region's view as a table`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newCollectCmd(a),
		newServeCmd(a),
		newShowCmd(a),
		newImportLegacyCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg)
	return nil
}
