package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/trends-etl-service/internal/observability"
	"github.com/couchcryptid/trends-etl-service/internal/pipeline"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
)

func newCollectCmd(a *app) *cobra.Command {
	var (
		regions []string
		sample  bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection batch and exit",
		Long: `Resolve every configured region through the source chain and upsert the
result as today's snapshot. Intended for an external daily scheduler.

The command fails only when no region could be stored.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(regions) > 0 {
				a.cfg.Regions = upper(regions)
			}
			if sample {
				a.cfg.UseSample = true
			}
			return a.collect(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVarP(&regions, "regions", "r", nil, "regions to collect (default TRENDS_REGIONS)")
	cmd.Flags().BoolVar(&sample, "sample", false, "skip live sources and store the sample set")
	return cmd
}

func (a *app) collect(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := a.logger
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	repo, err := openRepository(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("snapshot store close error", "error", err)
		}
	}()

	publisher, closePublisher := buildPublisher(a.cfg, logger)
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	collector := pipeline.New(
		buildChain(a.cfg, clock, logger, metrics),
		snapshot.NewStore(repo, clock, logger),
		publisher,
		a.cfg.Concurrency,
		clock,
		logger,
		metrics,
	)

	report, err := collector.Run(ctx, a.cfg.Regions)
	if err != nil {
		return err
	}
	if report.Succeeded == 0 {
		return fmt.Errorf("no region stored (%d failed)", report.Failed)
	}
	return nil
}

func upper(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}
