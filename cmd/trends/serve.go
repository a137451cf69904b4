package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/trends-etl-service/internal/adapter/http"
	"github.com/couchcryptid/trends-etl-service/internal/aggregate"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
	"github.com/couchcryptid/trends-etl-service/internal/pipeline"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the trends API",
		Long: `Serve windowed views over stored snapshots, health probes and metrics.

POST /v1/collect starts a background batch so a scheduler can trigger
collection against the running process.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// batchStarter starts background batches bound to the server lifetime.
type batchStarter struct {
	ctx       context.Context
	collector *pipeline.Collector
	regions   []string
}

func (b batchStarter) StartBatch() error {
	return b.collector.Start(b.ctx, b.regions)
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	store := snapshot.NewStore(repo, clock, logger)

	cache, closeCache, err := buildViewCache(ctx, cfg, logger)
	if err != nil {
		_ = repo.Close()
		return fmt.Errorf("view cache: %w", err)
	}
	reader := aggregate.NewReader(aggregate.NewAggregator(store, clock), cache, cfg.StoreTimeout, clock, logger, metrics)

	publisher, closePublisher := buildPublisher(cfg, logger)
	collector := pipeline.New(buildChain(cfg, clock, logger, metrics), store, publisher, cfg.Concurrency, clock, logger, metrics)

	srv := httpadapter.NewServer(
		cfg.HTTPAddr,
		storeReadiness{store: store},
		reader,
		batchStarter{ctx: ctx, collector: collector, regions: cfg.Regions},
		logger,
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("http server error", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	collector.Wait()
	if err := closePublisher(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := closeCache(); err != nil {
		logger.Error("view cache close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		logger.Error("snapshot store close error", "error", err)
	}

	logger.Info("shutdown complete")
	return err
}
