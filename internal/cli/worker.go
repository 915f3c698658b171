package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alejandroruanova/preprocessing-service/internal/app/preprocess"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/cache"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/metrics"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/queue"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/storage"
	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
	"github.com/alejandroruanova/preprocessing-service/internal/transport/httpapi"
)

// WorkerCmd runs the asynq server that processes batch and file jobs
func WorkerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued normalization jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.work(cmd)
		},
	}

	cmd.Flags().String("dedup-strategy", string(deduplication.StrategyUniversal),
		"exact drops repeats within a file, universal also drops texts kept by earlier jobs")
	cmd.Flags().Int("metrics-port", 0, "serve Prometheus metrics on this port; 0 disables")
	cmd.Flags().Bool("migrate", false, "run database migrations before starting")

	return cmd
}

func (a *app) work(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	cfg.LogConfig(a.logger)

	strategy, err := dedupStrategy(cmd)
	if err != nil {
		return err
	}

	db, err := a.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	files, err := storage.NewLocalStorage(&cfg.Storage, a.logger)
	if err != nil {
		return err
	}

	resultCache, err := cache.New(&cfg.Cache, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create result cache: %w", err)
	}
	defer resultCache.Close()

	dedupCfg := deduplication.DefaultConfig()
	dedupCfg.Strategy = strategy

	collector := metrics.NewCollector()
	svc, err := preprocess.NewService(preprocess.Deps{
		Pipeline:     a.pipeline,
		Cache:        resultCache,
		Metrics:      collector,
		Jobs:         repositories.NewJobRepository(db.DB, a.logger),
		Files:        files,
		Deduplicator: deduplication.NewService(dedupCfg, repositories.NewDedupHashRepository(db.DB, a.logger), a.logger),
		Database:     db,
		MaxBatchSize: cfg.Pipeline.MaxBatchSize,
	}, a.logger)
	if err != nil {
		return err
	}

	server, err := queue.NewAsynqServer(&cfg.Queue, a.logger)
	if err != nil {
		return err
	}
	server.Use(queue.LoggingMiddleware(a.logger))
	svc.Register(server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if port, _ := cmd.Flags().GetInt("metrics-port"); port > 0 {
		metricsCfg := &config.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            port,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}
		a.logger.Info("serving worker metrics", slog.String("address", metricsCfg.Address()))
		g.Go(func() error {
			return httpapi.NewServer(metricsCfg, collector.Handler(), a.logger).Run(gctx)
		})
	}

	return g.Wait()
}

func dedupStrategy(cmd *cobra.Command) (deduplication.Strategy, error) {
	raw, err := cmd.Flags().GetString("dedup-strategy")
	if err != nil {
		return "", err
	}

	switch s := deduplication.Strategy(raw); s {
	case deduplication.StrategyExact, deduplication.StrategyUniversal:
		return s, nil
	default:
		return "", fmt.Errorf("invalid --dedup-strategy %q: must be exact or universal", raw)
	}
}
