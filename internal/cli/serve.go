package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/preprocessing-service/internal/app/preprocess"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/cache"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/metrics"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/queue"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/storage"
	"github.com/alejandroruanova/preprocessing-service/internal/transport/httpapi"
)

// ServeCmd runs the HTTP API
func ServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}

	cmd.Flags().Bool("no-jobs", false, "serve only the synchronous endpoints, without database, queue or storage")
	cmd.Flags().Bool("migrate", false, "run database migrations before serving")

	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	cfg.LogConfig(a.logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	resultCache, err := cache.New(&cfg.Cache, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create result cache: %w", err)
	}
	defer resultCache.Close()

	collector := metrics.NewCollector()
	deps := preprocess.Deps{
		Pipeline:     a.pipeline,
		Cache:        resultCache,
		Metrics:      collector,
		MaxBatchSize: cfg.Pipeline.MaxBatchSize,
	}

	noJobs, _ := cmd.Flags().GetBool("no-jobs")
	if noJobs {
		a.logger.Info("job endpoints disabled")
	} else {
		db, err := a.openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		files, err := storage.NewLocalStorage(&cfg.Storage, a.logger)
		if err != nil {
			return err
		}

		client, err := queue.NewAsynqClient(&cfg.Queue, a.logger)
		if err != nil {
			return err
		}
		defer client.Close()

		deps.Jobs = repositories.NewJobRepository(db.DB, a.logger)
		deps.Files = files
		deps.Queue = client
		deps.Database = db
	}

	svc, err := preprocess.NewService(deps, a.logger)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(svc, collector, &cfg.Server, a.logger)
	a.logger.Info("starting preprocessing api",
		slog.String("address", cfg.Server.Address()),
		slog.Bool("jobs", svc.JobsEnabled()))

	return httpapi.NewServer(&cfg.Server, router, a.logger).Run(ctx)
}

// openDatabase connects to PostgreSQL and migrates when --migrate is set
func (a *app) openDatabase(cmd *cobra.Command) (*database.PostgresDB, error) {
	db, err := database.NewPostgresDB(&a.cfg.Database, a.logger)
	if err != nil {
		return nil, err
	}

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}
