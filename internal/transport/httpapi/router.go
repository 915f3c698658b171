package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alejandroruanova/preprocessing-service/internal/app/preprocess"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/metrics"
	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
)

// BasePath is the routing prefix of the API
const BasePath = "/api/preprocessing"

// NewRouter builds the gin engine with middleware and every route
func NewRouter(svc *preprocess.Service, collector *metrics.Collector, cfg *config.ServerConfig, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)
	if collector != nil {
		r.Use(MetricsMiddleware(collector))
	}

	r.NoRoute(notFound)

	h := NewHandler(svc, logger)
	api := r.Group(BasePath)

	// JSON endpoints share the body limit; uploads are bounded by storage
	limited := api.Group("", BodyLimitMiddleware(cfg.MaxBodyBytes))
	limited.POST("/", h.NormalizeBatch)
	limited.POST("/text", h.NormalizeText)
	limited.POST("/jobs", h.SubmitBatchJob)

	api.GET("/presets", h.ListPresets)
	api.GET("/steps", h.Steps)
	api.POST("/jobs/file", h.SubmitFileJob)
	api.GET("/jobs", h.ListJobs)
	api.GET("/jobs/:id", h.GetJob)
	api.GET("/jobs/:id/results", h.JobResults)
	api.DELETE("/jobs/:id", h.DeleteJob)
	api.GET("/health", h.Health)
	if collector != nil {
		api.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	return r
}

// Server wraps http.Server with context-driven graceful shutdown
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a server for handler on the configured address
func NewServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
