package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
)

// Queue names. Batch jobs get the larger share of workers.
const (
	QueueBatch = "batch"
	QueueFiles = "files"
)

const (
	maxRetryDelay   = 5 * time.Minute
	shutdownTimeout = 25 * time.Second
)

func redisClientOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

// AsynqClient wraps the Asynq client for enqueuing tasks
type AsynqClient struct {
	client     *asynq.Client
	logger     *slog.Logger
	maxRetries int
}

// NewAsynqClient creates a new Asynq client
func NewAsynqClient(cfg *config.QueueConfig, logger *slog.Logger) (*AsynqClient, error) {
	redisOpt := redisClientOpt(cfg)

	client := asynq.NewClient(redisOpt)
	if err := client.Ping(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach queue redis: %w", err)
	}

	logger.Info("asynq client created",
		slog.String("redis_host", cfg.RedisHost),
		slog.Int("redis_port", cfg.RedisPort),
	)

	return &AsynqClient{
		client:     client,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Close closes the Asynq client
func (a *AsynqClient) Close() error {
	a.logger.Info("closing asynq client")
	return a.client.Close()
}

// EnqueueContext enqueues a task with the configured retry budget. Options
// passed by the caller take precedence.
func (a *AsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	opts = append([]asynq.Option{asynq.MaxRetry(a.maxRetries)}, opts...)
	info, err := a.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		a.logger.Error("failed to enqueue task",
			slog.String("task_type", task.Type()),
			slog.Any("error", err),
		)
		return nil, err
	}

	a.logger.Debug("task enqueued",
		slog.String("task_id", info.ID),
		slog.String("task_type", task.Type()),
		slog.String("queue", info.Queue),
	)

	return info, nil
}

// AsynqServer wraps the Asynq server for processing tasks
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewAsynqServer creates a server for the batch and file queues
func NewAsynqServer(cfg *config.QueueConfig, logger *slog.Logger) (*AsynqServer, error) {
	server := asynq.NewServer(redisClientOpt(cfg), serverConfig(cfg, logger))

	logger.Info("asynq server created",
		slog.String("redis_host", cfg.RedisHost),
		slog.Int("redis_port", cfg.RedisPort),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Bool("strict_priority", cfg.StrictPriority),
	)

	return &AsynqServer{
		server: server,
		mux:    asynq.NewServeMux(),
		logger: logger,
	}, nil
}

func serverConfig(cfg *config.QueueConfig, logger *slog.Logger) asynq.Config {
	return asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueBatch: 3,
			QueueFiles: 1,
		},
		StrictPriority: cfg.StrictPriority,
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return retryDelay(n)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logTaskError(ctx, logger, task, err)
		}),
		HealthCheckFunc: func(err error) {
			if err != nil {
				logger.Error("queue redis health check failed", slog.Any("error", err))
			}
		},
		HealthCheckInterval: 20 * time.Second,
		ShutdownTimeout:     shutdownTimeout,
	}
}

// retryDelay doubles from 2s and is capped at maxRetryDelay
func retryDelay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= 8 {
		return maxRetryDelay
	}
	return min(time.Duration(2<<uint(n))*time.Second, maxRetryDelay)
}

// logTaskError logs at error level only once the task will not run again
func logTaskError(ctx context.Context, logger *slog.Logger, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	attrs := []any{
		slog.String("task_type", task.Type()),
		slog.Int("retry", retried),
		slog.Int("max_retry", maxRetry),
		slog.Any("error", err),
	}

	if errors.Is(err, asynq.SkipRetry) || retried >= maxRetry {
		logger.Error("task failed permanently", attrs...)
		return
	}
	logger.Warn("task failed, will retry", attrs...)
}

// HandleFunc registers a handler function for a task type
func (a *AsynqServer) HandleFunc(pattern string, handler func(context.Context, *asynq.Task) error) {
	a.mux.HandleFunc(pattern, handler)
	a.logger.Debug("handler registered", slog.String("pattern", pattern))
}

// Use adds a middleware to the mux
func (a *AsynqServer) Use(middleware func(asynq.Handler) asynq.Handler) {
	a.mux.Use(middleware)
}

// Run processes tasks until ctx is cancelled, then shuts the server down
func (a *AsynqServer) Run(ctx context.Context) error {
	a.logger.Info("starting asynq server")
	if err := a.server.Start(a.mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}

	<-ctx.Done()
	a.Shutdown()
	return nil
}

// Shutdown gracefully shuts down the server
func (a *AsynqServer) Shutdown() {
	a.logger.Info("shutting down asynq server")
	a.server.Shutdown()
}

// LoggingMiddleware logs the start, duration and outcome of every task
func LoggingMiddleware(logger *slog.Logger) func(asynq.Handler) asynq.Handler {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			start := time.Now()
			taskID, _ := asynq.GetTaskID(ctx)

			logger.Info("task started",
				slog.String("task_id", taskID),
				slog.String("task_type", task.Type()))

			err := next.ProcessTask(ctx, task)

			attrs := []any{
				slog.String("task_id", taskID),
				slog.String("task_type", task.Type()),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("task returned error", append(attrs, slog.Any("error", err))...)
				return err
			}
			logger.Info("task finished", attrs...)
			return nil
		})
	}
}
