package preprocess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/cache"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/metrics"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/parsers"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/storage"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// ResultFilename is the name of the JSONL result written for every job
const ResultFilename = "results.jsonl"

// JobStore persists job state
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, status string, limit int) ([]domain.Job, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, counts repositories.JobCounts, resultPath string) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStore keeps uploads and job results
type FileStore interface {
	SaveUpload(ctx context.Context, jobID, filename string, reader io.Reader) (*storage.FileMetadata, error)
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)
	WriteResult(ctx context.Context, jobID, filename string, write func(w io.Writer) error) (string, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// TaskEnqueuer hands tasks to the worker queue
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// HealthChecker reports the status of a backing service
type HealthChecker interface {
	Health(ctx context.Context) map[string]interface{}
}

// Deps are the collaborators of a Service. Only Pipeline is required;
// jobs need Jobs, Files and Queue together.
type Deps struct {
	Pipeline     *preprocessing.Pipeline
	Cache        cache.ResultCache
	Metrics      *metrics.Collector
	Jobs         JobStore
	Files        FileStore
	Queue        TaskEnqueuer
	Deduplicator deduplication.Deduplicator
	Parsers      *parsers.ParserFactory
	Database     HealthChecker
	MaxBatchSize int
}

// Service is the application layer shared by the HTTP API, the worker and the CLI
type Service struct {
	pipeline     *preprocessing.Pipeline
	cache        cache.ResultCache
	metrics      *metrics.Collector
	jobs         JobStore
	files        FileStore
	queue        TaskEnqueuer
	dedup        deduplication.Deduplicator
	parsers      *parsers.ParserFactory
	database     HealthChecker
	maxBatchSize int
	logger       *slog.Logger
}

// NewService creates a new preprocessing service
func NewService(deps Deps, logger *slog.Logger) (*Service, error) {
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Parsers == nil {
		deps.Parsers = parsers.NewParserFactory(nil)
	}

	return &Service{
		pipeline:     deps.Pipeline,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		jobs:         deps.Jobs,
		files:        deps.Files,
		queue:        deps.Queue,
		dedup:        deps.Deduplicator,
		parsers:      deps.Parsers,
		database:     deps.Database,
		maxBatchSize: deps.MaxBatchSize,
		logger:       logger,
	}, nil
}

// Pipeline returns the underlying pipeline
func (s *Service) Pipeline() *preprocessing.Pipeline {
	return s.pipeline
}

// Parsers returns the dataset parser factory
func (s *Service) Parsers() *parsers.ParserFactory {
	return s.parsers
}

// JobsEnabled reports whether background jobs can be submitted
func (s *Service) JobsEnabled() bool {
	return s.jobs != nil && s.files != nil && s.queue != nil
}

// Steps returns the ordered stage names opts would run
func (s *Service) Steps(opts preprocessing.Options) ([]string, error) {
	plan, err := s.pipeline.Compile(opts)
	if err != nil {
		return nil, err
	}
	return plan.Steps(), nil
}

// Normalize runs the pipeline on one text, consulting the result cache first.
// Cache failures are logged and bypassed.
func (s *Service) Normalize(ctx context.Context, text string, opts preprocessing.Options) (preprocessing.Result, error) {
	plan, err := s.pipeline.Compile(opts)
	if err != nil {
		return preprocessing.Result{}, err
	}

	key := CacheKey(opts, s.pipeline.Dictionary().Fingerprint(), text)
	if res, ok := s.cachedResult(ctx, key); ok {
		return res, nil
	}

	res, err := plan.Run(text)
	if err != nil {
		s.metrics.ObserveItem(metrics.OutcomeFailed)
		return preprocessing.Result{}, apperrors.ItemFailed(err, 0)
	}

	if res.Filtered {
		s.metrics.ObserveItem(metrics.OutcomeFiltered)
	} else {
		s.metrics.ObserveItem(metrics.OutcomeProcessed)
	}
	s.storeResult(ctx, key, res)

	return res, nil
}

// NormalizeBatch runs the batch coordinator over texts with one configuration
func (s *Service) NormalizeBatch(ctx context.Context, texts []string, opts preprocessing.Options) (*preprocessing.BatchResult, error) {
	if err := s.checkBatchSize(len(texts)); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.pipeline.NormalizeBatch(ctx, texts, opts)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	s.metrics.ObserveBatch(len(texts), res.Processed, res.Filtered, res.Failed, elapsed)
	s.logger.Debug("batch normalized",
		slog.Int("size", len(texts)),
		slog.Int("processed", res.Processed),
		slog.Int("filtered", res.Filtered),
		slog.Int("failed", res.Failed),
		slog.Duration("elapsed", elapsed))

	return res, nil
}

// Health reports the dictionary and every configured backing service. The
// overall status is "degraded" when any of them is down.
func (s *Service) Health(ctx context.Context) map[string]interface{} {
	dict := s.pipeline.Dictionary()
	report := map[string]interface{}{
		"status": "up",
		"dictionary": map[string]interface{}{
			"entries":     dict.Len(),
			"fingerprint": dict.Fingerprint(),
		},
		"workers": s.pipeline.Workers(),
		"jobs":    s.JobsEnabled(),
	}

	checks := map[string]HealthChecker{"cache": s.cache}
	if s.database != nil {
		checks["database"] = s.database
	}
	for name, checker := range checks {
		h := checker.Health(ctx)
		report[name] = h
		if h["status"] == "down" {
			report["status"] = "degraded"
		}
	}

	return report
}

// CacheKey identifies a normalization result by options, dictionary and input
func CacheKey(opts preprocessing.Options, dictFingerprint, text string) string {
	h := sha256.New()
	h.Write([]byte(opts.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(dictFingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Service) cachedResult(ctx context.Context, key string) (preprocessing.Result, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.CacheError()
		s.logger.Warn("result cache lookup failed", slog.Any("error", err))
		return preprocessing.Result{}, false
	}
	if !ok {
		s.metrics.CacheMiss()
		return preprocessing.Result{}, false
	}

	var res preprocessing.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		s.metrics.CacheError()
		s.logger.Warn("discarding undecodable cache entry", slog.Any("error", err))
		return preprocessing.Result{}, false
	}

	s.metrics.CacheHit()
	return res, true
}

func (s *Service) storeResult(ctx context.Context, key string, res preprocessing.Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw)); err != nil {
		s.logger.Warn("result cache store failed", slog.Any("error", err))
	}
}

func (s *Service) checkBatchSize(n int) error {
	if s.maxBatchSize > 0 && n > s.maxBatchSize {
		return apperrors.BadRequest(fmt.Sprintf("batch of %d texts exceeds the limit of %d", n, s.maxBatchSize)).
			WithDetails("max_batch_size", s.maxBatchSize)
	}
	return nil
}
