package preprocess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/parsers"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/queue"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/storage"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// TaskMux is satisfied by queue.AsynqServer and asynq.ServeMux
type TaskMux interface {
	HandleFunc(pattern string, handler func(context.Context, *asynq.Task) error)
}

// Register binds the task handlers to mux
func (s *Service) Register(mux TaskMux) {
	mux.HandleFunc(queue.TaskTypeBatch, s.HandleBatchTask)
	mux.HandleFunc(queue.TaskTypeFile, s.HandleFileTask)
}

// HandleBatchTask normalizes the texts of a batch job and writes its results
func (s *Service) HandleBatchTask(ctx context.Context, task *asynq.Task) error {
	p, err := queue.ParseBatchPayload(task)
	if err != nil {
		return err
	}

	return s.runJob(ctx, p.JobID, domain.JobKindBatch, func() ([]ResultLine, repositories.JobCounts, error) {
		res, err := s.NormalizeBatch(ctx, p.Texts, p.Options)
		if err != nil {
			return nil, repositories.JobCounts{}, err
		}
		if err := ctx.Err(); err != nil {
			return nil, repositories.JobCounts{}, err
		}
		return resultLines(res, nil), countsOf(res, 0), nil
	})
}

// HandleFileTask parses a stored upload, normalizes its text column,
// optionally drops duplicate results and writes them
func (s *Service) HandleFileTask(ctx context.Context, task *asynq.Task) error {
	p, err := queue.ParseFilePayload(task)
	if err != nil {
		return err
	}

	return s.runJob(ctx, p.JobID, domain.JobKindFile, func() ([]ResultLine, repositories.JobCounts, error) {
		rc, err := s.files.Open(ctx, p.InputPath)
		if err != nil {
			return nil, repositories.JobCounts{}, err
		}
		defer rc.Close()

		res, err := s.NormalizeFile(ctx, p.JobID, rc, FileOptions{
			Format:      p.Format,
			TextColumn:  p.TextColumn,
			Deduplicate: p.Deduplicate,
			Options:     p.Options,
		})
		if err != nil {
			return nil, repositories.JobCounts{}, err
		}
		return res.Lines, res.Counts, nil
	})
}

// FileOptions selects how a dataset is read and normalized
type FileOptions struct {
	Format      string
	TextColumn  string
	Deduplicate bool
	Options     preprocessing.Options
}

// FileResult holds the result lines of a dataset and their counts.
// Duplicates are left out of Lines.
type FileResult struct {
	Lines  []ResultLine
	Counts repositories.JobCounts
}

// NormalizeFile parses a dataset, normalizes its text column and, when
// asked and a deduplicator is configured, drops repeated results. jobID
// scopes the dedup hashes.
func (s *Service) NormalizeFile(ctx context.Context, jobID uuid.UUID, r io.Reader, fo FileOptions) (*FileResult, error) {
	texts, err := s.readColumn(ctx, r, fo.Format, fo.TextColumn)
	if err != nil {
		return nil, err
	}

	// Files are bounded by the upload size, not the request batch limit
	start := time.Now()
	res, err := s.pipeline.NormalizeBatch(ctx, texts, fo.Options)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.metrics.ObserveBatch(len(texts), res.Processed, res.Filtered, res.Failed, time.Since(start))

	var drop map[int]bool
	if fo.Deduplicate && s.dedup != nil {
		if drop, err = s.duplicates(ctx, jobID, res); err != nil {
			return nil, err
		}
	}

	return &FileResult{
		Lines:  resultLines(res, drop),
		Counts: countsOf(res, len(drop)),
	}, nil
}

// runJob drives a job through processing to completed or failed. Errors a
// retry cannot fix are wrapped with asynq.SkipRetry.
func (s *Service) runJob(ctx context.Context, jobID uuid.UUID, kind string, work func() ([]ResultLine, repositories.JobCounts, error)) error {
	log := s.logger.With(slog.String("job_id", jobID.String()), slog.String("kind", kind))

	if err := s.jobs.MarkProcessing(ctx, jobID); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound) {
			return fmt.Errorf("job %s no longer exists: %w", jobID, asynq.SkipRetry)
		}
		return err
	}

	lines, counts, err := work()
	if err == nil {
		var path string
		path, err = s.files.WriteResult(ctx, jobID.String(), ResultFilename, func(w io.Writer) error {
			return WriteResultLines(w, lines)
		})
		if err == nil {
			err = s.jobs.Complete(ctx, jobID, counts, path)
		}
	}

	if err != nil {
		log.Error("job failed", slog.Any("error", err))
		if failErr := s.jobs.Fail(ctx, jobID, err.Error()); failErr != nil {
			log.Error("failed to mark job as failed", slog.Any("error", failErr))
		}
		s.metrics.JobFinished(kind, domain.JobStatusFailed)
		if isPermanent(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	s.metrics.JobFinished(kind, domain.JobStatusCompleted)
	log.Info("job completed",
		slog.Int("total", counts.Total),
		slog.Int("processed", counts.Processed),
		slog.Int("filtered", counts.Filtered),
		slog.Int("failed", counts.Failed),
		slog.Int("duplicates", counts.Duplicates))

	return nil
}

func (s *Service) readColumn(ctx context.Context, r io.Reader, format, column string) ([]string, error) {
	parser, err := s.parsers.ForFormat(format)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.ParseStream(ctx, r)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.FileParse(err)
	}

	if column == "" {
		column = parsers.DefaultTextColumn
	}
	return parsers.ExtractTexts(parsed, column)
}

// duplicates returns the indices of non-empty results that repeat an
// earlier result in this file or one kept by a previous job
func (s *Service) duplicates(ctx context.Context, jobID uuid.UUID, res *preprocessing.BatchResult) (map[int]bool, error) {
	candidates := make([]deduplication.Record, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Err != nil || item.Result.Filtered || item.Result.Text == "" {
			continue
		}
		candidates = append(candidates, deduplication.Record{RowIndex: item.Index, Text: item.Result.Text})
	}

	dres, err := s.dedup.Deduplicate(ctx, jobID, candidates)
	if err != nil {
		return nil, err
	}

	kept := make(map[int]bool, len(dres.Records))
	for _, r := range dres.Records {
		kept[r.RowIndex] = true
	}

	drop := make(map[int]bool)
	for _, c := range candidates {
		if !kept[c.RowIndex] {
			drop[c.RowIndex] = true
		}
	}
	return drop, nil
}

func resultLines(res *preprocessing.BatchResult, drop map[int]bool) []ResultLine {
	lines := make([]ResultLine, 0, len(res.Items))
	for _, item := range res.Items {
		if drop[item.Index] {
			continue
		}
		line := ResultLine{Index: item.Index}
		if item.Err != nil {
			line.Error = item.Err.Error()
		} else {
			line.Text = item.Result.Text
			line.Filtered = item.Result.Filtered
		}
		lines = append(lines, line)
	}
	return lines
}

func countsOf(res *preprocessing.BatchResult, duplicates int) repositories.JobCounts {
	return repositories.JobCounts{
		Total:      len(res.Items),
		Processed:  res.Processed,
		Filtered:   res.Filtered,
		Failed:     res.Failed,
		Duplicates: duplicates,
	}
}

func isPermanent(err error) bool {
	for _, code := range []apperrors.ErrorCode{
		apperrors.ErrCodeInvalidConfig,
		apperrors.ErrCodeBadRequest,
		apperrors.ErrCodeUnsupportedFormat,
		apperrors.ErrCodeFileParseError,
		apperrors.ErrCodeRecordNotFound,
	} {
		if apperrors.HasCode(err, code) {
			return true
		}
	}
	return errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, asynq.SkipRetry)
}
