package preprocess

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/parsers"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/queue"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// DefaultListLimit caps ListJobs when no limit is given
const DefaultListLimit = 50

// ResultLine is one line of a job's JSONL result. Index is the position of
// the text in the submitted batch or the parsed file.
type ResultLine struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Filtered bool   `json:"filtered,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FileJobRequest describes an uploaded dataset to normalize in the background
type FileJobRequest struct {
	Filename    string
	Reader      io.Reader
	TextColumn  string
	Deduplicate bool
	Options     preprocessing.Options
}

// SubmitBatchJob persists a queued job for texts and enqueues it
func (s *Service) SubmitBatchJob(ctx context.Context, texts []string, opts preprocessing.Options) (*domain.Job, error) {
	if err := s.requireJobs(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, apperrors.BadRequest("texts must not be empty")
	}
	if err := s.checkBatchSize(len(texts)); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:         uuid.New(),
		Kind:       domain.JobKindBatch,
		Status:     domain.JobStatusQueued,
		Options:    optionsJSONB(opts),
		TotalItems: len(texts),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	task, err := queue.NewBatchTask(queue.BatchPayload{
		JobID:   job.ID,
		Texts:   texts,
		Options: opts,
	})
	if err != nil {
		return nil, s.abandon(ctx, job, err)
	}
	if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
		return nil, s.abandon(ctx, job, err)
	}

	s.logger.Info("batch job submitted",
		slog.String("job_id", job.ID.String()),
		slog.Int("texts", len(texts)))

	return job, nil
}

// SubmitFileJob stores the upload, persists a queued job and enqueues it
func (s *Service) SubmitFileJob(ctx context.Context, req FileJobRequest) (*domain.Job, error) {
	if err := s.requireJobs(); err != nil {
		return nil, err
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	parser, err := s.parsers.ForFile(req.Filename)
	if err != nil {
		return nil, err
	}

	column := req.TextColumn
	if column == "" {
		column = parsers.DefaultTextColumn
	}

	jobID := uuid.New()
	meta, err := s.files.SaveUpload(ctx, jobID.String(), req.Filename, req.Reader)
	if err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:               jobID,
		Kind:             domain.JobKindFile,
		Status:           domain.JobStatusQueued,
		OriginalFilename: meta.OriginalName,
		InputPath:        meta.StoredPath,
		TextColumn:       column,
		Deduplicate:      req.Deduplicate,
		Options:          optionsJSONB(req.Options),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.removeFiles(ctx, jobID)
		return nil, err
	}

	task, err := queue.NewFileTask(queue.FilePayload{
		JobID:       jobID,
		InputPath:   meta.StoredPath,
		Format:      parser.Format(),
		TextColumn:  column,
		Deduplicate: req.Deduplicate,
		Options:     req.Options,
	})
	if err != nil {
		return nil, s.abandon(ctx, job, err)
	}
	if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
		return nil, s.abandon(ctx, job, err)
	}

	s.logger.Info("file job submitted",
		slog.String("job_id", jobID.String()),
		slog.String("filename", meta.OriginalName),
		slog.String("format", parser.Format()),
		slog.Int64("size", meta.Size))

	return job, nil
}

// GetJob returns a job by ID
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if s.jobs == nil {
		return nil, apperrors.Disabled("background jobs")
	}
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns the most recent jobs, optionally filtered by status
func (s *Service) ListJobs(ctx context.Context, status string, limit int) ([]domain.Job, error) {
	if s.jobs == nil {
		return nil, apperrors.Disabled("background jobs")
	}
	if status != "" && !domain.IsValidStatus(status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid job status: %s", status)).
			WithDetails("valid_statuses", domain.ValidStatuses())
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.jobs.List(ctx, status, limit)
}

// DeleteJob removes a finished job and its files
func (s *Service) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if err := s.requireJobs(); err != nil {
		return err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == domain.JobStatusProcessing {
		return apperrors.Conflict("job is still processing")
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFiles(ctx, id)

	return nil
}

// JobResults reads the result lines of a completed job
func (s *Service) JobResults(ctx context.Context, id uuid.UUID) ([]ResultLine, error) {
	if err := s.requireJobs(); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, apperrors.Conflict(fmt.Sprintf("job is %s, results are available once it completes", job.Status)).
			WithDetails("status", job.Status)
	}

	rc, err := s.files.Open(ctx, job.ResultPath)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to open job results")
	}
	defer rc.Close()

	return readResultLines(rc)
}

func (s *Service) requireJobs() error {
	if !s.JobsEnabled() {
		return apperrors.Disabled("background jobs")
	}
	return nil
}

// abandon marks a job that could not be enqueued as failed
func (s *Service) abandon(ctx context.Context, job *domain.Job, cause error) error {
	s.logger.Error("failed to enqueue job",
		slog.String("job_id", job.ID.String()),
		slog.Any("error", cause))

	if err := s.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		s.logger.Error("failed to mark job as failed",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
	}
	return apperrors.QueueError(cause)
}

func (s *Service) removeFiles(ctx context.Context, id uuid.UUID) {
	if err := s.files.DeleteJob(ctx, id.String()); err != nil {
		s.logger.Warn("failed to delete job files",
			slog.String("job_id", id.String()),
			slog.Any("error", err))
	}
}

func optionsJSONB(opts preprocessing.Options) domain.JSONB {
	raw, err := json.Marshal(opts)
	if err != nil {
		return nil
	}
	var out domain.JSONB
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// LinesOf converts a batch result into result lines, one per input
func LinesOf(res *preprocessing.BatchResult) []ResultLine {
	return resultLines(res, nil)
}

// WriteResultLines writes lines as JSONL
func WriteResultLines(w io.Writer, lines []ResultLine) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func readResultLines(r io.Reader) ([]ResultLine, error) {
	dec := json.NewDecoder(r)
	lines := []ResultLine{}
	for {
		var line ResultLine
		err := dec.Decode(&line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.InternalWrap(err, "corrupt job results")
		}
		lines = append(lines, line)
	}
	return lines, nil
}
