package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// JobCounts are the item tallies recorded when a job finishes
type JobCounts struct {
	Total      int
	Processed  int
	Filtered   int
	Failed     int
	Duplicates int
}

// JobRepository persists preprocessing jobs using GORM
type JobRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewJobRepository creates a new repository instance
func NewJobRepository(db *gorm.DB, logger *slog.Logger) *JobRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a job, assigning its ID if unset
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if job.Status == "" {
		job.Status = domain.JobStatusQueued
	}

	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		r.logger.Error("failed to create job",
			slog.String("kind", job.Kind),
			slog.Any("error", err))
		return apperrors.DatabaseError(fmt.Errorf("failed to insert job: %w", err))
	}

	r.logger.Info("job created",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", job.Kind))

	return nil
}

// GetByID loads a job. A missing job yields a RECORD_NOT_FOUND error.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job

	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.RecordNotFound("job")
	}
	if err != nil {
		r.logger.Error("failed to get job",
			slog.String("job_id", id.String()),
			slog.Any("error", err))
		return nil, apperrors.DatabaseError(fmt.Errorf("database query failed: %w", err))
	}

	return &job, nil
}

// List returns the most recent jobs, optionally filtered by status
func (r *JobRepository) List(ctx context.Context, status string, limit int) ([]domain.Job, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var jobs []domain.Job
	if err := query.Find(&jobs).Error; err != nil {
		r.logger.Error("failed to list jobs", slog.Any("error", err))
		return nil, apperrors.DatabaseError(fmt.Errorf("database query failed: %w", err))
	}

	return jobs, nil
}

// MarkProcessing moves a job to processing and stamps its start time
func (r *JobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]interface{}{
		"status":     domain.JobStatusProcessing,
		"started_at": now,
		"error":      "",
	})
}

// Complete records the final counts and result location
func (r *JobRepository) Complete(ctx context.Context, id uuid.UUID, counts JobCounts, resultPath string) error {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]interface{}{
		"status":          domain.JobStatusCompleted,
		"total_items":     counts.Total,
		"processed_items": counts.Processed,
		"filtered_items":  counts.Filtered,
		"failed_items":    counts.Failed,
		"duplicate_items": counts.Duplicates,
		"result_path":     resultPath,
		"completed_at":    now,
	})
}

// Fail marks a job as failed with the given reason
func (r *JobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]interface{}{
		"status":       domain.JobStatusFailed,
		"error":        reason,
		"completed_at": now,
	})
}

// Delete removes a job; its dedup hashes go with it
func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Job{}, "id = ?", id)
	if res.Error != nil {
		r.logger.Error("failed to delete job",
			slog.String("job_id", id.String()),
			slog.Any("error", res.Error))
		return apperrors.DatabaseError(fmt.Errorf("failed to delete job: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperrors.RecordNotFound("job")
	}

	r.logger.Info("job deleted", slog.String("job_id", id.String()))
	return nil
}

func (r *JobRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(fields)

	if res.Error != nil {
		r.logger.Error("failed to update job",
			slog.String("job_id", id.String()),
			slog.Any("status", fields["status"]),
			slog.Any("error", res.Error))
		return apperrors.DatabaseError(fmt.Errorf("failed to update job: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperrors.RecordNotFound("job")
	}

	return nil
}
