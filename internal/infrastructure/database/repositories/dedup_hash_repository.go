package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/deduplication"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// hashBatchSize bounds both insert batches and IN lists
const hashBatchSize = 1000

// DedupHashRepository implements deduplication.HashRepository on the dedup_hashes table
type DedupHashRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewDedupHashRepository creates a new repository instance
func NewDedupHashRepository(db *gorm.DB, logger *slog.Logger) *DedupHashRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &DedupHashRepository{
		db:     db,
		logger: logger,
	}
}

// KeptHashes returns which of hashes were kept by any job
func (r *DedupHashRepository) KeptHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	kept := make(map[string]bool)

	for start := 0; start < len(hashes); start += hashBatchSize {
		end := min(start+hashBatchSize, len(hashes))

		var found []string
		err := r.db.WithContext(ctx).
			Model(&domain.DedupHash{}).
			Where("kept = ? AND hash IN ?", true, hashes[start:end]).
			Distinct().
			Pluck("hash", &found).
			Error
		if err != nil {
			r.logger.Error("failed to look up kept hashes",
				slog.Int("hash_count", end-start),
				slog.Any("error", err))
			return nil, apperrors.DatabaseError(fmt.Errorf("failed to look up kept hashes: %w", err))
		}

		for _, h := range found {
			kept[h] = true
		}
	}

	return kept, nil
}

// SaveHashes stores one row per entry for jobID
func (r *DedupHashRepository) SaveHashes(ctx context.Context, jobID uuid.UUID, hashes []deduplication.HashEntry) error {
	if len(hashes) == 0 {
		return nil
	}

	rows := make([]domain.DedupHash, 0, len(hashes))
	for _, entry := range hashes {
		rows = append(rows, domain.DedupHash{
			JobID:            jobID,
			Hash:             entry.Hash,
			OriginalRowIndex: entry.OriginalRowIndex,
			Kept:             entry.Kept,
		})
	}

	if err := r.db.WithContext(ctx).CreateInBatches(rows, hashBatchSize).Error; err != nil {
		r.logger.Error("failed to save hashes",
			slog.String("job_id", jobID.String()),
			slog.Int("hash_count", len(hashes)),
			slog.Any("error", err))
		return apperrors.DatabaseError(fmt.Errorf("failed to insert hashes: %w", err))
	}

	r.logger.Debug("saved dedup hashes",
		slog.String("job_id", jobID.String()),
		slog.Int("hash_count", len(hashes)))

	return nil
}

// GetJobHashes returns the hashes stored for jobID in row order
func (r *DedupHashRepository) GetJobHashes(ctx context.Context, jobID uuid.UUID) ([]deduplication.HashEntry, error) {
	var rows []domain.DedupHash

	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("original_row_index ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, apperrors.DatabaseError(fmt.Errorf("failed to load job hashes: %w", err))
	}

	entries := make([]deduplication.HashEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, deduplication.HashEntry{
			Hash:             row.Hash,
			OriginalRowIndex: row.OriginalRowIndex,
			Kept:             row.Kept,
		})
	}

	return entries, nil
}
