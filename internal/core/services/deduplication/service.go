package deduplication

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service implements the Deduplicator interface
type Service struct {
	config   Config
	hashRepo HashRepository
	logger   *slog.Logger
}

// NewService creates a new deduplication service. hashRepo may be nil, in
// which case only in-job duplicates are removed and nothing is stored.
func NewService(config Config, hashRepo HashRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		config:   config,
		hashRepo: hashRepo,
		logger:   logger,
	}
}

// Deduplicate removes repeated texts, first within the job and then, for
// the universal strategy, against texts kept by earlier jobs
func (s *Service) Deduplicate(ctx context.Context, jobID uuid.UUID, records []Record) (*Result, error) {
	startTime := time.Now()

	s.logger.Info("starting deduplication",
		slog.String("job_id", jobID.String()),
		slog.Int("record_count", len(records)),
		slog.String("strategy", string(s.config.Strategy)))

	if len(records) == 0 {
		return &Result{
			Strategy: s.config.Strategy,
			Records:  []Record{},
		}, nil
	}

	for i := range records {
		records[i].Hash = HashText(records[i].Text, s.config)
	}

	unique, inJob := s.dedupWithinJob(records)

	crossJob := 0
	if s.config.Strategy == StrategyUniversal && s.hashRepo != nil {
		unique, crossJob = s.dedupAcrossJobs(ctx, unique)
	}

	if s.config.StoreHashes && s.hashRepo != nil {
		if err := s.storeHashes(ctx, jobID, records, unique); err != nil {
			// Hash storage only affects later jobs
			s.logger.Error("failed to store hashes", slog.Any("error", err))
		}
	}

	processingTime := time.Since(startTime).Milliseconds()

	result := &Result{
		OriginalCount:     len(records),
		DeduplicatedCount: len(unique),
		RemovedCount:      len(records) - len(unique),
		Strategy:          s.config.Strategy,
		Records:           unique,
		Stats: Stats{
			InJobDuplicates:    inJob,
			CrossJobDuplicates: crossJob,
			UniqueRecords:      len(unique),
			ProcessingTimeMs:   processingTime,
		},
	}

	s.logger.Info("deduplication completed",
		slog.Int("original_count", result.OriginalCount),
		slog.Int("final_count", result.DeduplicatedCount),
		slog.Int("removed_count", result.RemovedCount),
		slog.Int64("processing_time_ms", processingTime))

	return result, nil
}

// dedupWithinJob keeps the first occurrence of each hash
func (s *Service) dedupWithinJob(records []Record) ([]Record, int) {
	seen := make(map[string]struct{}, len(records))
	unique := make([]Record, 0, len(records))
	duplicates := 0

	for _, record := range records {
		if _, ok := seen[record.Hash]; ok {
			duplicates++
			s.logger.Debug("duplicate text in job",
				slog.String("hash", record.Hash),
				slog.Int("row_index", record.RowIndex))
			continue
		}
		seen[record.Hash] = struct{}{}
		unique = append(unique, record)
	}

	return unique, duplicates
}

// dedupAcrossJobs drops records whose hash an earlier job kept. A failed
// lookup keeps every record.
func (s *Service) dedupAcrossJobs(ctx context.Context, records []Record) ([]Record, int) {
	hashes := make([]string, len(records))
	for i, record := range records {
		hashes[i] = record.Hash
	}

	kept, err := s.hashRepo.KeptHashes(ctx, hashes)
	if err != nil {
		s.logger.Error("failed to look up hashes of earlier jobs",
			slog.Int("record_count", len(records)),
			slog.Any("error", err))
		return records, 0
	}

	unique := make([]Record, 0, len(records))
	for _, record := range records {
		if kept[record.Hash] {
			s.logger.Debug("text already kept by an earlier job",
				slog.String("hash", record.Hash),
				slog.Int("row_index", record.RowIndex))
			continue
		}
		unique = append(unique, record)
	}

	return unique, len(records) - len(unique)
}

// storeHashes stores one entry per input record, flagged with whether it was kept
func (s *Service) storeHashes(ctx context.Context, jobID uuid.UUID, original, kept []Record) error {
	keptIndices := make(map[int]bool, len(kept))
	for _, record := range kept {
		keptIndices[record.RowIndex] = true
	}

	entries := make([]HashEntry, 0, len(original))
	for _, record := range original {
		entries = append(entries, HashEntry{
			Hash:             record.Hash,
			OriginalRowIndex: record.RowIndex,
			Kept:             keptIndices[record.RowIndex],
		})
	}

	return s.hashRepo.SaveHashes(ctx, jobID, entries)
}

// GetConfig returns the current configuration
func (s *Service) GetConfig() Config {
	return s.config
}
