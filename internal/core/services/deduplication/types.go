package deduplication

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy defines the deduplication strategy
type Strategy string

const (
	StrategyExact     Strategy = "exact"     // Exact match within one job
	StrategyUniversal Strategy = "universal" // Also drops texts kept by earlier jobs
)

// Record is one normalized text to be deduplicated
type Record struct {
	RowIndex int    `json:"row_index"`
	Text     string `json:"text"`
	Hash     string `json:"hash,omitempty"`
}

// Result contains the outcome of deduplication
type Result struct {
	OriginalCount     int      `json:"original_count"`
	DeduplicatedCount int      `json:"deduplicated_count"`
	RemovedCount      int      `json:"removed_count"`
	Strategy          Strategy `json:"strategy"`
	Records           []Record `json:"records"`
	Stats             Stats    `json:"stats"`
}

// Stats provides detailed statistics
type Stats struct {
	InJobDuplicates    int   `json:"in_job_duplicates"`
	CrossJobDuplicates int   `json:"cross_job_duplicates"`
	UniqueRecords      int   `json:"unique_records"`
	ProcessingTimeMs   int64 `json:"processing_time_ms"`
}

// Config for deduplication service
type Config struct {
	Strategy       Strategy `json:"strategy"`
	StoreHashes    bool     `json:"store_hashes"`    // Store hashes in DB
	CaseSensitive  bool     `json:"case_sensitive"`  // Case-sensitive comparison
	TrimWhitespace bool     `json:"trim_whitespace"` // Trim whitespace before hashing
}

// DefaultConfig returns default deduplication configuration
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyExact,
		StoreHashes:    true,
		CaseSensitive:  false,
		TrimWhitespace: true,
	}
}

// HashRepository defines the interface for hash storage
type HashRepository interface {
	// KeptHashes returns the subset of hashes some job kept
	KeptHashes(ctx context.Context, hashes []string) (map[string]bool, error)

	// SaveHashes stores deduplication hashes for a job
	SaveHashes(ctx context.Context, jobID uuid.UUID, hashes []HashEntry) error

	// GetJobHashes retrieves all hashes for a specific job
	GetJobHashes(ctx context.Context, jobID uuid.UUID) ([]HashEntry, error)
}

// HashEntry represents a hash entry to be stored
type HashEntry struct {
	Hash             string
	OriginalRowIndex int
	Kept             bool
}

// Deduplicator defines the interface for deduplication operations
type Deduplicator interface {
	Deduplicate(ctx context.Context, jobID uuid.UUID, records []Record) (*Result, error)
	GetConfig() Config
}

// HashText returns the SHA256 of text after the configured trimming and case folding
func HashText(text string, config Config) string {
	if config.TrimWhitespace {
		text = strings.TrimSpace(text)
	}
	if !config.CaseSensitive {
		text = cases.Lower(language.Turkish).String(text)
	}

	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
