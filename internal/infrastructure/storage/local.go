package storage

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// Directory layout under the base path
const (
	uploadsDir   = "uploads"
	processedDir = "processed"
	resultsDir   = "results"
)

// ErrFileNotFound is returned when a stored file does not exist
var ErrFileNotFound = errors.New("stored file not found")

// LocalStorage keeps job uploads and results on the local filesystem
type LocalStorage struct {
	basePath    string
	maxFileSize int64
	logger      *slog.Logger
}

// FileMetadata contains information about stored files
type FileMetadata struct {
	JobID        string
	OriginalName string
	StoredPath   string // relative to the storage base path
	Size         int64
	Hash         string
	ContentType  string
	CreatedAt    time.Time
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(cfg *config.StorageConfig, logger *slog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath:    cfg.BasePath,
		maxFileSize: cfg.MaxFileSizeMB << 20,
		logger:      logger,
	}, nil
}

// SaveUpload stores an uploaded dataset for a job. Files above the
// configured size limit are rejected with FILE_TOO_LARGE and not kept.
func (s *LocalStorage) SaveUpload(ctx context.Context, jobID, filename string, reader io.Reader) (*FileMetadata, error) {
	uploadDir := filepath.Join(s.basePath, uploadsDir, jobID)
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	safeName := filepath.Base(filename)
	if safeName == "." || safeName == string(filepath.Separator) {
		return nil, apperrors.BadRequest("invalid file name")
	}
	destPath := filepath.Join(uploadDir, safeName)

	destFile, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if s.maxFileSize > 0 {
		reader = io.LimitReader(reader, s.maxFileSize+1)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(destFile, hash), reader)
	if err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}

	if s.maxFileSize > 0 && size > s.maxFileSize {
		_ = os.RemoveAll(uploadDir)
		return nil, apperrors.FileTooLarge(s.maxFileSize)
	}

	fileHash := hex.EncodeToString(hash.Sum(nil))

	metadata := &FileMetadata{
		JobID:        jobID,
		OriginalName: filename,
		StoredPath:   filepath.Join(uploadsDir, jobID, safeName),
		Size:         size,
		Hash:         fileHash,
		ContentType:  getContentType(filename),
		CreatedAt:    time.Now(),
	}

	s.logger.Info("file uploaded successfully",
		slog.String("job_id", jobID),
		slog.String("filename", safeName),
		slog.Int64("size", size),
		slog.String("hash", fileHash))

	return metadata, nil
}

// Open opens a stored file by its path relative to the base directory
func (s *LocalStorage) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, relPath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// WriteResult streams a job result file through write and returns its
// relative path. A failed write leaves no partial file behind.
func (s *LocalStorage) WriteResult(ctx context.Context, jobID, filename string, write func(w io.Writer) error) (string, error) {
	dir := filepath.Join(s.basePath, processedDir, jobID, resultsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	finalPath := filepath.Join(dir, filepath.Base(filename))
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := write(buf); err != nil {
		tmp.Close()
		return "", err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close result file: %w", err)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("failed to publish result file: %w", err)
	}

	relPath := filepath.Join(processedDir, jobID, resultsDir, filepath.Base(filename))

	s.logger.Info("result file saved",
		slog.String("job_id", jobID),
		slog.String("path", relPath))

	return relPath, nil
}

// DeleteJob removes every file stored for a job
func (s *LocalStorage) DeleteJob(ctx context.Context, jobID string) error {
	for _, dir := range []string{uploadsDir, processedDir} {
		path := filepath.Join(s.basePath, dir, jobID)
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s directory: %w", dir, err)
		}
	}

	s.logger.Info("job files deleted", slog.String("job_id", jobID))
	return nil
}

// CleanupOldFiles removes job directories older than the specified duration
func (s *LocalStorage) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-olderThan)
	removed := 0

	for _, dir := range []string{uploadsDir, processedDir} {
		n, err := s.cleanupDirectory(ctx, filepath.Join(s.basePath, dir), cutoffTime)
		removed += n
		if err != nil {
			return removed, fmt.Errorf("failed to cleanup %s: %w", dir, err)
		}
	}

	s.logger.Info("cleanup completed",
		slog.Duration("older_than", olderThan),
		slog.Int("removed", removed))

	return removed, nil
}

// cleanupDirectory removes directories older than cutoff time
func (s *LocalStorage) cleanupDirectory(ctx context.Context, dir string, cutoffTime time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("path", dirPath),
				slog.Any("error", err))
			continue
		}

		if !info.ModTime().Before(cutoffTime) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			s.logger.Warn("failed to remove directory",
				slog.String("path", dirPath),
				slog.Any("error", err))
			continue
		}
		removed++
		s.logger.Debug("removed old directory",
			slog.String("path", dirPath),
			slog.Time("mod_time", info.ModTime()))
	}

	return removed, nil
}

// resolve maps a relative path into the base directory, refusing escapes
func (s *LocalStorage) resolve(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", apperrors.BadRequest("invalid storage path")
	}
	return filepath.Join(s.basePath, clean), nil
}

// getContentType returns the content type based on file extension
func getContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".jsonl", ".ndjson":
		return "application/x-ndjson"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
