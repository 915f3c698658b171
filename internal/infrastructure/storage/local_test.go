package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
	"github.com/alejandroruanova/preprocessing-service/internal/pkg/logger"
)

func setupTestStorage(t *testing.T, maxMB int64) (*LocalStorage, string) {
	tempDir := t.TempDir()

	storage, err := NewLocalStorage(&config.StorageConfig{
		BasePath:      tempDir,
		MaxFileSizeMB: maxMB,
	}, logger.Discard())
	require.NoError(t, err)

	return storage, tempDir
}

func TestLocalStorage_SaveAndOpenUpload(t *testing.T) {
	storage, tempDir := setupTestStorage(t, 1)
	ctx := context.Background()

	content := []byte("yorum,puan\nMerhaba Dünya,5\n")

	metadata, err := storage.SaveUpload(ctx, "job-123", "../../yorumlar.csv", bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "job-123", metadata.JobID)
	assert.Equal(t, filepath.Join("uploads", "job-123", "yorumlar.csv"), metadata.StoredPath, "directory parts are stripped")
	assert.Equal(t, int64(len(content)), metadata.Size)
	assert.Len(t, metadata.Hash, 64)
	assert.Equal(t, "text/csv", metadata.ContentType)

	_, err = os.Stat(filepath.Join(tempDir, metadata.StoredPath))
	require.NoError(t, err)

	rc, err := storage.Open(ctx, metadata.StoredPath)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStorage_SaveUploadTooLarge(t *testing.T) {
	storage, tempDir := setupTestStorage(t, 1)

	big := bytes.Repeat([]byte("a"), (1<<20)+1)
	_, err := storage.SaveUpload(context.Background(), "job-big", "big.csv", bytes.NewReader(big))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFileTooLarge))

	_, err = os.Stat(filepath.Join(tempDir, "uploads", "job-big"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_OpenRejectsEscapes(t *testing.T) {
	storage, _ := setupTestStorage(t, 1)
	ctx := context.Background()

	for _, path := range []string{"../etc/passwd", "/etc/passwd", ".."} {
		_, err := storage.Open(ctx, path)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest), path)
	}

	_, err := storage.Open(ctx, "uploads/none/file.csv")
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestLocalStorage_WriteResult(t *testing.T) {
	storage, tempDir := setupTestStorage(t, 1)
	ctx := context.Background()

	relPath, err := storage.WriteResult(ctx, "job-1", "results.jsonl", func(w io.Writer) error {
		_, err := io.WriteString(w, "{\"index\":0}\n")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("processed", "job-1", "results", "results.jsonl"), relPath)

	data, err := os.ReadFile(filepath.Join(tempDir, relPath))
	require.NoError(t, err)
	assert.Equal(t, "{\"index\":0}\n", string(data))
}

func TestLocalStorage_WriteResultFailureLeavesNothing(t *testing.T) {
	storage, tempDir := setupTestStorage(t, 1)

	_, err := storage.WriteResult(context.Background(), "job-2", "results.jsonl", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	entries, err := os.ReadDir(filepath.Join(tempDir, "processed", "job-2", "results"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_DeleteJob(t *testing.T) {
	storage, tempDir := setupTestStorage(t, 1)
	ctx := context.Background()

	_, err := storage.SaveUpload(ctx, "job-3", "in.csv", strings.NewReader("a\n"))
	require.NoError(t, err)
	_, err = storage.WriteResult(ctx, "job-3", "results.jsonl", func(w io.Writer) error { return nil })
	require.NoError(t, err)

	require.NoError(t, storage.DeleteJob(ctx, "job-3"))

	_, err = os.Stat(filepath.Join(tempDir, "uploads", "job-3"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(tempDir, "processed", "job-3"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.DeleteJob(ctx, "never-existed"))
}

func TestLocalStorage_CleanupOldFiles(t *testing.T) {
	storage, tempDir := setupTestStorage(t, 1)
	ctx := context.Background()

	_, err := storage.SaveUpload(ctx, "old", "a.csv", strings.NewReader("a\n"))
	require.NoError(t, err)
	_, err = storage.SaveUpload(ctx, "new", "b.csv", strings.NewReader("b\n"))
	require.NoError(t, err)

	oldTime := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(tempDir, "uploads", "old"), oldTime, oldTime))

	removed, err := storage.CleanupOldFiles(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(tempDir, "uploads", "old"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(tempDir, "uploads", "new"))
	assert.NoError(t, err)
}

func TestLocalStorage_GetContentType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"data.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"data.CSV", "text/csv"},
		{"data.json", "application/json"},
		{"data.jsonl", "application/x-ndjson"},
		{"notes.txt", "text/plain"},
		{"data.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, getContentType(tt.filename))
		})
	}
}
