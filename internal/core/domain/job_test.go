package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/preprocessing-service/internal/testutil"
)

func TestJob_TableName(t *testing.T) {
	assert.Equal(t, "jobs", Job{}.TableName())
	assert.Equal(t, "dedup_hashes", DedupHash{}.TableName())
}

func TestJob_StatusValidation(t *testing.T) {
	expected := []string{"queued", "processing", "completed", "failed"}
	assert.Equal(t, expected, ValidStatuses())
}

func TestJob_IsValidStatus(t *testing.T) {
	tests := []struct {
		status string
		valid  bool
	}{
		{"queued", true},
		{"processing", true},
		{"completed", true},
		{"failed", true},
		{"uploaded", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidStatus(tt.status))
		})
	}
}

func TestJob_IsTerminal(t *testing.T) {
	assert.False(t, (&Job{Status: JobStatusQueued}).IsTerminal())
	assert.False(t, (&Job{Status: JobStatusProcessing}).IsTerminal())
	assert.True(t, (&Job{Status: JobStatusCompleted}).IsTerminal())
	assert.True(t, (&Job{Status: JobStatusFailed}).IsTerminal())
}

func TestJob_BeforeCreate(t *testing.T) {
	db := testutil.SetupPostgres(t, Models()...)

	job := &Job{Kind: JobKindBatch}
	assert.Equal(t, uuid.Nil, job.ID)

	require.NoError(t, db.Create(job).Error)
	assert.NotEqual(t, uuid.Nil, job.ID)
}

func TestJob_DefaultValuesAndOptions(t *testing.T) {
	db := testutil.SetupPostgres(t, Models()...)

	job := &Job{
		Kind:    JobKindFile,
		Options: JSONB{"lower": true, "min_len": float64(3)},
	}
	require.NoError(t, db.Create(job).Error)

	var loaded Job
	require.NoError(t, db.First(&loaded, "id = ?", job.ID).Error)

	assert.Equal(t, JobStatusQueued, loaded.Status)
	assert.Zero(t, loaded.TotalItems)
	assert.NotZero(t, loaded.CreatedAt)
	assert.Equal(t, true, loaded.Options["lower"])
	assert.Equal(t, float64(3), loaded.Options["min_len"])
}

func TestDedupHash_KeptFalseIsPersisted(t *testing.T) {
	db := testutil.SetupPostgres(t, Models()...)

	job := &Job{Kind: JobKindFile}
	require.NoError(t, db.Create(job).Error)

	hash := &DedupHash{JobID: job.ID, Hash: "abc", OriginalRowIndex: 4, Kept: false}
	require.NoError(t, db.Create(hash).Error)
	assert.NotEqual(t, uuid.Nil, hash.ID)

	var loaded DedupHash
	require.NoError(t, db.First(&loaded, "id = ?", hash.ID).Error)
	assert.False(t, loaded.Kept)
	assert.Equal(t, 4, loaded.OriginalRowIndex)
}
