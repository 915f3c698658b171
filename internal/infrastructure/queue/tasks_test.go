package queue

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
)

func TestBatchTask(t *testing.T) {
	payload := BatchPayload{
		JobID:   uuid.New(),
		Texts:   []string{"Merhaba Dünya", "doğduğun günün aq"},
		Options: preprocessing.DefaultOptions().WithMinLength(3),
	}

	task, err := NewBatchTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeBatch, task.Type())

	parsed, err := ParseBatchPayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload.JobID, parsed.JobID)
	assert.Equal(t, payload.Texts, parsed.Texts)
	require.NotNil(t, parsed.Options.MinLength)
	assert.Equal(t, 3, *parsed.Options.MinLength)
}

func TestFileTask(t *testing.T) {
	payload := FilePayload{
		JobID:       uuid.New(),
		InputPath:   "uploads/x/input.csv",
		Format:      "csv",
		TextColumn:  "yorum",
		Deduplicate: true,
		Options:     preprocessing.DefaultOptions(),
	}

	task, err := NewFileTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeFile, task.Type())

	parsed, err := ParseFilePayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload, parsed)
}

func TestParsePayload_SkipsRetryOnBadInput(t *testing.T) {
	_, err := ParseBatchPayload(asynq.NewTask(TaskTypeBatch, []byte("{not json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	_, err = ParseBatchPayload(asynq.NewTask(TaskTypeBatch, []byte(`{"texts": ["a"]}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	_, err = ParseFilePayload(asynq.NewTask(TaskTypeFile, []byte(`{"job_id": "`+uuid.NewString()+`"}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
