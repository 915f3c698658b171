package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
)

// Task types
const (
	TaskTypeBatch = "preprocess:batch"
	TaskTypeFile  = "preprocess:file"
)

// BatchPayload asks a worker to normalize a list of texts
type BatchPayload struct {
	JobID   uuid.UUID             `json:"job_id"`
	Texts   []string              `json:"texts"`
	Options preprocessing.Options `json:"options"`
}

// FilePayload asks a worker to normalize one column of a stored upload
type FilePayload struct {
	JobID       uuid.UUID             `json:"job_id"`
	InputPath   string                `json:"input_path"`
	Format      string                `json:"format"`
	TextColumn  string                `json:"text_column"`
	Deduplicate bool                  `json:"deduplicate"`
	Options     preprocessing.Options `json:"options"`
}

// NewBatchTask builds a preprocess:batch task. The job ID doubles as the
// task ID so a job is never enqueued twice.
func NewBatchTask(p BatchPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch payload: %w", err)
	}
	return asynq.NewTask(TaskTypeBatch, payload,
		asynq.TaskID(p.JobID.String()),
		asynq.Queue(QueueBatch),
		asynq.Timeout(10*time.Minute),
	), nil
}

// NewFileTask builds a preprocess:file task
func NewFileTask(p FilePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file payload: %w", err)
	}
	return asynq.NewTask(TaskTypeFile, payload,
		asynq.TaskID(p.JobID.String()),
		asynq.Queue(QueueFiles),
		asynq.Timeout(time.Hour),
	), nil
}

// ParseBatchPayload decodes a preprocess:batch payload. Decoding failures
// wrap asynq.SkipRetry since a retry cannot fix them.
func ParseBatchPayload(task *asynq.Task) (BatchPayload, error) {
	var p BatchPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid batch payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.JobID == uuid.Nil {
		return p, fmt.Errorf("batch payload has no job id: %w", asynq.SkipRetry)
	}
	return p, nil
}

// ParseFilePayload decodes a preprocess:file payload
func ParseFilePayload(task *asynq.Task) (FilePayload, error) {
	var p FilePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid file payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.JobID == uuid.Nil {
		return p, fmt.Errorf("file payload has no job id: %w", asynq.SkipRetry)
	}
	if p.InputPath == "" || p.TextColumn == "" {
		return p, fmt.Errorf("file payload needs input_path and text_column: %w", asynq.SkipRetry)
	}
	return p, nil
}
