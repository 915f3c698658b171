package preprocess

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database/repositories"
)

type mockJobStore struct {
	mock.Mock
}

func (m *mockJobStore) Create(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*domain.Job)
	return job, args.Error(1)
}

func (m *mockJobStore) List(ctx context.Context, status string, limit int) ([]domain.Job, error) {
	args := m.Called(ctx, status, limit)
	jobs, _ := args.Get(0).([]domain.Job)
	return jobs, args.Error(1)
}

func (m *mockJobStore) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockJobStore) Complete(ctx context.Context, id uuid.UUID, counts repositories.JobCounts, resultPath string) error {
	return m.Called(ctx, id, counts, resultPath).Error(0)
}

func (m *mockJobStore) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *mockJobStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueContext(ctx context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockCache) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{"status": "down"}
}

func (m *mockCache) Close() error {
	return nil
}
