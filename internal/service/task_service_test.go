package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskhub/internal/cache"
	"taskhub/internal/model"
)

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateFields(ctx context.Context, id, owner uuid.UUID, fields map[string]interface{}) (*model.Task, error) {
	args := m.Called(ctx, id, owner, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

// noCache behaves like a permanently empty cache.
var noCache *cache.Client

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTaskService_List(t *testing.T) {
	owner := uuid.New()
	tasks := []model.Task{
		{ID: uuid.New(), OwnerID: owner, Title: "Buy milk"},
		{ID: uuid.New(), OwnerID: owner, Title: "Walk dog", IsCompleted: true},
	}

	repo := new(MockTaskRepository)
	repo.On("ListByOwner", mock.Anything, owner).Return(tasks, nil)
	svc := NewTaskService(repo, noCache)

	got, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, tasks, got)
	for _, task := range got {
		assert.Equal(t, owner, task.OwnerID)
	}
	repo.AssertExpectations(t)
}

func TestTaskService_Create(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name          string
		title         string
		setupMock     func(*MockTaskRepository)
		expectedError error
	}{
		{
			name:          "blank title rejected before any store access",
			title:         "   ",
			setupMock:     func(m *MockTaskRepository) {},
			expectedError: ErrTitleRequired,
		},
		{
			name:  "successful create",
			title: "Buy milk",
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTaskRepository)
			tt.setupMock(repo)
			svc := NewTaskService(repo, noCache)

			task, err := svc.Create(context.Background(), owner, tt.title, "", nil)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, owner, task.OwnerID)
				assert.Equal(t, tt.title, task.Title)
				assert.Equal(t, "", task.Description)
				assert.False(t, task.IsCompleted)
				assert.NotEqual(t, uuid.Nil, task.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	t.Run("no fields provided", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := NewTaskService(repo, noCache)

		_, err := svc.Update(context.Background(), owner, taskID, TaskUpdate{})
		assert.ErrorIs(t, err, ErrNoUpdateFields)
	})

	t.Run("only provided fields reach the store", func(t *testing.T) {
		updated := &model.Task{ID: taskID, OwnerID: owner, Title: "New title"}

		repo := new(MockTaskRepository)
		repo.On("UpdateFields", mock.Anything, taskID, owner, map[string]interface{}{
			"title": "New title",
		}).Return(updated, nil)
		svc := NewTaskService(repo, noCache)

		got, err := svc.Update(context.Background(), owner, taskID, TaskUpdate{Title: strPtr("New title")})
		require.NoError(t, err)
		assert.Equal(t, updated, got)
		repo.AssertExpectations(t)
	})

	t.Run("blank title update rejected", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := NewTaskService(repo, noCache)

		_, err := svc.Update(context.Background(), owner, taskID, TaskUpdate{Title: strPtr("  ")})
		assert.ErrorIs(t, err, ErrTitleRequired)
	})

	t.Run("missing or foreign task is not found", func(t *testing.T) {
		repo := new(MockTaskRepository)
		repo.On("UpdateFields", mock.Anything, taskID, owner, mock.Anything).
			Return(nil, gorm.ErrRecordNotFound)
		svc := NewTaskService(repo, noCache)

		_, err := svc.Update(context.Background(), owner, taskID, TaskUpdate{IsCompleted: boolPtr(true)})
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTaskService_Delete(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	t.Run("missing or foreign task is not found", func(t *testing.T) {
		repo := new(MockTaskRepository)
		repo.On("DeleteByIDAndOwner", mock.Anything, taskID, owner).
			Return(nil, gorm.ErrRecordNotFound)
		svc := NewTaskService(repo, noCache)

		_, err := svc.Delete(context.Background(), owner, taskID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("successful delete returns the removed row", func(t *testing.T) {
		task := &model.Task{ID: taskID, OwnerID: owner, Title: "Buy milk"}

		repo := new(MockTaskRepository)
		repo.On("DeleteByIDAndOwner", mock.Anything, taskID, owner).Return(task, nil)
		svc := NewTaskService(repo, noCache)

		got, err := svc.Delete(context.Background(), owner, taskID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})
}

func TestTaskService_ToggleCompletion(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	t.Run("missing or foreign task is not found", func(t *testing.T) {
		repo := new(MockTaskRepository)
		repo.On("FindByIDAndOwner", mock.Anything, taskID, owner).
			Return(nil, gorm.ErrRecordNotFound)
		svc := NewTaskService(repo, noCache)

		_, err := svc.ToggleCompletion(context.Background(), owner, taskID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("toggling twice restores the original value", func(t *testing.T) {
		current := &model.Task{ID: taskID, OwnerID: owner, Title: "Buy milk", IsCompleted: false}

		repo := new(MockTaskRepository)
		repo.On("FindByIDAndOwner", mock.Anything, taskID, owner).
			Return(current, nil)
		repo.On("UpdateFields", mock.Anything, taskID, owner, mock.MatchedBy(func(fields map[string]interface{}) bool {
			return fields["is_completed"] == !current.IsCompleted
		})).Run(func(args mock.Arguments) {
			current.IsCompleted = args.Get(3).(map[string]interface{})["is_completed"].(bool)
		}).Return(current, nil)
		svc := NewTaskService(repo, noCache)

		first, err := svc.ToggleCompletion(context.Background(), owner, taskID)
		require.NoError(t, err)
		assert.True(t, first.IsCompleted)

		second, err := svc.ToggleCompletion(context.Background(), owner, taskID)
		require.NoError(t, err)
		assert.False(t, second.IsCompleted)
	})
}

func TestTaskService_DeadlinePassedThrough(t *testing.T) {
	owner := uuid.New()
	deadline := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	repo := new(MockTaskRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.Deadline != nil && task.Deadline.Equal(deadline)
	})).Return(nil)
	svc := NewTaskService(repo, noCache)

	task, err := svc.Create(context.Background(), owner, "Pay rent", "", &deadline)
	require.NoError(t, err)
	require.NotNil(t, task.Deadline)
	repo.AssertExpectations(t)
}
