package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/apierr"
	"taskhub/internal/cache"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const taskListCacheTTL = 30 * time.Second

var (
	// ErrTaskNotFound covers both a missing task and one owned by another
	// user; callers cannot tell the two apart.
	ErrTaskNotFound = apierr.NotFound("task not found")
	// ErrTitleRequired is returned when a task is created without a title.
	ErrTitleRequired = apierr.BadRequest("title is required")
	// ErrNoUpdateFields is returned when a partial update names no fields.
	ErrNoUpdateFields = apierr.BadRequest("at least one field is required to update")
)

// TaskUpdate carries the optional fields of a partial update. Nil pointers
// mean "leave unchanged".
type TaskUpdate struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	IsCompleted *bool
}

func (u TaskUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Deadline == nil && u.IsCompleted == nil
}

// TaskService handles ownership-scoped task operations. The store is the
// source of truth; the per-owner list cache is advisory and invalidated on
// every mutation.
type TaskService interface {
	List(ctx context.Context, owner uuid.UUID) ([]model.Task, error)
	Create(ctx context.Context, owner uuid.UUID, title, description string, deadline *time.Time) (*model.Task, error)
	Update(ctx context.Context, owner, id uuid.UUID, update TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, owner, id uuid.UUID) (*model.Task, error)
	ToggleCompletion(ctx context.Context, owner, id uuid.UUID) (*model.Task, error)
}

type taskService struct {
	tasks repository.TaskRepository
	cache *cache.Client
}

// NewTaskService creates a task service.
func NewTaskService(tasks repository.TaskRepository, cache *cache.Client) TaskService {
	return &taskService{tasks: tasks, cache: cache}
}

func (s *taskService) cacheKey(owner uuid.UUID) string {
	return fmt.Sprintf("tasks:%s", owner)
}

// List returns all tasks owned by the caller, newest first.
func (s *taskService) List(ctx context.Context, owner uuid.UUID) ([]model.Task, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(owner)); data != nil {
		var cached []model.Task
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	tasks, err := s.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if payload, err := json.Marshal(tasks); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(owner), payload, taskListCacheTTL)
	}
	return tasks, nil
}

// Create persists a new task for the owner. A blank title is rejected even
// if it survived request validation.
func (s *taskService) Create(ctx context.Context, owner uuid.UUID, title, description string, deadline *time.Time) (*model.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}

	task := &model.Task{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       title,
		Description: description,
		Deadline:    deadline,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(owner))
	return task, nil
}

// Update applies only the provided fields to an owned task.
func (s *taskService) Update(ctx context.Context, owner, id uuid.UUID, update TaskUpdate) (*model.Task, error) {
	if update.empty() {
		return nil, ErrNoUpdateFields
	}

	fields := map[string]interface{}{}
	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, ErrTitleRequired
		}
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Deadline != nil {
		fields["deadline"] = *update.Deadline
	}
	if update.IsCompleted != nil {
		fields["is_completed"] = *update.IsCompleted
	}

	task, err := s.tasks.UpdateFields(ctx, id, owner, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(owner))
	return task, nil
}

// Delete removes an owned task and returns the deleted row.
func (s *taskService) Delete(ctx context.Context, owner, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.DeleteByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(owner))
	return task, nil
}

// ToggleCompletion flips the completed flag of an owned task.
func (s *taskService) ToggleCompletion(ctx context.Context, owner, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	updated, err := s.tasks.UpdateFields(ctx, id, owner, map[string]interface{}{
		"is_completed": !task.IsCompleted,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(owner))
	return updated, nil
}
