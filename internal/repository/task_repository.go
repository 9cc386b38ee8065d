package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/model"
)

// TaskRepository defines task persistence operations. Every lookup and
// mutation is scoped to (task id AND owner id); a task owned by someone else
// is indistinguishable from a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Task, error)
	FindByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (*model.Task, error)
	UpdateFields(ctx context.Context, id, owner uuid.UUID, fields map[string]interface{}) (*model.Task, error)
	DeleteByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (*model.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, owner).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateFields applies a partial update to an owned task and returns the
// updated row. Returns gorm.ErrRecordNotFound when no row matched.
func (r *taskRepository) UpdateFields(ctx context.Context, id, owner uuid.UUID, fields map[string]interface{}) (*model.Task, error) {
	tx := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND owner_id = ?", id, owner).
		Updates(fields)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByIDAndOwner(ctx, id, owner)
}

// DeleteByIDAndOwner removes an owned task and returns the deleted row.
func (r *taskRepository) DeleteByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (*model.Task, error) {
	task, err := r.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, owner).
		Delete(&model.Task{}).Error; err != nil {
		return nil, err
	}
	return task, nil
}
