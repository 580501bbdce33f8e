package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabforge/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Where("id = ?", id).Take(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetForUpdate is GetByID with a row lock where the dialect supports one.
// Inside a transaction it serializes concurrent status changes of one task.
func (r *TaskRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var task model.Task
	if err := q.Where("id = ?", id).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// List returns every task, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update writes every editable column of an existing task. Callers load the
// task first; MySQL reports zero affected rows for unchanged values.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select("title", "description", "category", "deadline", "status", "progress", "assigned_to").
		Omit(clause.Associations).
		Updates(task)
	return result.Error
}

// SetStatus stores a new status and progress together.
func (r *TaskRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus, progress int) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "progress": progress})
	return result.Error
}

// SetProgress updates only the progress column
func (r *TaskRepository) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update("progress", progress)
	return result.Error
}

// Claim marks an open task as accepted by userID. It reports false when the
// task was no longer open.
func (r *TaskRepository) Claim(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ? AND owner_id <> ?", id, model.StatusOpen, userID).
		Updates(map[string]interface{}{"status": model.StatusAccepted, "assigned_to": userID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes a task and every row that references it
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&model.ChatMessage{}, &model.TaskMember{}, &model.Request{}} {
			if err := tx.Where("task_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&model.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}
