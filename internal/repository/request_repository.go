package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabforge/internal/model"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Exists reports whether userID has any request row for taskID, whatever its status.
func (r *RequestRepository) Exists(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Request{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

// CountByTask counts request rows against a task.
func (r *RequestRepository) CountByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Request{}).
		Where("task_id = ?", taskID).
		Count(&count).Error
	return count, err
}

// CreatePending inserts a pending request. The unique (task_id, user_id)
// index turns a concurrent duplicate into a no-op, reported as false.
func (r *RequestRepository) CreatePending(ctx context.Context, taskID, userID uuid.UUID) (*model.Request, bool, error) {
	req := &model.Request{
		TaskID: taskID,
		UserID: userID,
		Status: model.RequestPending,
	}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(req)
	if result.Error != nil {
		return nil, false, result.Error
	}
	return req, result.RowsAffected == 1, nil
}

// FindPending returns the pending request of userID on taskID.
func (r *RequestRepository) FindPending(ctx context.Context, taskID, userID uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ? AND status = ?", taskID, userID, model.RequestPending).
		Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Resolve moves a pending request to approved or rejected. It reports false
// if the request was no longer pending.
func (r *RequestRepository) Resolve(ctx context.Context, id uuid.UUID, status model.RequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Request{}).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ApprovedUserIDs lists users whose request on taskID was approved.
func (r *RequestRepository) ApprovedUserIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Request{}).
		Where("task_id = ? AND status = ?", taskID, model.RequestApproved).
		Order("created_at").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListIncoming returns requests against tasks owned by ownerID, newest first.
func (r *RequestRepository) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]model.IncomingRequest, error) {
	rows := make([]model.IncomingRequest, 0)
	err := r.db.WithContext(ctx).
		Table("requests AS r").
		Select(`r.id AS request_id, r.status AS status, r.user_id AS user_id, u.username AS username,
			t.id AS task_id, t.title AS title, t.status AS task_status, r.created_at AS created_at`).
		Joins("JOIN tasks t ON r.task_id = t.id").
		Joins("JOIN users u ON r.user_id = u.id").
		Where("t.owner_id = ?", ownerID).
		Order("r.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// ListOutgoing returns requests made by userID, newest first.
func (r *RequestRepository) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]model.OutgoingRequest, error) {
	rows := make([]model.OutgoingRequest, 0)
	err := r.db.WithContext(ctx).
		Table("requests AS r").
		Select(`r.id AS request_id, r.status AS status, r.task_id AS task_id, t.title AS task_title,
			t.owner_id AS task_creator_id, u.username AS task_creator_name, r.created_at AS created_at`).
		Joins("JOIN tasks t ON r.task_id = t.id").
		Joins("JOIN users u ON t.owner_id = u.id").
		Where("r.user_id = ?", userID).
		Order("r.created_at DESC").
		Scan(&rows).Error
	return rows, err
}
