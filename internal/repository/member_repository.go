package repository

import (
	"context"

	"collabforge/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Add inserts a membership row. An existing (task, user) row is left as is
// and reported as false.
func (r *MemberRepository) Add(ctx context.Context, taskID, userID uuid.UUID, role model.MemberRole) (bool, error) {
	member := model.TaskMember{
		TaskID: taskID,
		UserID: userID,
		Role:   role,
	}

	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IsMember reports whether userID has a membership row for taskID
func (r *MemberRepository) IsMember(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TaskMember{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

// CheckAccess reports whether userID owns the task or is one of its members
func (r *MemberRepository) CheckAccess(ctx context.Context, task *model.Task, userID uuid.UUID) (bool, error) {
	if task.IsOwner(userID) {
		return true, nil
	}
	return r.IsMember(ctx, task.ID, userID)
}

// ListByTask returns the task's members ordered by join time
func (r *MemberRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.MemberView, error) {
	rows := make([]model.MemberView, 0)
	err := r.db.WithContext(ctx).
		Table("task_members AS m").
		Select("m.user_id AS user_id, u.username AS username, m.role AS role, m.joined_at AS joined_at").
		Joins("JOIN users u ON m.user_id = u.id").
		Where("m.task_id = ?", taskID).
		Order("m.joined_at ASC").
		Scan(&rows).Error
	return rows, err
}

// ListByUser returns every membership of userID, most recent first
func (r *MemberRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.MembershipView, error) {
	rows := make([]model.MembershipView, 0)
	err := r.db.WithContext(ctx).
		Table("task_members AS m").
		Select("m.task_id AS task_id, t.title AS task_title, t.status AS task_status, m.role AS role, m.joined_at AS joined_at").
		Joins("JOIN tasks t ON m.task_id = t.id").
		Where("m.user_id = ?", userID).
		Order("m.joined_at DESC").
		Scan(&rows).Error
	return rows, err
}

// Contacts returns members of taskID with their contact fields and flags
func (r *MemberRepository) Contacts(ctx context.Context, taskID uuid.UUID) ([]model.MemberContact, error) {
	rows := make([]model.MemberContact, 0)
	err := r.db.WithContext(ctx).
		Table("task_members AS m").
		Select(`m.user_id AS user_id, u.username AS username, m.role AS role,
			u.email AS email, u.phone AS phone, u.github_url AS github_url, u.linkedin_url AS linkedin_url,
			u.show_email AS show_email, u.show_phone AS show_phone,
			u.show_github AS show_github, u.show_linkedin AS show_linkedin`).
		Joins("JOIN users u ON m.user_id = u.id").
		Where("m.task_id = ?", taskID).
		Order("m.joined_at ASC").
		Scan(&rows).Error
	return rows, err
}
