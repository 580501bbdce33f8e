package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabforge/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
}

// ListByTask returns the full history of a task room, oldest first.
func (r *MessageRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.MessageView, error) {
	rows := make([]model.MessageView, 0)
	err := r.db.WithContext(ctx).
		Table("chat_messages AS c").
		Select("c.id AS id, c.task_id AS task_id, c.user_id AS user_id, u.username AS username, c.message AS message, c.created_at AS created_at").
		Joins("JOIN users u ON c.user_id = u.id").
		Where("c.task_id = ?", taskID).
		Order("c.created_at ASC, c.id ASC").
		Scan(&rows).Error
	return rows, err
}
