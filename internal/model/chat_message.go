package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	TaskID    uuid.UUID `gorm:"type:char(36);not null;index:idx_chat_messages_task_created"`
	UserID    uuid.UUID `gorm:"type:char(36);not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_chat_messages_task_created"`

	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	// time-ordered ids break created_at ties in insertion order
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return nil
}
