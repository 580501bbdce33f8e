package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request is a non-owner's ask to join a task. One row per (task, user).
type Request struct {
	ID        uuid.UUID     `gorm:"type:char(36);primaryKey"`
	TaskID    uuid.UUID     `gorm:"type:char(36);not null;uniqueIndex:idx_requests_task_user"`
	UserID    uuid.UUID     `gorm:"type:char(36);not null;uniqueIndex:idx_requests_task_user;index"`
	Status    RequestStatus `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time     `gorm:"autoCreateTime;index"`

	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
