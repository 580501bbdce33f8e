package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskMember links a user to a task they may read and chat on.
type TaskMember struct {
	ID       uuid.UUID  `gorm:"type:char(36);primaryKey"`
	TaskID   uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_task_members_task_user"`
	UserID   uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_task_members_task_user;index"`
	Role     MemberRole `gorm:"type:varchar(20);not null"`
	JoinedAt time.Time  `gorm:"not null"`

	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID"`
}

func (m *TaskMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}
