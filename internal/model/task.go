package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey"`
	Title       string     `gorm:"not null"`
	Description string
	Category    Category   `gorm:"type:varchar(20);not null"`
	Deadline    *time.Time `gorm:"type:date"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;index"`
	Progress    int        `gorm:"not null"`
	OwnerID     uuid.UUID  `gorm:"type:char(36);not null;index"`
	AssignedTo  *uuid.UUID `gorm:"type:char(36)"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index"`

	Owner User `gorm:"foreignKey:OwnerID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsOwner reports whether userID created the task.
func (t *Task) IsOwner(userID uuid.UUID) bool {
	return t.OwnerID == userID
}
