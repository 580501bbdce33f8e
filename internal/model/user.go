package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	Username       string    `gorm:"not null"`
	Email          string    `gorm:"size:255;uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	Bio            string
	Interests      string
	Phone          string
	GithubURL      string
	LinkedinURL    string
	ShowEmail      bool `gorm:"not null"`
	ShowPhone      bool `gorm:"not null"`
	ShowGithub     bool `gorm:"not null"`
	ShowLinkedin   bool `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
