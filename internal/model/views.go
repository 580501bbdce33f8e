package model

import (
	"time"

	"github.com/google/uuid"
)

// Read models produced by joined queries.

type MessageView struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberView struct {
	UserID   uuid.UUID  `json:"user_id"`
	Username string     `json:"username"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

type MembershipView struct {
	TaskID     uuid.UUID  `json:"task_id"`
	TaskTitle  string     `json:"task_title"`
	TaskStatus TaskStatus `json:"task_status"`
	Role       MemberRole `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
}

// IncomingRequest is a join request against a task the caller owns.
type IncomingRequest struct {
	RequestID  uuid.UUID     `json:"request_id"`
	Status     RequestStatus `json:"status"`
	UserID     uuid.UUID     `json:"user_id"`
	Username   string        `json:"username"`
	TaskID     uuid.UUID     `json:"task_id"`
	Title      string        `json:"title"`
	TaskStatus TaskStatus    `json:"task_status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// OutgoingRequest is a join request the caller made.
type OutgoingRequest struct {
	RequestID       uuid.UUID     `json:"request_id"`
	Status          RequestStatus `json:"status"`
	TaskID          uuid.UUID     `json:"task_id"`
	TaskTitle       string        `json:"task_title"`
	TaskCreatorID   uuid.UUID     `json:"task_creator_id"`
	TaskCreatorName string        `json:"task_creator_name"`
	CreatedAt       time.Time     `json:"created_at"`
}

// MemberContact is a member row joined with the member's contact fields.
// Visibility filtering happens in the service layer.
type MemberContact struct {
	UserID       uuid.UUID
	Username     string
	Role         MemberRole
	Email        string
	Phone        string
	GithubURL    string
	LinkedinURL  string
	ShowEmail    bool
	ShowPhone    bool
	ShowGithub   bool
	ShowLinkedin bool
}
