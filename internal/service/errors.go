package service

import "collabforge/pkg/response"

var (
	ErrTaskNotFound     = response.NewNotFound("Task not found")
	ErrUserNotFound     = response.NewNotFound("User not found")
	ErrTaskAccessDenied = response.NewForbidden("You are not a member of this task")
	ErrNotTaskOwner     = response.NewForbidden("Only the task owner can do this")

	ErrTitleRequired     = response.NewBadRequest("Title is required")
	ErrInvalidCategory   = response.NewBadRequest("Invalid category")
	ErrInvalidDeadline   = response.NewBadRequest("Deadline must be a date (YYYY-MM-DD)")
	ErrInvalidStatus     = response.NewBadRequest("Invalid status")
	ErrInvalidTransition = response.NewBadRequest("Invalid status transition")
	ErrInvalidProgress   = response.NewBadRequest("Progress must be between 0 and 100")
	ErrProgressLocked    = response.NewBadRequest("Progress of a finished task cannot change")
	ErrProgressComplete  = response.NewBadRequest("Set the status to completed to reach 100% progress")

	ErrOwnTaskRequest   = response.NewBadRequest("You cannot request your own task")
	ErrAlreadyRequested = response.NewBadRequest("Already requested")
	ErrTaskClaimed      = response.NewBadRequest("Task has already been claimed")
	ErrTaskClosed       = response.NewBadRequest("Task is no longer open for requests")
	ErrNoPendingRequest = response.NewBadRequest("User did not request this task")
	ErrOwnTaskClaim     = response.NewBadRequest("You cannot claim your own task")
	ErrTaskNotOpen      = response.NewBadRequest("Only open tasks can be claimed")
	ErrTaskHasRequests  = response.NewBadRequest("Task has join requests and cannot be claimed")

	ErrEmptyMessage   = response.NewBadRequest("Message cannot be empty")
	ErrMessageTooLong = response.NewBadRequest("Message is too long")

	ErrUsernameRequired   = response.NewBadRequest("Username is required")
	ErrInvalidEmail       = response.NewBadRequest("Invalid email")
	ErrEmailTaken         = response.NewBadRequest("User already exists")
	ErrWeakPassword       = response.NewBadRequest("Password must be at least 6 characters")
	ErrInvalidCredentials = response.NewUnauthorized("Invalid email or password")
)
