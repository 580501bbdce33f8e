package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collabforge/internal/middleware"
	"collabforge/internal/model"
	"collabforge/internal/realtime"
	"collabforge/internal/service"
	"collabforge/pkg/response"
)

// Services the handlers depend on. The service package provides the
// implementations; tests substitute mocks.

type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTaskInput) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, taskID, callerID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, taskID, callerID uuid.UUID, in service.UpdateTaskInput) (*model.Task, error)
	UpdateStatus(ctx context.Context, taskID, callerID uuid.UUID, status string) (*model.Task, error)
	UpdateProgress(ctx context.Context, taskID, callerID uuid.UUID, progress int) (*model.Task, error)
	Delete(ctx context.Context, taskID, callerID uuid.UUID) error
	Claim(ctx context.Context, taskID, callerID uuid.UUID) (*model.Task, error)
}

type MembershipService interface {
	Request(ctx context.Context, taskID, callerID uuid.UUID) (*model.Request, error)
	Approve(ctx context.Context, taskID, ownerID, userID uuid.UUID) (*model.Task, error)
	Reject(ctx context.Context, taskID, ownerID, userID uuid.UUID) error
	ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]model.IncomingRequest, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]model.OutgoingRequest, error)
	ListMembers(ctx context.Context, taskID, callerID uuid.UUID) ([]model.MemberView, error)
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]model.MembershipView, error)
	TeamContacts(ctx context.Context, taskID, callerID uuid.UUID) ([]service.TeamContact, error)
}

type ChatService interface {
	Join(ctx context.Context, taskID uuid.UUID, sub *realtime.Subscriber) error
	Leave(taskID uuid.UUID, sub *realtime.Subscriber)
	Disconnect(sub *realtime.Subscriber)
	Post(ctx context.Context, taskID, authorID uuid.UUID, body string) (*model.MessageView, error)
	History(ctx context.Context, taskID, callerID uuid.UUID) ([]model.MessageView, error)
}

type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in service.ProfileUpdate) (*model.User, error)
	UpdateContacts(ctx context.Context, id uuid.UUID, in service.ContactsUpdate) (*model.User, error)
}

var (
	_ TaskService       = (*service.TaskService)(nil)
	_ MembershipService = (*service.MembershipService)(nil)
	_ ChatService       = (*service.ChatService)(nil)
	_ UserService       = (*service.UserService)(nil)
)

// callerID returns the authenticated user or writes a 401 and returns false.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

// taskID parses the :id path parameter or writes a 400 and returns false.
func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid task ID format")
		return uuid.Nil, false
	}
	return id, true
}
