package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collabforge/pkg/response"
)

type MembershipHandler struct {
	memberships MembershipService
}

func NewMembershipHandler(memberships MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

// DecisionRequest names the requester the owner approves or rejects
type DecisionRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

// RequestJoin godoc
// @Summary Ask to join a task
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id}/request [post]
func (h *MembershipHandler) RequestJoin(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	req, err := h.memberships.Request(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Request sent",
		"request": gin.H{
			"id":         req.ID,
			"task_id":    req.TaskID,
			"user_id":    req.UserID,
			"status":     req.Status,
			"created_at": req.CreatedAt,
		},
	})
}

// Approve godoc
// @Summary Approve a pending join request (owner only)
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body DecisionRequest true "Requester"
// @Router /tasks/{id}/approve [post]
func (h *MembershipHandler) Approve(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}
	requester, ok := bindRequester(c)
	if !ok {
		return
	}

	task, err := h.memberships.Approve(c.Request.Context(), id, ownerID, requester)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request approved", "task": newTaskResponse(task)})
}

// Reject godoc
// @Summary Reject a pending join request (owner only)
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body DecisionRequest true "Requester"
// @Router /tasks/{id}/reject [post]
func (h *MembershipHandler) Reject(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}
	requester, ok := bindRequester(c)
	if !ok {
		return
	}

	if err := h.memberships.Reject(c.Request.Context(), id, ownerID, requester); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Request rejected")
}

// Incoming godoc
// @Summary Join requests against the caller's tasks
// @Tags Membership
// @Security BearerAuth
// @Router /tasks/my-requests [get]
func (h *MembershipHandler) Incoming(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	requests, err := h.memberships.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Outgoing godoc
// @Summary Join requests the caller made
// @Tags Membership
// @Security BearerAuth
// @Router /tasks/user/requests [get]
func (h *MembershipHandler) Outgoing(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	requests, err := h.memberships.ListOutgoing(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Members godoc
// @Summary Members of a task
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id}/members [get]
func (h *MembershipHandler) Members(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	members, err := h.memberships.ListMembers(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Memberships godoc
// @Summary Tasks the caller belongs to
// @Tags Membership
// @Security BearerAuth
// @Router /tasks/user/memberships [get]
func (h *MembershipHandler) Memberships(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	rows, err := h.memberships.ListMemberships(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": rows})
}

// TeamContacts godoc
// @Summary Contact details of a task's members, as each member chose to share them
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id}/team-contacts [get]
func (h *MembershipHandler) TeamContacts(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	contacts, err := h.memberships.TeamContacts(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

func bindRequester(c *gin.Context) (uuid.UUID, bool) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "userId is required")
		return uuid.Nil, false
	}
	requester, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "Invalid user ID format")
		return uuid.Nil, false
	}
	return requester, true
}
