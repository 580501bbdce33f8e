package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"collabforge/internal/model"
	"collabforge/internal/service"
	"collabforge/pkg/response"
)

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// TaskRequest is the body of task create and update calls
type TaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Deadline    string  `json:"deadline"`
	Status      *string `json:"status"`
	Progress    *int    `json:"progress"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Deadline    *string   `json:"deadline"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	OwnerID     string    `json:"owner_id"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTaskResponse(task *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Category:    string(task.Category),
		Status:      string(task.Status),
		Progress:    task.Progress,
		OwnerID:     task.OwnerID.String(),
		CreatedAt:   task.CreatedAt,
	}
	if task.Deadline != nil {
		deadline := task.Deadline.Format("2006-01-02")
		resp.Deadline = &deadline
	}
	if task.AssignedTo != nil {
		assignee := task.AssignedTo.String()
		resp.AssignedTo = &assignee
	}
	return resp
}

// Create godoc
// @Summary Create a task
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param task body TaskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request")
		return
	}

	in := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Deadline:    req.Deadline,
	}
	if req.Progress != nil {
		in.Progress = *req.Progress
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": newTaskResponse(task)})
}

// GetAll godoc
// @Summary List all tasks, newest first
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Router /tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

// GetByID godoc
// @Summary Get a task the caller owns or is a member of
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskResponse(task)})
}

// Update godoc
// @Summary Replace the editable fields of a task (owner only)
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param task body TaskRequest true "Task"
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request")
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, userID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Deadline:    req.Deadline,
		Status:      req.Status,
		Progress:    req.Progress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskResponse(task)})
}

// UpdateStatus godoc
// @Summary Move a task to another status (owner only)
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body StatusRequest true "Status"
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Status is required")
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), id, userID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskResponse(task)})
}

// UpdateProgress godoc
// @Summary Set task progress (owner or member)
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body ProgressRequest true "Progress"
// @Router /tasks/{id}/progress [patch]
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Progress is required")
		return
	}

	task, err := h.tasks.UpdateProgress(c.Request.Context(), id, userID, *req.Progress)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskResponse(task)})
}

// Delete godoc
// @Summary Delete a task (owner only)
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Task deleted")
}

// Accept godoc
// @Summary Claim an open task without join requests
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id}/accept [post]
func (h *TaskHandler) Accept(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Claim(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task accepted", "task": newTaskResponse(task)})
}
