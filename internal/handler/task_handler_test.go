package handler_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"collabforge/internal/handler"
	"collabforge/internal/model"
	"collabforge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupTaskRouter(userID uuid.UUID) (*gin.Engine, *MockTaskService) {
	r := authenticatedRouter(userID)
	svc := new(MockTaskService)
	h := handler.NewTaskHandler(svc)

	r.POST("/tasks", h.Create)
	r.GET("/tasks", h.GetAll)
	r.GET("/tasks/:id", h.GetByID)
	r.PUT("/tasks/:id", h.Update)
	r.PATCH("/tasks/:id/status", h.UpdateStatus)
	r.PATCH("/tasks/:id/progress", h.UpdateProgress)
	r.DELETE("/tasks/:id", h.Delete)
	r.POST("/tasks/:id/accept", h.Accept)
	return r, svc
}

func sampleTask(ownerID uuid.UUID) *model.Task {
	deadline := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	return &model.Task{
		ID:        uuid.New(),
		Title:     "Build API",
		Category:  model.CategoryWork,
		Deadline:  &deadline,
		Status:    model.StatusOpen,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
}

func TestCreateTask_Success(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	task := sampleTask(userID)

	svc.On("Create", mock.Anything, userID, service.CreateTaskInput{
		Title:    "Build API",
		Category: "work",
		Deadline: "2025-12-01",
	}).Return(task, nil)

	resp := doJSON(router, http.MethodPost, "/tasks", gin.H{
		"title":    "Build API",
		"category": "work",
		"deadline": "2025-12-01",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	body := decodeBody(resp)
	created := body["task"].(map[string]interface{})
	assert.Equal(t, task.ID.String(), created["id"])
	assert.Equal(t, "open", created["status"])
	assert.Equal(t, "2025-12-01", created["deadline"])
	assert.Equal(t, float64(0), created["progress"])
	svc.AssertExpectations(t)
}

func TestCreateTask_MissingTitle(t *testing.T) {
	router, svc := setupTaskRouter(uuid.New())

	resp := doJSON(router, http.MethodPost, "/tasks", gin.H{"category": "work"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid request", decodeBody(resp)["error"])
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTask_ServiceValidationError(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	svc.On("Create", mock.Anything, userID, mock.Anything).Return(nil, service.ErrInvalidCategory)

	resp := doJSON(router, http.MethodPost, "/tasks", gin.H{"title": "x", "category": "chores"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid category", decodeBody(resp)["error"])
}

func TestGetAllTasks(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	svc.On("List", mock.Anything).Return([]model.Task{*sampleTask(userID), *sampleTask(uuid.New())}, nil)

	resp := doJSON(router, http.MethodGet, "/tasks", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	tasks := decodeBody(resp)["tasks"].([]interface{})
	assert.Len(t, tasks, 2)
}

func TestGetAllTasks_EmptyIsArray(t *testing.T) {
	router, svc := setupTaskRouter(uuid.New())
	svc.On("List", mock.Anything).Return([]model.Task{}, nil)

	resp := doJSON(router, http.MethodGet, "/tasks", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"tasks":[]}`, resp.Body.String())
}

func TestGetTask_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", service.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{"not a member", service.ErrTaskAccessDenied, http.StatusForbidden, "You are not a member of this task"},
		{"database down", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := uuid.New()
			taskID := uuid.New()
			router, svc := setupTaskRouter(userID)
			svc.On("Get", mock.Anything, taskID, userID).Return(nil, tt.err)

			resp := doJSON(router, http.MethodGet, "/tasks/"+taskID.String(), nil)

			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.message, decodeBody(resp)["error"])
		})
	}
}

func TestGetTask_InvalidID(t *testing.T) {
	router, _ := setupTaskRouter(uuid.New())

	resp := doJSON(router, http.MethodGet, "/tasks/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid task ID format", decodeBody(resp)["error"])
}

func TestUpdateTask_PassesOptionalFields(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	task := sampleTask(userID)

	svc.On("Update", mock.Anything, task.ID, userID, mock.MatchedBy(func(in service.UpdateTaskInput) bool {
		return in.Title == "Renamed" && in.Status != nil && *in.Status == "in-progress" && in.Progress == nil
	})).Return(task, nil)

	resp := doJSON(router, http.MethodPut, "/tasks/"+task.ID.String(), gin.H{
		"title":  "Renamed",
		"status": "in-progress",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	svc.AssertExpectations(t)
}

func TestUpdateStatus(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	task := sampleTask(userID)
	task.Status = model.StatusCompleted
	task.Progress = 100
	svc.On("UpdateStatus", mock.Anything, task.ID, userID, "completed").Return(task, nil)

	resp := doJSON(router, http.MethodPatch, "/tasks/"+task.ID.String()+"/status", gin.H{"status": "completed"})

	assert.Equal(t, http.StatusOK, resp.Code)
	updated := decodeBody(resp)["task"].(map[string]interface{})
	assert.Equal(t, "completed", updated["status"])
	assert.Equal(t, float64(100), updated["progress"])
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	router, svc := setupTaskRouter(userID)
	svc.On("UpdateStatus", mock.Anything, taskID, userID, "open").Return(nil, service.ErrInvalidTransition)

	resp := doJSON(router, http.MethodPatch, "/tasks/"+taskID.String()+"/status", gin.H{"status": "open"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid status transition", decodeBody(resp)["error"])
}

func TestUpdateProgress_ZeroIsAccepted(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	task := sampleTask(userID)
	svc.On("UpdateProgress", mock.Anything, task.ID, userID, 0).Return(task, nil)

	resp := doJSON(router, http.MethodPatch, "/tasks/"+task.ID.String()+"/progress", gin.H{"progress": 0})

	assert.Equal(t, http.StatusOK, resp.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProgress_Missing(t *testing.T) {
	router, _ := setupTaskRouter(uuid.New())

	resp := doJSON(router, http.MethodPatch, "/tasks/"+uuid.NewString()+"/progress", gin.H{})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Progress is required", decodeBody(resp)["error"])
}

func TestDeleteTask(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	router, svc := setupTaskRouter(userID)
	svc.On("Delete", mock.Anything, taskID, userID).Return(nil)

	resp := doJSON(router, http.MethodDelete, "/tasks/"+taskID.String(), nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Task deleted", decodeBody(resp)["message"])
}

func TestDeleteTask_NotOwner(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	router, svc := setupTaskRouter(userID)
	svc.On("Delete", mock.Anything, taskID, userID).Return(service.ErrNotTaskOwner)

	resp := doJSON(router, http.MethodDelete, "/tasks/"+taskID.String(), nil)

	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAcceptTask(t *testing.T) {
	userID := uuid.New()
	router, svc := setupTaskRouter(userID)
	task := sampleTask(uuid.New())
	task.Status = model.StatusAccepted
	task.AssignedTo = &userID
	svc.On("Claim", mock.Anything, task.ID, userID).Return(task, nil)

	resp := doJSON(router, http.MethodPost, "/tasks/"+task.ID.String()+"/accept", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(resp)
	assert.Equal(t, "Task accepted", body["message"])
	assert.Equal(t, userID.String(), body["task"].(map[string]interface{})["assigned_to"])
}

func TestTaskRoutes_RequireCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewTaskHandler(new(MockTaskService))
	r.GET("/tasks", h.GetAll)

	resp := doJSON(r, http.MethodGet, "/tasks", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
