package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"collabforge/internal/middleware"
	"collabforge/internal/model"
	"collabforge/internal/realtime"
	"collabforge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, ownerID, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, taskID, callerID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID, callerID)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, taskID, callerID uuid.UUID, in service.UpdateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, taskID, callerID, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) UpdateStatus(ctx context.Context, taskID, callerID uuid.UUID, status string) (*model.Task, error) {
	args := m.Called(ctx, taskID, callerID, status)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) UpdateProgress(ctx context.Context, taskID, callerID uuid.UUID, progress int) (*model.Task, error) {
	args := m.Called(ctx, taskID, callerID, progress)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, taskID, callerID uuid.UUID) error {
	args := m.Called(ctx, taskID, callerID)
	return args.Error(0)
}

func (m *MockTaskService) Claim(ctx context.Context, taskID, callerID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID, callerID)
	return taskOrNil(args.Get(0)), args.Error(1)
}

type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Request(ctx context.Context, taskID, callerID uuid.UUID) (*model.Request, error) {
	args := m.Called(ctx, taskID, callerID)
	req, _ := args.Get(0).(*model.Request)
	return req, args.Error(1)
}

func (m *MockMembershipService) Approve(ctx context.Context, taskID, ownerID, userID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID, ownerID, userID)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockMembershipService) Reject(ctx context.Context, taskID, ownerID, userID uuid.UUID) error {
	args := m.Called(ctx, taskID, ownerID, userID)
	return args.Error(0)
}

func (m *MockMembershipService) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]model.IncomingRequest, error) {
	args := m.Called(ctx, ownerID)
	rows, _ := args.Get(0).([]model.IncomingRequest)
	return rows, args.Error(1)
}

func (m *MockMembershipService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]model.OutgoingRequest, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]model.OutgoingRequest)
	return rows, args.Error(1)
}

func (m *MockMembershipService) ListMembers(ctx context.Context, taskID, callerID uuid.UUID) ([]model.MemberView, error) {
	args := m.Called(ctx, taskID, callerID)
	rows, _ := args.Get(0).([]model.MemberView)
	return rows, args.Error(1)
}

func (m *MockMembershipService) ListMemberships(ctx context.Context, userID uuid.UUID) ([]model.MembershipView, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]model.MembershipView)
	return rows, args.Error(1)
}

func (m *MockMembershipService) TeamContacts(ctx context.Context, taskID, callerID uuid.UUID) ([]service.TeamContact, error) {
	args := m.Called(ctx, taskID, callerID)
	rows, _ := args.Get(0).([]service.TeamContact)
	return rows, args.Error(1)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Join(ctx context.Context, taskID uuid.UUID, sub *realtime.Subscriber) error {
	return m.Called(ctx, taskID, sub).Error(0)
}

func (m *MockChatService) Leave(taskID uuid.UUID, sub *realtime.Subscriber) {
	m.Called(taskID, sub)
}

func (m *MockChatService) Disconnect(sub *realtime.Subscriber) {
	m.Called(sub)
}

func (m *MockChatService) Post(ctx context.Context, taskID, authorID uuid.UUID, body string) (*model.MessageView, error) {
	args := m.Called(ctx, taskID, authorID, body)
	msg, _ := args.Get(0).(*model.MessageView)
	return msg, args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, taskID, callerID uuid.UUID) ([]model.MessageView, error) {
	args := m.Called(ctx, taskID, callerID)
	rows, _ := args.Get(0).([]model.MessageView)
	return rows, args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, in service.ProfileUpdate) (*model.User, error) {
	args := m.Called(ctx, id, in)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserService) UpdateContacts(ctx context.Context, id uuid.UUID, in service.ContactsUpdate) (*model.User, error) {
	args := m.Called(ctx, id, in)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func taskOrNil(v interface{}) *model.Task {
	task, _ := v.(*model.Task)
	return task
}

// authenticatedRouter stands in for the JWT guard by setting the caller id.
func authenticatedRouter(userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeBody(resp *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	return out
}
