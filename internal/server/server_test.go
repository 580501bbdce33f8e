package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"collabforge/internal/config"
	"collabforge/internal/model"
	"collabforge/internal/repository"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	cfg := config.DefaultConfig()
	cfg.Server.Mode = "test"
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	return New(cfg, db)
}

func seedUser(t *testing.T, s *Server, username string) (*model.User, string) {
	t.Helper()
	user := &model.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "x",
		ShowEmail:      true,
	}
	require.NoError(t, s.Store.Users.Create(context.Background(), user))

	token, err := s.Tokens.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func call(t *testing.T, s *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, body := call(t, s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/tasks", "/tasks/my-requests", "/user/me"} {
		code, body := call(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestCollaborationFlow(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := seedUser(t, s, "alice")
	bob, bobToken := seedUser(t, s, "bob")

	code, body := call(t, s, http.MethodPost, "/tasks", aliceToken, map[string]any{
		"title":    "Build API",
		"category": "work",
		"deadline": "2025-12-01",
	})
	require.Equal(t, http.StatusCreated, code)
	task := body["task"].(map[string]any)
	taskID := task["id"].(string)
	assert.Equal(t, "open", task["status"])

	// bob cannot read the room before joining
	code, _ = call(t, s, http.MethodGet, "/tasks/"+taskID+"/messages", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, s, http.MethodPost, "/tasks/"+taskID+"/request", bobToken, nil)
	require.Equal(t, http.StatusCreated, code)

	code, body = call(t, s, http.MethodPost, "/tasks/"+taskID+"/request", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Already requested", body["error"])

	code, body = call(t, s, http.MethodGet, "/tasks/my-requests", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["requests"], 1)

	code, body = call(t, s, http.MethodPost, "/tasks/"+taskID+"/approve", aliceToken, map[string]any{
		"userId": bob.ID.String(),
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "in-progress", body["task"].(map[string]any)["status"])

	code, body = call(t, s, http.MethodGet, "/tasks/"+taskID+"/members", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["members"], 2)

	code, _ = call(t, s, http.MethodPost, "/tasks/"+taskID+"/messages", bobToken, map[string]any{
		"message": "hello",
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = call(t, s, http.MethodGet, "/tasks/"+taskID+"/messages", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)

	code, body = call(t, s, http.MethodPatch, "/tasks/"+taskID+"/status", aliceToken, map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, code)
	task = body["task"].(map[string]any)
	assert.Equal(t, "completed", task["status"])
	assert.EqualValues(t, 100, task["progress"])

	code, _ = call(t, s, http.MethodDelete, "/tasks/"+taskID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = call(t, s, http.MethodDelete, "/tasks/"+taskID, aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Task deleted", body["message"])

	code, _ = call(t, s, http.MethodGet, "/tasks/"+taskID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
