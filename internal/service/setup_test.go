package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collabforge/internal/model"
	"collabforge/internal/repository"
)

func setupStore(t *testing.T) *repository.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(db))
	return repository.NewStore(db)
}

func createUser(t *testing.T, store *repository.Store, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "x",
		ShowEmail:      true,
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

func createTask(t *testing.T, svc *TaskService, owner *model.User) *model.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), owner.ID, CreateTaskInput{
		Title:    "Build API",
		Category: "work",
		Deadline: "2025-12-01",
	})
	require.NoError(t, err)
	return task
}
