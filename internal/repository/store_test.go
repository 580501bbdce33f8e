package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collabforge/internal/model"
	"collabforge/internal/repository"
)

func setupSQLiteStore(t *testing.T) *repository.Store {
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

func seedUser(t *testing.T, store *repository.Store, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "x",
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

func seedTask(t *testing.T, store *repository.Store, owner *model.User, title string) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:    title,
		Category: model.CategoryGeneral,
		Status:   model.StatusOpen,
		OwnerID:  owner.ID,
	}
	require.NoError(t, store.Tasks.Create(context.Background(), task))
	return task
}

func TestRequestRepository_CreatePendingIsIdempotent(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	task := seedTask(t, store, owner, "Build API")

	_, inserted, err := store.Requests.CreatePending(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	_, inserted, err = store.Requests.CreatePending(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := store.Requests.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRequestRepository_ResolveOnlyPending(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	task := seedTask(t, store, owner, "Build API")

	req, _, err := store.Requests.CreatePending(ctx, task.ID, bob.ID)
	require.NoError(t, err)

	ok, err := store.Requests.Resolve(ctx, req.ID, model.RequestApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Requests.Resolve(ctx, req.ID, model.RequestRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Requests.FindPending(ctx, task.ID, bob.ID)
	assert.ErrorIs(t, err, repository.ErrRequestNotFound)

	ids, err := store.Requests.ApprovedUserIDs(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.ID}, ids)
}

func TestRequestRepository_ListIncomingAndOutgoing(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	task := seedTask(t, store, owner, "Build API")

	_, _, err := store.Requests.CreatePending(ctx, task.ID, bob.ID)
	require.NoError(t, err)

	incoming, err := store.Requests.ListIncoming(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "bob", incoming[0].Username)
	assert.Equal(t, "Build API", incoming[0].Title)
	assert.Equal(t, model.RequestPending, incoming[0].Status)

	outgoing, err := store.Requests.ListOutgoing(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, owner.ID, outgoing[0].TaskCreatorID)
	assert.Equal(t, "alice", outgoing[0].TaskCreatorName)

	none, err := store.Requests.ListIncoming(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemberRepository_AddAndAccess(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	carol := seedUser(t, store, "carol")
	task := seedTask(t, store, owner, "Build API")

	added, err := store.Members.Add(ctx, task.ID, bob.ID, model.RoleMember)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Members.Add(ctx, task.ID, bob.ID, model.RoleMember)
	require.NoError(t, err)
	assert.False(t, added)

	for _, tc := range []struct {
		user *model.User
		want bool
	}{
		{owner, true},
		{bob, true},
		{carol, false},
	} {
		ok, err := store.Members.CheckAccess(ctx, task, tc.user.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.user.Username)
	}

	members, err := store.Members.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].Username)

	memberships, err := store.Members.ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "Build API", memberships[0].TaskTitle)
}

func TestMessageRepository_ListByTaskOldestFirst(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	task := seedTask(t, store, owner, "Build API")

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, store.Messages.Create(ctx, &model.ChatMessage{
			TaskID:    task.ID,
			UserID:    owner.ID,
			Message:   text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := store.Messages.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "third", messages[2].Message)
	assert.Equal(t, "alice", messages[0].Username)
}

func TestMessageRepository_SameTimestampKeepsInsertionOrder(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	task := seedTask(t, store, owner, "Build API")

	at := time.Now().Truncate(time.Millisecond)
	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		require.NoError(t, store.Messages.Create(ctx, &model.ChatMessage{
			TaskID:    task.ID,
			UserID:    owner.ID,
			Message:   text,
			CreatedAt: at,
		}))
	}

	for i := 0; i < 3; i++ {
		messages, err := store.Messages.ListByTask(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, messages, len(texts))
		for j, msg := range messages {
			assert.Equal(t, texts[j], msg.Message)
		}
	}
}

func TestTaskRepository_DeleteRemovesDependents(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	task := seedTask(t, store, owner, "Build API")

	_, _, err := store.Requests.CreatePending(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	_, err = store.Members.Add(ctx, task.ID, owner.ID, model.RoleCreator)
	require.NoError(t, err)
	require.NoError(t, store.Messages.Create(ctx, &model.ChatMessage{TaskID: task.ID, UserID: owner.ID, Message: "hi"}))

	require.NoError(t, store.Tasks.Delete(ctx, task.ID))

	_, err = store.Tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)

	exists, err := store.Requests.Exists(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	messages, err := store.Messages.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	assert.ErrorIs(t, store.Tasks.Delete(ctx, task.ID), repository.ErrTaskNotFound)
}

func TestTaskRepository_ClaimOnce(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	carol := seedUser(t, store, "carol")
	task := seedTask(t, store, owner, "Build API")

	var wg sync.WaitGroup
	results := make(chan bool, 2)
	for _, user := range []*model.User{bob, carol} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			ok, err := store.Tasks.Claim(ctx, task.ID, id)
			assert.NoError(t, err)
			results <- ok
		}(user.ID)
	}
	wg.Wait()
	close(results)

	claimed := 0
	for ok := range results {
		if ok {
			claimed++
		}
	}
	assert.Equal(t, 1, claimed)

	stored, err := store.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, stored.Status)
	require.NotNil(t, stored.AssignedTo)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")

	boom := errors.New("boom")
	var created *model.Task
	err := store.Transaction(ctx, func(tx *repository.Store) error {
		created = &model.Task{
			Title:    "Rolled back",
			Category: model.CategoryGeneral,
			Status:   model.StatusOpen,
			OwnerID:  owner.ID,
		}
		if err := tx.Tasks.Create(ctx, created); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Tasks.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}
