package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one database handle. A Store handed
// to a Transaction callback is bound to that transaction.
type Store struct {
	db       *gorm.DB
	Users    *UserRepository
	Tasks    *TaskRepository
	Requests *RequestRepository
	Members  *MemberRepository
	Messages *MessageRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepository(db),
		Tasks:    NewTaskRepository(db),
		Requests: NewRequestRepository(db),
		Members:  NewMemberRepository(db),
		Messages: NewMessageRepository(db),
	}
}

// Transaction runs fn with a Store whose statements commit or roll back together.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
