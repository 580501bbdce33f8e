package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"collabforge/internal/model"
	"collabforge/internal/realtime"
	"collabforge/internal/repository"
)

const maxMessageLength = 4000

// Rooms is the live fan-out the chat service publishes to.
type Rooms interface {
	Join(roomID uuid.UUID, sub *realtime.Subscriber)
	Leave(roomID uuid.UUID, sub *realtime.Subscriber)
	LeaveAll(sub *realtime.Subscriber)
	Publish(roomID uuid.UUID, ev realtime.Event) int
}

// ChatService owns task room messages. HTTP and socket adapters both go
// through it, so persistence and broadcast happen in one place.
type ChatService struct {
	store *repository.Store
	rooms Rooms
}

func NewChatService(store *repository.Store, rooms Rooms) *ChatService {
	return &ChatService{store: store, rooms: rooms}
}

// Join subscribes a live connection to the task's room.
func (s *ChatService) Join(ctx context.Context, taskID uuid.UUID, sub *realtime.Subscriber) error {
	if _, err := authorizeTask(ctx, s.store, taskID, sub.UserID); err != nil {
		return err
	}
	s.rooms.Join(taskID, sub)
	return nil
}

func (s *ChatService) Leave(taskID uuid.UUID, sub *realtime.Subscriber) {
	s.rooms.Leave(taskID, sub)
}

// Disconnect drops a connection from every room it joined.
func (s *ChatService) Disconnect(sub *realtime.Subscriber) {
	s.rooms.LeaveAll(sub)
}

// Post stores a message from authorID and broadcasts it to the task's room.
// Access is checked before the body, so outsiders always get the access error.
func (s *ChatService) Post(ctx context.Context, taskID, authorID uuid.UUID, body string) (*model.MessageView, error) {
	if _, err := authorizeTask(ctx, s.store, taskID, authorID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	author, err := s.store.Users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}

	msg := &model.ChatMessage{
		TaskID:  taskID,
		UserID:  authorID,
		Message: body,
	}
	if err := s.store.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	view := &model.MessageView{
		ID:        msg.ID,
		TaskID:    msg.TaskID,
		UserID:    msg.UserID,
		Username:  author.Username,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}
	s.rooms.Publish(taskID, realtime.Event{Event: realtime.EventNewMessage, Data: view})
	return view, nil
}

// History returns every message of the task, oldest first.
func (s *ChatService) History(ctx context.Context, taskID, callerID uuid.UUID) ([]model.MessageView, error) {
	if _, err := authorizeTask(ctx, s.store, taskID, callerID); err != nil {
		return nil, err
	}
	return s.store.Messages.ListByTask(ctx, taskID)
}
