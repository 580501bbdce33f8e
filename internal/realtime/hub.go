package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"collabforge/pkg/logger"
)

// Event is the envelope of every frame on the realtime channel.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const (
	EventJoinTask    = "join-task"
	EventLeaveTask   = "leave-task"
	EventSendMessage = "send-message"
	EventJoined      = "joined"
	EventLeft        = "left"
	EventNewMessage  = "new-message"
	EventError       = "error"
)

// Subscriber is one live connection. Frames queued for it are read from
// Outbox by the connection's writer.
type Subscriber struct {
	ID     uuid.UUID
	UserID uuid.UUID

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSubscriber(userID uuid.UUID, buffer int) *Subscriber {
	return &Subscriber{
		ID:     uuid.New(),
		UserID: userID,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// Outbox yields encoded frames for this subscriber.
func (s *Subscriber) Outbox() <-chan []byte {
	return s.send
}

// Done is closed once the subscriber is closed.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Deliver queues ev for this subscriber only. It reports false if the
// subscriber is closed or its buffer is full.
func (s *Subscriber) Deliver(ev Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Str("event", ev.Event).Msg("realtime marshal error")
		return false
	}
	return s.enqueue(data)
}

func (s *Subscriber) enqueue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Hub tracks which subscribers are in which task room.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*Subscriber]struct{}
	joined map[*Subscriber]map[uuid.UUID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Subscriber]struct{}),
		joined: make(map[*Subscriber]map[uuid.UUID]struct{}),
	}
}

func (h *Hub) Join(roomID uuid.UUID, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.rooms[roomID] = members
	}
	members[sub] = struct{}{}

	rooms, ok := h.joined[sub]
	if !ok {
		rooms = make(map[uuid.UUID]struct{})
		h.joined[sub] = rooms
	}
	rooms[roomID] = struct{}{}
}

func (h *Hub) Leave(roomID uuid.UUID, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(roomID, sub)
}

// LeaveAll removes sub from every room it joined.
func (h *Hub) LeaveAll(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range h.joined[sub] {
		h.leaveLocked(roomID, sub)
	}
	delete(h.joined, sub)
}

func (h *Hub) leaveLocked(roomID uuid.UUID, sub *Subscriber) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if rooms, ok := h.joined[sub]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(h.joined, sub)
		}
	}
}

// Publish sends ev to every subscriber in the room and returns how many
// accepted it. A subscriber with a full buffer misses the frame.
func (h *Hub) Publish(roomID uuid.UUID, ev Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Str("event", ev.Event).Msg("realtime marshal error")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.rooms[roomID] {
		if sub.enqueue(data) {
			delivered++
			continue
		}
		logger.Warn().
			Str("room", roomID.String()).
			Str("subscriber", sub.ID.String()).
			Msg("dropping frame for slow subscriber")
	}
	return delivered
}

// RoomSize returns the number of subscribers in a room.
func (h *Hub) RoomSize(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// InRoom reports whether sub joined the room.
func (h *Hub) InRoom(roomID uuid.UUID, sub *Subscriber) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][sub]
	return ok
}
