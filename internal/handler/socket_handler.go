package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collabforge/internal/auth"
	"collabforge/internal/middleware"
	"collabforge/internal/realtime"
	"collabforge/pkg/logger"
	"collabforge/pkg/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 16 * 1024
	sendBufferSize = 64
	eventTimeout   = 10 * time.Second
)

// SocketHandler serves the realtime chat channel over WebSocket.
type SocketHandler struct {
	chat     ChatService
	tokens   *auth.TokenManager
	upgrader websocket.Upgrader
}

func NewSocketHandler(chat ChatService, tokens *auth.TokenManager, allowOrigins []string) *SocketHandler {
	return &SocketHandler{
		chat:   chat,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
	}
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendMessagePayload struct {
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

// Serve godoc
// @Summary Realtime chat channel (WebSocket upgrade)
// @Tags Chat
// @Param token query string false "Bearer token when the Authorization header cannot be set"
// @Router /ws [get]
func (h *SocketHandler) Serve(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		response.Unauthorized(c, "Unauthorized")
		return
	}
	identity, err := h.tokens.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := realtime.NewSubscriber(identity.UserID, sendBufferSize)
	logger.Info().
		Str("subscriber", sub.ID.String()).
		Str("user_id", identity.UserID.String()).
		Msg("socket connected")

	go h.writePump(conn, sub)
	h.readPump(c.Request.Context(), conn, sub)

	h.chat.Disconnect(sub)
	sub.Close()
	_ = conn.Close()
	logger.Info().Str("subscriber", sub.ID.String()).Msg("socket disconnected")
}

func (h *SocketHandler) readPump(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscriber) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Str("subscriber", sub.ID.String()).Msg("socket read error")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			sendError(sub, "Malformed frame")
			continue
		}
		h.dispatch(ctx, sub, frame)
	}
}

func (h *SocketHandler) dispatch(ctx context.Context, sub *realtime.Subscriber, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	switch frame.Event {
	case realtime.EventJoinTask:
		taskID, err := parseTaskRef(frame.Data)
		if err != nil {
			sendError(sub, "Invalid task ID format")
			return
		}
		if err := h.chat.Join(ctx, taskID, sub); err != nil {
			sendError(sub, response.MessageOf(err))
			return
		}
		sub.Deliver(realtime.Event{Event: realtime.EventJoined, Data: gin.H{"taskId": taskID}})

	case realtime.EventLeaveTask:
		taskID, err := parseTaskRef(frame.Data)
		if err != nil {
			sendError(sub, "Invalid task ID format")
			return
		}
		h.chat.Leave(taskID, sub)
		sub.Deliver(realtime.Event{Event: realtime.EventLeft, Data: gin.H{"taskId": taskID}})

	case realtime.EventSendMessage:
		var payload sendMessagePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			sendError(sub, "Malformed message")
			return
		}
		taskID, err := uuid.Parse(payload.TaskID)
		if err != nil {
			sendError(sub, "Invalid task ID format")
			return
		}
		// the author is always the authenticated connection owner
		if _, err := h.chat.Post(ctx, taskID, sub.UserID, payload.Message); err != nil {
			if response.StatusOf(err) >= http.StatusInternalServerError {
				logger.Error().Err(err).Str("task_id", taskID.String()).Msg("socket message failed")
			}
			sendError(sub, response.MessageOf(err))
		}

	default:
		sendError(sub, "Unknown event")
	}
}

func (h *SocketHandler) writePump(conn *websocket.Conn, sub *realtime.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame := <-sub.Outbox():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func sendError(sub *realtime.Subscriber, reason string) {
	sub.Deliver(realtime.Event{Event: realtime.EventError, Data: reason})
}

// parseTaskRef accepts either "<uuid>" or {"taskId": "<uuid>"}.
func parseTaskRef(raw json.RawMessage) (uuid.UUID, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		var obj struct {
			TaskID string `json:"taskId"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return uuid.Nil, err
		}
		id = obj.TaskID
	}
	if id == "" {
		return uuid.Nil, errors.New("missing task id")
	}
	return uuid.Parse(id)
}

func originChecker(allowOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, origin := range allowOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
