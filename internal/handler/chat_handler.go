package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collabforge/pkg/response"
)

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type PostMessageRequest struct {
	Message string `json:"message"`
}

// History godoc
// @Summary Full chat history of a task, oldest first
// @Tags Chat
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Router /tasks/{id}/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	messages, err := h.chat.History(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Post godoc
// @Summary Post a chat message; it is also pushed to the task's live room
// @Tags Chat
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body PostMessageRequest true "Message"
// @Router /tasks/{id}/messages [post]
func (h *ChatHandler) Post(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request")
		return
	}

	msg, err := h.chat.Post(c.Request.Context(), id, userID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
