package handlers

import (
	"net/http"

	"quest-market/internal/models"
	"quest-market/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// PostMessage appends to a quest's chat
// POST /quests/:id/messages
func (h *MessageHandler) PostMessage(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	var req models.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !requireActor(c, req.Sender) {
		return
	}

	msg, err := h.messageService.Post(c.Request.Context(), id, req.Sender, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// ListMessages returns a quest's chat oldest first
// GET /quests/:id/messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	id, ok := questID(c)
	if !ok {
		return
	}

	messages, err := h.messageService.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}
