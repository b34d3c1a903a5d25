package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friend-chat-service/internal/middleware"
	"friend-chat-service/internal/models"
	"friend-chat-service/internal/services"
)

// MessageHandler serves direct messages. Sending and fetching go through the
// gateway; the rest only touches the caller's own read state or messages.
type MessageHandler struct {
	gateway *services.MessagingGateway
	convos  *services.ConversationService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(gateway *services.MessagingGateway, convos *services.ConversationService) *MessageHandler {
	return &MessageHandler{gateway: gateway, convos: convos}
}

// Send persists a message to a friend and pushes it live.
func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		RecipientID int64  `json:"recipient_id" binding:"required,gt=0"`
		Content     string `json:"content"`
		Type        string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Valid recipient_id is required")
		return
	}

	view, err := h.gateway.SendMessage(c.Request.Context(), middleware.UserID(c), req.RecipientID, req.Content, models.MessageType(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Message sent", gin.H{"data": view})
}

// Conversations lists one summary per counterpart.
func (h *MessageHandler) Conversations(c *gin.Context) {
	summaries, err := h.convos.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"conversations": summaries})
}

// UnreadCount totals unread messages addressed to the caller.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.convos.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"unread_count": count})
}

// Conversation returns a page of messages with user_id, oldest first.
func (h *MessageHandler) Conversation(c *gin.Context) {
	otherID, ok := paramID(c, "user_id", "user id")
	if !ok {
		return
	}
	page, err := h.gateway.FetchConversation(c.Request.Context(), middleware.UserID(c), otherID, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{
		"messages": page.Messages,
		"pagination": gin.H{
			"page":     page.Page,
			"limit":    page.Limit,
			"has_more": page.HasMore,
		},
	})
}

// MarkRead marks one message addressed to the caller as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, ok := paramID(c, "message_id", "message id")
	if !ok {
		return
	}
	msg, err := h.convos.MarkRead(c.Request.Context(), messageID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Message marked as read", gin.H{"data": msg})
}

// Edit replaces the content of the caller's own message.
func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, ok := paramID(c, "message_id", "message id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	msg, err := h.convos.Edit(c.Request.Context(), messageID, middleware.UserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Message updated", gin.H{"data": msg})
}
