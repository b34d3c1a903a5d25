package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friend-chat-service/internal/middleware"
	"friend-chat-service/internal/services"
	"friend-chat-service/internal/telemetry"
)

// FriendHandler serves the friend request lifecycle.
type FriendHandler struct {
	friends *services.FriendService
	audit   *telemetry.AuditEmitter
}

// NewFriendHandler builds a FriendHandler. audit may be nil.
func NewFriendHandler(friends *services.FriendService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, audit: audit}
}

// SendRequest creates a pending request to recipient_id.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		RecipientID int64  `json:"recipient_id" binding:"required,gt=0"`
		Message     string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Valid recipient_id is required")
		return
	}

	created, err := h.friends.SendRequest(c.Request.Context(), middleware.UserID(c), req.RecipientID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "friend request sent")
	respond(c, http.StatusCreated, "Friend request sent", gin.H{"request": created})
}

// Received lists pending requests addressed to the caller.
func (h *FriendHandler) Received(c *gin.Context) {
	requests, err := h.friends.ListReceived(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"requests": requests})
}

// Sent lists pending requests the caller sent.
func (h *FriendHandler) Sent(c *gin.Context) {
	requests, err := h.friends.ListSent(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"requests": requests})
}

// Accept accepts a pending request addressed to the caller.
func (h *FriendHandler) Accept(c *gin.Context) {
	requestID, ok := paramID(c, "request_id", "request id")
	if !ok {
		return
	}
	accepted, err := h.friends.Accept(c.Request.Context(), requestID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "friend request accepted")
	respond(c, http.StatusOK, "Friend request accepted", gin.H{"request": accepted})
}

// Reject rejects a pending request addressed to the caller.
func (h *FriendHandler) Reject(c *gin.Context) {
	requestID, ok := paramID(c, "request_id", "request id")
	if !ok {
		return
	}
	rejected, err := h.friends.Reject(c.Request.Context(), requestID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "friend request rejected")
	respond(c, http.StatusOK, "Friend request rejected", gin.H{"request": rejected})
}

// Remove deletes the friendship with friend_id.
func (h *FriendHandler) Remove(c *gin.Context) {
	friendID, ok := paramID(c, "friend_id", "friend id")
	if !ok {
		return
	}
	if err := h.friends.RemoveFriend(c.Request.Context(), middleware.UserID(c), friendID); err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "friend removed")
	respond(c, http.StatusOK, "Friend removed", nil)
}
