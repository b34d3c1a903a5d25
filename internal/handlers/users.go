package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friend-chat-service/internal/middleware"
	"friend-chat-service/internal/services"
)

// UserHandler serves the directory endpoints.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Search finds users by username substring.
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), middleware.UserID(c), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"users": users})
}

// Get returns the public brief of one user.
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := paramID(c, "user_id", "user id")
	if !ok {
		return
	}
	user, err := h.users.Brief(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"user": user})
}

// Friends lists the caller's friends.
func (h *UserHandler) Friends(c *gin.Context) {
	friends, err := h.users.Friends(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"friends": friends})
}

// UpdateStatus sets the caller's status.
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Status is required")
		return
	}
	user, err := h.users.UpdateStatus(c.Request.Context(), middleware.UserID(c), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Status updated", gin.H{"user": user})
}
