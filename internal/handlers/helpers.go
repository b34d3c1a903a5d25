package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/middleware"
	"friend-chat-service/internal/observability"
	"friend-chat-service/internal/services"
	"friend-chat-service/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	return c.GetString(observability.RequestIDContextKey)
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, level, text string) {
	emitter.Emit(c.Request.Context(), level, text, middleware.UserID(c))
}

// respond writes a successful envelope.
func respond(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

var statusByKind = map[services.Kind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindNotFound:   http.StatusNotFound,
	services.KindConflict:   http.StatusConflict,
	services.KindForbidden:  http.StatusForbidden,
}

// respondError maps service errors to status codes. Anything unclassified is
// logged and reported as an opaque 500.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := statusByKind[svcErr.Kind]; ok {
			fail(c, status, svcErr.Message)
			return
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id": requestIDFromContext(c),
		"user_id":    middleware.UserID(c),
		"method":     c.Request.Method,
		"route":      c.FullPath(),
	}).WithError(err).Error("request failed")
	fail(c, http.StatusInternalServerError, "Internal server error")
}

func paramID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid "+label)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}
