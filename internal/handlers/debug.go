package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friend-chat-service/internal/services"
	"friend-chat-service/internal/telemetry"
)

// TokenIssuer mints bearer tokens for provisioned users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// RegisterDebugRoutes wires debug-only endpoints. issuer may be nil when
// tokens come from the external auth-service.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, users *services.UserService, issuer TokenIssuer, enabled bool) {
	if !enabled {
		return
	}

	router.POST("/debug/users", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Username is required")
			return
		}
		user, err := users.Provision(c.Request.Context(), req.Username)
		if err != nil {
			respondError(c, err)
			return
		}
		payload := gin.H{"user": user.Public()}
		if issuer != nil {
			token, err := issuer.Issue(user.ID)
			if err != nil {
				respondError(c, err)
				return
			}
			payload["token"] = token
		}
		respond(c, http.StatusCreated, "User created", payload)
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			fail(c, http.StatusServiceUnavailable, "audit emitter not configured")
			return
		}
		emitAudit(c, emitter, "INFO", "audit test")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
