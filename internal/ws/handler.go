package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/middleware"
	"friend-chat-service/internal/models"
	"friend-chat-service/internal/observability"
	"friend-chat-service/internal/services"
)

const maxFrameBytes = 16 * 1024

// MessageSender is the send path of the messaging gateway.
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, recipientID int64, content string, msgType models.MessageType) (models.MessageView, error)
}

type joinPayload struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type sendMessagePayload struct {
	RecipientID int64  `json:"recipientId" validate:"required,gt=0"`
	Message     string `json:"message" validate:"required"`
	SenderID    int64  `json:"senderId"`
	Type        string `json:"type" validate:"omitempty,oneof=text image file"`
}

type typingPayload struct {
	RecipientID int64 `json:"recipientId" validate:"required,gt=0"`
	IsTyping    bool  `json:"isTyping"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sentPayload struct {
	Message models.MessageView `json:"message"`
}

var errNotJoined = &services.Error{Kind: services.KindForbidden, Message: "Join before sending events"}

// EventHandler serves the realtime event channel.
type EventHandler struct {
	registry *Registry
	resolver middleware.TokenResolver
	gateway  MessageSender
	friends  services.FriendChecker
	validate *validator.Validate
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(registry *Registry, resolver middleware.TokenResolver, gateway MessageSender, friends services.FriendChecker) *EventHandler {
	return &EventHandler{
		registry: registry,
		resolver: resolver,
		gateway:  gateway,
		friends:  friends,
		validate: validator.New(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, upgrades and runs the read loop until the peer goes away.
func (h *EventHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("friend-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.resolver.ValidateToken(ctx, tokenFromRequest(c.Request))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)
	if !h.registry.Attach(client) {
		_ = conn.Close()
		return
	}

	observability.IncWSActive()
	h.lifecycle(ctx, info, "ws_connect", "")

	closeReason := h.readLoop(ctx, conn, client)

	h.registry.Disconnect(client)
	observability.DecWSActive()
	h.lifecycle(ctx, info, "ws_disconnect", closeReason)
	_ = conn.Close()
}

func (h *EventHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) string {
	for {
		// Transport and close errors end the session. A frame that does not
		// decode only earns an error frame.
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.lifecycle(ctx, client.Info(), "ws_error", err.Error())
			}
			return err.Error()
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.sendError(client, "Malformed event")
			continue
		}
		observability.IncWSEvent(frame.Event)

		if err := h.dispatch(ctx, client, frame); err != nil {
			h.sendError(client, errorMessage(err))
			var svcErr *services.Error
			if !errors.As(err, &svcErr) {
				logger.Log.WithFields(logrus.Fields{
					"conn_id": client.Info().ConnID,
					"user_id": client.Info().UserID,
					"event":   frame.Event,
				}).WithError(err).Error("websocket event failed")
			}
		}
	}
}

func (h *EventHandler) dispatch(ctx context.Context, client *Client, frame inboundFrame) error {
	identity := client.Info().UserID

	switch frame.Event {
	case models.EventJoin:
		var p joinPayload
		if err := h.decode(frame.Data, &p); err != nil {
			return err
		}
		if p.UserID != identity {
			return &services.Error{Kind: services.KindForbidden, Message: "Cannot join as another user"}
		}
		h.registry.Join(identity, client)
		return nil

	case models.EventSendMessage:
		if !h.joined(identity, client) {
			return errNotJoined
		}
		var p sendMessagePayload
		if err := h.decode(frame.Data, &p); err != nil {
			return err
		}
		if p.SenderID != 0 && p.SenderID != identity {
			return &services.Error{Kind: services.KindForbidden, Message: "Cannot send as another user"}
		}
		view, err := h.gateway.SendMessage(ctx, identity, p.RecipientID, p.Message, models.MessageType(p.Type))
		if err != nil {
			return err
		}
		return client.Send(models.EventMessageSent, sentPayload{Message: view})

	case models.EventTyping:
		if !h.joined(identity, client) {
			return errNotJoined
		}
		var p typingPayload
		if err := h.decode(frame.Data, &p); err != nil {
			return err
		}
		friends, err := h.friends.AreFriends(ctx, identity, p.RecipientID)
		if err != nil {
			return err
		}
		if friends {
			h.registry.NotifyTyping(identity, p.RecipientID, p.IsTyping)
		}
		return nil
	}
	return &services.Error{Kind: services.KindValidation, Message: "Unknown event"}
}

func (h *EventHandler) joined(userID int64, client *Client) bool {
	current, ok := h.registry.Route(userID)
	return ok && current == client
}

func (h *EventHandler) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return &services.Error{Kind: services.KindValidation, Message: "Event data is required"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: "Malformed event data"}
	}
	if err := h.validate.Struct(dst); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: "Invalid event data"}
	}
	return nil
}

func (h *EventHandler) sendError(client *Client, message string) {
	if err := client.Send(models.EventError, errorPayload{Message: message}); err != nil {
		logger.Log.WithField("conn_id", client.Info().ConnID).WithError(err).Debug("error frame not delivered")
	}
}

func errorMessage(err error) string {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return "Internal server error"
}

func (h *EventHandler) lifecycle(ctx context.Context, info ConnInfo, event, reason string) {
	observability.IncWSEvent(event)
	logger.Log.WithFields(logrus.Fields{
		"conn_id": info.ConnID,
		"user_id": info.UserID,
		"event":   event,
		"reason":  reason,
	}).Debug("websocket lifecycle")
	if err := observability.PublishEvent(ctx, observability.RoutingWSEvents, "ws_events", event, info.eventPayload(event, reason)); err != nil {
		logger.Log.WithError(err).WithField("event", event).Warn("event publish failed")
	}
}
