package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/models"
	"friend-chat-service/internal/observability"
)

// FriendChecker answers whether two users share a friend edge.
type FriendChecker interface {
	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
}

// Deliverer pushes a realtime event to a connected user. It reports whether
// the user had a live connection.
type Deliverer interface {
	Deliver(userID int64, event string, payload any) bool
}

// MessagingGateway is the only path by which messages are sent or
// conversations fetched: it enforces friendship, persists, then notifies.
type MessagingGateway struct {
	friends  FriendChecker
	store    *ConversationService
	presence Deliverer
	now      func() time.Time
}

// NewMessagingGateway wires the gateway. presence may be nil.
func NewMessagingGateway(friends FriendChecker, store *ConversationService, presence Deliverer) *MessagingGateway {
	return &MessagingGateway{friends: friends, store: store, presence: presence, now: time.Now}
}

// requireFriends returns a Forbidden error for non-friends. Unknown users are
// reported the same way so the endpoint cannot be used to probe the directory.
func (g *MessagingGateway) requireFriends(ctx context.Context, userID, otherID int64) error {
	if userID == otherID {
		return validationError("You cannot message yourself")
	}
	friends, err := g.friends.AreFriends(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !friends {
		return forbiddenError(MsgNotFriends)
	}
	return nil
}

// SendMessage persists a message from senderID to recipientID and pushes a
// live copy to the recipient if connected.
func (g *MessagingGateway) SendMessage(ctx context.Context, senderID, recipientID int64, content string, msgType models.MessageType) (models.MessageView, error) {
	if err := g.requireFriends(ctx, senderID, recipientID); err != nil {
		return models.MessageView{}, err
	}

	view, err := g.store.Send(ctx, senderID, recipientID, content, msgType)
	if err != nil {
		return models.MessageView{}, err
	}

	delivered := false
	if g.presence != nil {
		delivered = g.presence.Deliver(recipientID, models.EventReceiveMessage, models.ReceiveMessagePayload{
			SenderID:  senderID,
			Message:   view.Message,
			Timestamp: g.now(),
		})
	}
	observability.IncMessage(string(view.Type), delivered)
	logger.Log.WithFields(logrus.Fields{
		"message_id":   view.ID,
		"sender_id":    senderID,
		"recipient_id": recipientID,
		"delivered":    delivered,
	}).Debug("message sent")

	return view, nil
}

// FetchConversation returns a page of the conversation once friendship is confirmed.
func (g *MessagingGateway) FetchConversation(ctx context.Context, userID, otherID int64, page, limit int) (models.ConversationPage, error) {
	if err := g.requireFriends(ctx, userID, otherID); err != nil {
		return models.ConversationPage{}, err
	}
	return g.store.FetchConversation(ctx, userID, otherID, page, limit)
}
