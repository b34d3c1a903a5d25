package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/models"
	"friend-chat-service/internal/observability"
	"friend-chat-service/internal/repositories"
)

const maxRequestMessageLength = 200

// Relation describes what, if anything, already links two users.
type Relation int

const (
	RelationNone Relation = iota
	RelationFriends
	RelationPendingSent
	RelationPendingReceived
)

// FriendService owns the friend request lifecycle and the friends relation.
type FriendService struct {
	users    repositories.UserRepository
	requests repositories.FriendRequestRepository
}

// NewFriendService creates a new FriendService.
func NewFriendService(users repositories.UserRepository, requests repositories.FriendRequestRepository) *FriendService {
	return &FriendService{users: users, requests: requests}
}

// Relation reports how userID relates to otherID.
func (s *FriendService) Relation(ctx context.Context, userID, otherID int64) (Relation, error) {
	friends, err := s.users.AreFriends(ctx, userID, otherID)
	if err != nil {
		return RelationNone, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return RelationFriends, nil
	}

	req, err := s.requests.FindPendingBetween(ctx, userID, otherID)
	if errors.Is(err, repositories.ErrFriendRequestNotFound) {
		return RelationNone, nil
	}
	if err != nil {
		return RelationNone, fmt.Errorf("find pending request: %w", err)
	}
	if req.SenderID == userID {
		return RelationPendingSent, nil
	}
	return RelationPendingReceived, nil
}

func relationConflict(rel Relation) error {
	switch rel {
	case RelationFriends:
		return conflictError(MsgAlreadyFriends)
	case RelationPendingSent:
		return conflictError(MsgRequestAlreadySent)
	case RelationPendingReceived:
		return conflictError(MsgRequestAlreadyPending)
	}
	return nil
}

// SendRequest creates a pending friend request from senderID to recipientID.
func (s *FriendService) SendRequest(ctx context.Context, senderID, recipientID int64, message string) (models.FriendRequest, error) {
	if senderID == recipientID {
		return models.FriendRequest{}, validationError("You cannot send a friend request to yourself")
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > maxRequestMessageLength {
		return models.FriendRequest{}, validationError("Message cannot exceed 200 characters")
	}

	if _, err := s.users.GetUser(ctx, recipientID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.FriendRequest{}, notFoundError(MsgUserNotFound)
		}
		return models.FriendRequest{}, fmt.Errorf("load recipient: %w", err)
	}

	rel, err := s.Relation(ctx, senderID, recipientID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if conflict := relationConflict(rel); conflict != nil {
		return models.FriendRequest{}, conflict
	}

	req, err := s.requests.CreateRequest(ctx, senderID, recipientID, message)
	if errors.Is(err, repositories.ErrPendingRequestExists) {
		// Lost a race with a concurrent request for the same pair.
		if rel, relErr := s.Relation(ctx, senderID, recipientID); relErr == nil {
			if conflict := relationConflict(rel); conflict != nil {
				return models.FriendRequest{}, conflict
			}
		}
		return models.FriendRequest{}, conflictError(MsgRequestAlreadySent)
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	s.recordTransition(ctx, "sent", req)
	return req, nil
}

// ListReceived returns pending requests addressed to userID with sender briefs.
func (s *FriendService) ListReceived(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	reqs, err := s.requests.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list received requests: %w", err)
	}
	return s.enrich(ctx, reqs, true)
}

// ListSent returns pending requests sent by userID with recipient briefs.
func (s *FriendService) ListSent(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	reqs, err := s.requests.ListPendingSent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sent requests: %w", err)
	}
	return s.enrich(ctx, reqs, false)
}

func (s *FriendService) enrich(ctx context.Context, reqs []models.FriendRequest, received bool) ([]models.FriendRequestView, error) {
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		if received {
			ids = append(ids, r.SenderID)
		} else {
			ids = append(ids, r.RecipientID)
		}
	}
	briefs, err := briefsByID(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		view := models.FriendRequestView{FriendRequest: r}
		if received {
			brief := briefs[r.SenderID]
			view.Sender = &brief
		} else {
			brief := briefs[r.RecipientID]
			view.Recipient = &brief
		}
		views = append(views, view)
	}
	return views, nil
}

// Accept turns a pending request addressed to actingUserID into a friendship.
func (s *FriendService) Accept(ctx context.Context, requestID, actingUserID int64) (models.FriendRequest, error) {
	req, err := s.requests.AcceptRequest(ctx, requestID, actingUserID)
	if errors.Is(err, repositories.ErrRequestNotPending) {
		return models.FriendRequest{}, notFoundError(MsgRequestNotFound)
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("accept friend request: %w", err)
	}

	s.recordTransition(ctx, "accepted", req)
	return req, nil
}

// Reject closes a pending request addressed to actingUserID.
func (s *FriendService) Reject(ctx context.Context, requestID, actingUserID int64) (models.FriendRequest, error) {
	req, err := s.requests.RejectRequest(ctx, requestID, actingUserID)
	if errors.Is(err, repositories.ErrRequestNotPending) {
		return models.FriendRequest{}, notFoundError(MsgRequestNotFound)
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("reject friend request: %w", err)
	}

	s.recordTransition(ctx, "rejected", req)
	return req, nil
}

// RemoveFriend deletes the friendship between userID and friendID.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return validationError("You cannot unfriend yourself")
	}
	err := s.users.RemoveFriendship(ctx, userID, friendID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		return notFoundError("Friend not found")
	}
	if err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}

	observability.IncFriendRequest("removed")
	publish(ctx, observability.RoutingFriendEvents, "friend_events", "friend_removed", map[string]int64{
		"user_id":   userID,
		"friend_id": friendID,
	})
	return nil
}

// AreFriends reports whether the friend edge exists.
func (s *FriendService) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	friends, err := s.users.AreFriends(ctx, userID, otherID)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return friends, nil
}

func (s *FriendService) recordTransition(ctx context.Context, action string, req models.FriendRequest) {
	observability.IncFriendRequest(action)
	logger.Log.WithFields(logrus.Fields{
		"friend_request_id": req.ID,
		"sender_id":         req.SenderID,
		"recipient_id":      req.RecipientID,
		"action":            action,
	}).Info("friend request transition")
	publish(ctx, observability.RoutingFriendEvents, "friend_events", "friend_request_"+action, req)
}

// publish ships a domain event; broker failures are logged and otherwise ignored.
func publish(ctx context.Context, routingKey, eventType, eventName string, payload any) {
	if err := observability.PublishEvent(ctx, routingKey, eventType, eventName, payload); err != nil {
		logger.Log.WithError(err).WithField("event", eventName).Warn("event publish failed")
	}
}
