package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"friend-chat-service/internal/models"
	"friend-chat-service/internal/observability"
	"friend-chat-service/internal/repositories"
)

const (
	maxContentLength = 1000
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// ConversationService owns message persistence, retrieval and read state.
// Friendship is checked by MessagingGateway before Send and
// FetchConversation are reached.
type ConversationService struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
}

// NewConversationService creates a new ConversationService.
func NewConversationService(users repositories.UserRepository, messages repositories.MessageRepository) *ConversationService {
	return &ConversationService{users: users, messages: messages}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return validationError("Message content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return validationError("Message cannot exceed 1000 characters")
	}
	return nil
}

// Send persists a message and returns it with the sender's brief.
func (s *ConversationService) Send(ctx context.Context, senderID, recipientID int64, content string, msgType models.MessageType) (models.MessageView, error) {
	if err := validateContent(content); err != nil {
		return models.MessageView{}, err
	}
	if msgType == "" {
		msgType = models.MessageText
	}
	if !msgType.Valid() {
		return models.MessageView{}, validationError("Message type must be one of text, image, file")
	}

	msg, err := s.messages.CreateMessage(ctx, senderID, recipientID, content, msgType)
	if err != nil {
		return models.MessageView{}, fmt.Errorf("create message: %w", err)
	}

	briefs, err := briefsByID(ctx, s.users, []int64{senderID})
	if err != nil {
		return models.MessageView{}, err
	}
	sender := briefs[senderID]

	publish(ctx, observability.RoutingMessageEvents, "message_events", "message_sent", msg)
	return models.MessageView{Message: msg, Sender: &sender}, nil
}

// NormalizePage clamps page to >= 1 and limit to 1..MaxPageLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// FetchConversation returns one page of the conversation between userID and
// otherID in ascending order. Every unread message from otherID to userID is
// marked read, whichever page was requested.
func (s *ConversationService) FetchConversation(ctx context.Context, userID, otherID int64, page, limit int) (models.ConversationPage, error) {
	page, limit = NormalizePage(page, limit)

	msgs, err := s.messages.ListConversation(ctx, userID, otherID, limit, (page-1)*limit)
	if err != nil {
		return models.ConversationPage{}, fmt.Errorf("list conversation: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if _, err := s.messages.MarkConversationRead(ctx, userID, otherID); err != nil {
		return models.ConversationPage{}, fmt.Errorf("mark conversation read: %w", err)
	}

	return models.ConversationPage{
		Messages: msgs,
		Page:     page,
		Limit:    limit,
		HasMore:  len(msgs) == limit,
	}, nil
}

// ListConversations returns one summary per counterpart, most recent first.
func (s *ConversationService) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	rows, err := s.messages.ConversationSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation summaries: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CounterpartID)
	}
	briefs, err := briefsByID(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, models.ConversationSummary{
			User:        briefs[r.CounterpartID],
			LastMessage: r.Message,
			UnreadCount: r.UnreadCount,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return summaries, nil
}

// MarkRead marks one message addressed to userID as read.
func (s *ConversationService) MarkRead(ctx context.Context, messageID, userID int64) (models.Message, error) {
	msg, err := s.messages.MarkRead(ctx, messageID, userID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, notFoundError("Message not found or already read")
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("mark message read: %w", err)
	}
	return msg, nil
}

// Edit replaces the content of a message sent by userID.
func (s *ConversationService) Edit(ctx context.Context, messageID, userID int64, content string) (models.Message, error) {
	if err := validateContent(content); err != nil {
		return models.Message{}, err
	}
	msg, err := s.messages.EditMessage(ctx, messageID, userID, content)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, notFoundError("Message not found")
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("edit message: %w", err)
	}
	publish(ctx, observability.RoutingMessageEvents, "message_events", "message_edited", msg)
	return msg, nil
}

// UnreadCount totals unread messages addressed to userID.
func (s *ConversationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.messages.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}
