package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"friend-chat-service/internal/models"
)

// MemoryStore keeps users, friend requests and messages in process memory.
// Every operation runs under one mutex, so conditional updates are atomic
// in the same way the SQL statements are.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[int64]models.User
	friends  map[int64]map[int64]struct{}
	requests map[int64]models.FriendRequest
	messages []models.Message
	nextUser int64
	nextReq  int64
	nextMsg  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		users:    make(map[int64]models.User),
		friends:  make(map[int64]map[int64]struct{}),
		requests: make(map[int64]models.FriendRequest),
	}
}

var (
	_ UserRepository          = (*MemoryStore)(nil)
	_ FriendRequestRepository = (*MemoryStore)(nil)
	_ MessageRepository       = (*MemoryStore)(nil)
)

func (s *MemoryStore) CreateUser(ctx context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return models.User{}, ErrUsernameTaken
		}
	}
	s.nextUser++
	now := s.now()
	user := models.User{ID: s.nextUser, Username: username, Status: models.StatusOffline, LastSeen: now, CreatedAt: now}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) BulkUsers(ctx context.Context, ids []int64) ([]models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PublicUser, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u.Public())
		}
	}
	return out, nil
}

func (s *MemoryStore) SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	out := []models.PublicUser{}
	for _, u := range s.users {
		if u.ID != excludeID && strings.Contains(strings.ToLower(u.Username), needle) {
			out = append(out, u.Public())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, userID int64, status models.UserStatus) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	user.Status = status
	user.LastSeen = s.now()
	s.users[userID] = user
	return user, nil
}

func (s *MemoryStore) ListFriends(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PublicUser{}
	for id := range s.friends[userID] {
		if u, ok := s.users[id]; ok {
			out = append(out, u.Public())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *MemoryStore) AreFriends(ctx context.Context, userID int64, friendID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.friends[userID][friendID]
	return ok, nil
}

func (s *MemoryStore) RemoveFriendship(ctx context.Context, userID int64, friendID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, a := s.friends[userID][friendID]
	_, b := s.friends[friendID][userID]
	if !a && !b {
		return ErrFriendshipNotFound
	}
	delete(s.friends[userID], friendID)
	delete(s.friends[friendID], userID)
	return nil
}

func (s *MemoryStore) addFriend(userID, friendID int64) {
	if s.friends[userID] == nil {
		s.friends[userID] = make(map[int64]struct{})
	}
	s.friends[userID][friendID] = struct{}{}
}

func (s *MemoryStore) CreateRequest(ctx context.Context, senderID int64, recipientID int64, message string) (models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pendingBetween(senderID, recipientID); ok {
		return models.FriendRequest{}, ErrPendingRequestExists
	}
	s.nextReq++
	now := s.now()
	req := models.FriendRequest{
		ID:          s.nextReq,
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      models.RequestPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.requests[req.ID] = req
	return req, nil
}

func (s *MemoryStore) FindPendingBetween(ctx context.Context, userID int64, otherID int64) (models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pendingBetween(userID, otherID)
	if !ok {
		return models.FriendRequest{}, ErrFriendRequestNotFound
	}
	return req, nil
}

func (s *MemoryStore) pendingBetween(a, b int64) (models.FriendRequest, bool) {
	for _, req := range s.requests {
		if req.Status != models.RequestPending {
			continue
		}
		if (req.SenderID == a && req.RecipientID == b) || (req.SenderID == b && req.RecipientID == a) {
			return req, true
		}
	}
	return models.FriendRequest{}, false
}

func (s *MemoryStore) ListPendingReceived(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	return s.listPending(func(r models.FriendRequest) bool { return r.RecipientID == userID }), nil
}

func (s *MemoryStore) ListPendingSent(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	return s.listPending(func(r models.FriendRequest) bool { return r.SenderID == userID }), nil
}

func (s *MemoryStore) listPending(match func(models.FriendRequest) bool) []models.FriendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FriendRequest{}
	for _, req := range s.requests {
		if req.Status == models.RequestPending && match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *MemoryStore) AcceptRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, err := s.transition(requestID, recipientID, models.RequestAccepted)
	if err != nil {
		return models.FriendRequest{}, err
	}
	s.addFriend(req.SenderID, req.RecipientID)
	s.addFriend(req.RecipientID, req.SenderID)
	return req, nil
}

func (s *MemoryStore) RejectRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(requestID, recipientID, models.RequestRejected)
}

func (s *MemoryStore) transition(requestID, recipientID int64, status models.FriendRequestStatus) (models.FriendRequest, error) {
	req, ok := s.requests[requestID]
	if !ok || req.RecipientID != recipientID || req.Status != models.RequestPending {
		return models.FriendRequest{}, ErrRequestNotPending
	}
	req.Status = status
	req.UpdatedAt = s.now()
	s.requests[requestID] = req
	return req, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, senderID int64, recipientID int64, content string, msgType models.MessageType) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsg++
	msg := models.Message{
		ID:          s.nextMsg,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Type:        msgType,
		CreatedAt:   s.now(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *MemoryStore) ListConversation(ctx context.Context, userID int64, otherID int64, limit int, offset int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// s.messages is in insertion order, so walking backwards is newest first.
	out := []models.Message{}
	skipped := 0
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if !isBetween(m, userID, otherID) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func isBetween(m models.Message, a, b int64) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

func (s *MemoryStore) MarkConversationRead(ctx context.Context, readerID int64, senderID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	now := s.now()
	for i := range s.messages {
		m := &s.messages[i]
		if m.RecipientID == readerID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, messageID int64, readerID int64) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		m := &s.messages[i]
		if m.ID != messageID {
			continue
		}
		if m.RecipientID != readerID || m.IsRead {
			break
		}
		now := s.now()
		m.IsRead = true
		m.ReadAt = &now
		return *m, nil
	}
	return models.Message{}, ErrMessageNotFound
}

func (s *MemoryStore) EditMessage(ctx context.Context, messageID int64, senderID int64, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		m := &s.messages[i]
		if m.ID != messageID || m.SenderID != senderID {
			continue
		}
		now := s.now()
		m.Content = content
		m.IsEdited = true
		m.EditedAt = &now
		return *m, nil
	}
	return models.Message{}, ErrMessageNotFound
}

func (s *MemoryStore) UnreadCount(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.RecipientID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ConversationSummaries(ctx context.Context, userID int64) ([]ConversationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCounterpart := map[int64]*ConversationRow{}
	order := []int64{}
	for _, m := range s.messages {
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		cp := m.Counterpart(userID)
		row, ok := byCounterpart[cp]
		if !ok {
			row = &ConversationRow{CounterpartID: cp}
			byCounterpart[cp] = row
			order = append(order, cp)
		}
		// Later entries in s.messages are newer.
		row.Message = m
		if m.RecipientID == userID && !m.IsRead {
			row.UnreadCount++
		}
	}
	out := make([]ConversationRow, 0, len(order))
	for _, cp := range order {
		out = append(out, *byCounterpart[cp])
	}
	return out, nil
}
