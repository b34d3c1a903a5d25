package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"friend-chat-service/internal/models"
	"friend-chat-service/internal/repositories"
)

var (
	_ repositories.UserRepository          = (*UserRepositoryMock)(nil)
	_ repositories.FriendRequestRepository = (*FriendRequestRepositoryMock)(nil)
	_ repositories.MessageRepository       = (*MessageRepositoryMock)(nil)
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int64) ([]models.PublicUser, error) {
	args := m.Called(ctx, ids)
	var list []models.PublicUser
	if val := args.Get(0); val != nil {
		list = val.([]models.PublicUser)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]models.PublicUser, error) {
	args := m.Called(ctx, query, excludeID, limit)
	var list []models.PublicUser
	if val := args.Get(0); val != nil {
		list = val.([]models.PublicUser)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) UpdateStatus(ctx context.Context, userID int64, status models.UserStatus) (models.User, error) {
	args := m.Called(ctx, userID, status)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) ListFriends(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	args := m.Called(ctx, userID)
	var list []models.PublicUser
	if val := args.Get(0); val != nil {
		list = val.([]models.PublicUser)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) AreFriends(ctx context.Context, userID int64, friendID int64) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) RemoveFriendship(ctx context.Context, userID int64, friendID int64) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

type FriendRequestRepositoryMock struct {
	mock.Mock
}

func (m *FriendRequestRepositoryMock) CreateRequest(ctx context.Context, senderID int64, recipientID int64, message string) (models.FriendRequest, error) {
	args := m.Called(ctx, senderID, recipientID, message)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRequestRepositoryMock) FindPendingBetween(ctx context.Context, userID int64, otherID int64) (models.FriendRequest, error) {
	args := m.Called(ctx, userID, otherID)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRequestRepositoryMock) ListPendingReceived(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

func (m *FriendRequestRepositoryMock) ListPendingSent(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

func (m *FriendRequestRepositoryMock) AcceptRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error) {
	args := m.Called(ctx, requestID, recipientID)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

func (m *FriendRequestRepositoryMock) RejectRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error) {
	args := m.Called(ctx, requestID, recipientID)
	var out models.FriendRequest
	if val := args.Get(0); val != nil {
		out = val.(models.FriendRequest)
	}
	return out, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID int64, recipientID int64, content string, msgType models.MessageType) (models.Message, error) {
	args := m.Called(ctx, senderID, recipientID, content, msgType)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, userID int64, otherID int64, limit int, offset int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID, limit, offset)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, readerID int64, senderID int64) (int64, error) {
	args := m.Called(ctx, readerID, senderID)
	var n int64
	if val := args.Get(0); val != nil {
		n = val.(int64)
	}
	return n, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID int64, readerID int64) (models.Message, error) {
	args := m.Called(ctx, messageID, readerID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int64, senderID int64, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, content)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ConversationSummaries(ctx context.Context, userID int64) ([]repositories.ConversationRow, error) {
	args := m.Called(ctx, userID)
	var list []repositories.ConversationRow
	if val := args.Get(0); val != nil {
		list = val.([]repositories.ConversationRow)
	}
	return list, args.Error(1)
}
