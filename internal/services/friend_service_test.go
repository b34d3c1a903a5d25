package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"friend-chat-service/internal/mocks"
	"friend-chat-service/internal/models"
	"friend-chat-service/internal/repositories"
)

type fixture struct {
	store   *repositories.MemoryStore
	friends *FriendService
	users   *UserService
	convos  *ConversationService
	ids     map[string]int64
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	f := &fixture{
		store:   store,
		friends: NewFriendService(store, store),
		users:   NewUserService(store),
		convos:  NewConversationService(store, store),
		ids:     map[string]int64{},
	}
	for _, name := range names {
		u, err := f.users.Provision(context.Background(), name)
		require.NoError(t, err)
		f.ids[name] = u.ID
	}
	return f
}

func (f *fixture) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	req, err := f.friends.SendRequest(ctx, f.ids[a], f.ids[b], "")
	require.NoError(t, err)
	_, err = f.friends.Accept(ctx, req.ID, f.ids[b])
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "expected service error, got %v", err)
	assert.Equal(t, kind, got)
	if msg != "" {
		assert.Equal(t, msg, err.Error())
	}
}

func TestSendRequestRejectsSelfAndLongMessage(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	_, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["alice"], "")
	requireKind(t, err, KindValidation, "")

	long := make([]rune, 201)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], string(long))
	requireKind(t, err, KindValidation, "Message cannot exceed 200 characters")
}

func TestSendRequestUnknownRecipient(t *testing.T) {
	f := newFixture(t, "alice")
	_, err := f.friends.SendRequest(context.Background(), f.ids["alice"], 999, "")
	requireKind(t, err, KindNotFound, MsgUserNotFound)
}

func TestPendingRequestBlocksBothDirections(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	_, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "hi")
	require.NoError(t, err)

	_, err = f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "again")
	requireKind(t, err, KindConflict, MsgRequestAlreadySent)

	_, err = f.friends.SendRequest(ctx, f.ids["bob"], f.ids["alice"], "")
	requireKind(t, err, KindConflict, MsgRequestAlreadyPending)

	sent, err := f.friends.ListSent(ctx, f.ids["alice"])
	require.NoError(t, err)
	assert.Len(t, sent, 1)
}

func TestSendRequestToFriendConflicts(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")

	_, err := f.friends.SendRequest(context.Background(), f.ids["bob"], f.ids["alice"], "")
	requireKind(t, err, KindConflict, MsgAlreadyFriends)
}

func TestConcurrentDoubleAccept(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	req, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "")
	require.NoError(t, err)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.friends.Accept(ctx, req.ID, f.ids["bob"])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireKind(t, err, KindNotFound, MsgRequestNotFound)
	}
	assert.Equal(t, 1, succeeded)

	aliceFriends, err := f.users.Friends(ctx, f.ids["alice"])
	require.NoError(t, err)
	bobFriends, err := f.users.Friends(ctx, f.ids["bob"])
	require.NoError(t, err)
	require.Len(t, aliceFriends, 1)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, f.ids["bob"], aliceFriends[0].ID)
	assert.Equal(t, f.ids["alice"], bobFriends[0].ID)
}

func TestOnlyRecipientMayAccept(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	req, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "")
	require.NoError(t, err)

	_, err = f.friends.Accept(ctx, req.ID, f.ids["alice"])
	requireKind(t, err, KindNotFound, MsgRequestNotFound)
}

func TestRejectedRequestDoesNotBlockNewOne(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	req, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "")
	require.NoError(t, err)
	rejected, err := f.friends.Reject(ctx, req.ID, f.ids["bob"])
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)

	_, err = f.friends.Accept(ctx, req.ID, f.ids["bob"])
	requireKind(t, err, KindNotFound, MsgRequestNotFound)

	again, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "second try")
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)
}

func TestRemoveFriend(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	f.befriend(t, "alice", "bob")

	require.NoError(t, f.friends.RemoveFriend(ctx, f.ids["bob"], f.ids["alice"]))

	ok, err := f.friends.AreFriends(ctx, f.ids["alice"], f.ids["bob"])
	require.NoError(t, err)
	assert.False(t, ok)

	err = f.friends.RemoveFriend(ctx, f.ids["bob"], f.ids["alice"])
	requireKind(t, err, KindNotFound, "Friend not found")
}

func TestListReceivedIncludesSenderBrief(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	_, err := f.friends.SendRequest(ctx, f.ids["alice"], f.ids["bob"], "  hi  ")
	require.NoError(t, err)

	received, err := f.friends.ListReceived(ctx, f.ids["bob"])
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "hi", received[0].Message)
	require.NotNil(t, received[0].Sender)
	assert.Equal(t, "alice", received[0].Sender.Username)
	assert.Nil(t, received[0].Recipient)
}

func TestUniqueViolationIsReclassified(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	requests := new(mocks.FriendRequestRepositoryMock)
	svc := NewFriendService(users, requests)
	ctx := context.Background()

	users.On("GetUser", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Once()
	users.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(false, nil).Twice()
	requests.On("FindPendingBetween", mock.Anything, int64(1), int64(2)).
		Return(models.FriendRequest{}, repositories.ErrFriendRequestNotFound).Once()
	requests.On("CreateRequest", mock.Anything, int64(1), int64(2), "").
		Return(models.FriendRequest{}, repositories.ErrPendingRequestExists).Once()
	requests.On("FindPendingBetween", mock.Anything, int64(1), int64(2)).
		Return(models.FriendRequest{ID: 9, SenderID: 2, RecipientID: 1, Status: models.RequestPending}, nil).Once()

	_, err := svc.SendRequest(ctx, 1, 2, "")
	requireKind(t, err, KindConflict, MsgRequestAlreadyPending)

	users.AssertExpectations(t)
	requests.AssertExpectations(t)
}

func TestStorageFailureIsNotAServiceError(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := NewFriendService(users, new(mocks.FriendRequestRepositoryMock))

	users.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(false, assert.AnError).Once()

	_, err := svc.AreFriends(context.Background(), 1, 2)
	require.ErrorIs(t, err, assert.AnError)
	_, ok := KindOf(err)
	assert.False(t, ok)
}
