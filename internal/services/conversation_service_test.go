package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friend-chat-service/internal/models"
)

type recordingDeliverer struct {
	mu     sync.Mutex
	online map[int64]bool
	sent   []delivery
}

type delivery struct {
	userID  int64
	event   string
	payload any
}

func (d *recordingDeliverer) Deliver(userID int64, event string, payload any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.online[userID] {
		return false
	}
	d.sent = append(d.sent, delivery{userID: userID, event: event, payload: payload})
	return true
}

func (f *fixture) gateway(d Deliverer) *MessagingGateway {
	return NewMessagingGateway(f.friends, f.convos, d)
}

func contents(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestEndToEndFriendshipAndConversation(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	alice, bob := f.ids["alice"], f.ids["bob"]

	_, err := f.friends.SendRequest(ctx, alice, bob, "hi")
	require.NoError(t, err)

	received, err := f.friends.ListReceived(ctx, bob)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "hi", received[0].Message)

	_, err = f.friends.Accept(ctx, received[0].ID, bob)
	require.NoError(t, err)

	aliceFriends, err := f.users.Friends(ctx, alice)
	require.NoError(t, err)
	bobFriends, err := f.users.Friends(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bob", aliceFriends[0].Username)
	assert.Equal(t, "alice", bobFriends[0].Username)

	gw := f.gateway(nil)
	_, err = gw.SendMessage(ctx, alice, bob, "hello", "")
	require.NoError(t, err)

	page, err := gw.FetchConversation(ctx, bob, alice, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, contents(page.Messages))

	unread, err := f.convos.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, unread)

	summaries, err := f.convos.ListConversations(ctx, bob)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Zero(t, summaries[0].UnreadCount)
}

func TestGatewayRequiresFriendship(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	gw := f.gateway(nil)

	_, err := gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], "hello", "")
	requireKind(t, err, KindForbidden, MsgNotFriends)

	_, err = gw.FetchConversation(ctx, f.ids["alice"], f.ids["bob"], 1, 10)
	requireKind(t, err, KindForbidden, MsgNotFriends)

	_, err = gw.SendMessage(ctx, f.ids["alice"], 4242, "hello", "")
	requireKind(t, err, KindForbidden, MsgNotFriends)

	_, err = gw.SendMessage(ctx, f.ids["alice"], f.ids["alice"], "hello", "")
	requireKind(t, err, KindValidation, "")

	count, err := f.convos.UnreadCount(ctx, f.ids["bob"])
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGatewayPersistsThenDelivers(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	ctx := context.Background()
	d := &recordingDeliverer{online: map[int64]bool{f.ids["bob"]: true}}
	gw := f.gateway(d)

	view, err := gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], "ping", models.MessageText)
	require.NoError(t, err)
	require.NotNil(t, view.Sender)
	assert.Equal(t, "alice", view.Sender.Username)

	require.Len(t, d.sent, 1)
	assert.Equal(t, models.EventReceiveMessage, d.sent[0].event)
	payload := d.sent[0].payload.(models.ReceiveMessagePayload)
	assert.Equal(t, f.ids["alice"], payload.SenderID)
	assert.Equal(t, view.ID, payload.Message.ID)

	_, err = gw.SendMessage(ctx, f.ids["bob"], f.ids["alice"], "pong", "")
	require.NoError(t, err)
	assert.Len(t, d.sent, 1)

	unread, err := f.convos.UnreadCount(ctx, f.ids["alice"])
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestSendValidatesContentAndType(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	ctx := context.Background()
	gw := f.gateway(nil)

	_, err := gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], "   ", "")
	requireKind(t, err, KindValidation, "Message content is required")

	_, err = gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], strings.Repeat("a", 1001), "")
	requireKind(t, err, KindValidation, "Message cannot exceed 1000 characters")

	_, err = gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], "x", "video")
	requireKind(t, err, KindValidation, "")

	_, err = gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], strings.Repeat("a", 1000), models.MessageImage)
	assert.NoError(t, err)
}

func TestFetchMarksWholeBacklogRead(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.befriend(t, "alice", "bob")
	f.befriend(t, "carol", "bob")
	ctx := context.Background()
	gw := f.gateway(nil)

	for i := 1; i <= 5; i++ {
		_, err := gw.SendMessage(ctx, f.ids["alice"], f.ids["bob"], fmt.Sprintf("m%d", i), "")
		require.NoError(t, err)
	}
	_, err := gw.SendMessage(ctx, f.ids["carol"], f.ids["bob"], "from carol", "")
	require.NoError(t, err)

	page, err := gw.FetchConversation(ctx, f.ids["bob"], f.ids["alice"], 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m4", "m5"}, contents(page.Messages))
	assert.True(t, page.HasMore)
	for _, m := range page.Messages {
		assert.False(t, m.IsRead, "returned rows keep their state from before the fetch")
	}

	unread, err := f.convos.UnreadCount(ctx, f.ids["bob"])
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	older, err := gw.FetchConversation(ctx, f.ids["bob"], f.ids["alice"], 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, contents(older.Messages))
	assert.False(t, older.HasMore)
	assert.True(t, older.Messages[0].IsRead)
}

func TestFetchNormalizesPaging(t *testing.T) {
	page, limit := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageLimit, limit)

	_, limit = NormalizePage(2, 500)
	assert.Equal(t, MaxPageLimit, limit)
}

func TestListConversationsOnePerCounterpart(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.befriend(t, "alice", "bob")
	f.befriend(t, "alice", "carol")
	ctx := context.Background()
	gw := f.gateway(nil)

	send := func(from, to, content string) {
		_, err := gw.SendMessage(ctx, f.ids[from], f.ids[to], content, "")
		require.NoError(t, err)
	}
	send("bob", "alice", "b1")
	send("carol", "alice", "c1")
	send("bob", "alice", "b2")
	send("alice", "carol", "a-to-c")
	send("carol", "alice", "c2")
	send("carol", "alice", "c3")

	summaries, err := f.convos.ListConversations(ctx, f.ids["alice"])
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "carol", summaries[0].User.Username)
	assert.Equal(t, "c3", summaries[0].LastMessage.Content)
	assert.Equal(t, 3, summaries[0].UnreadCount)

	assert.Equal(t, "bob", summaries[1].User.Username)
	assert.Equal(t, "b2", summaries[1].LastMessage.Content)
	assert.Equal(t, 2, summaries[1].UnreadCount)

	_, err = gw.FetchConversation(ctx, f.ids["alice"], f.ids["carol"], 1, 50)
	require.NoError(t, err)
	summaries, err = f.convos.ListConversations(ctx, f.ids["alice"])
	require.NoError(t, err)
	assert.Zero(t, summaries[0].UnreadCount)
	assert.Equal(t, 2, summaries[1].UnreadCount)
}

func TestMarkReadOnlyForRecipient(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	ctx := context.Background()

	view, err := f.gateway(nil).SendMessage(ctx, f.ids["alice"], f.ids["bob"], "read me", "")
	require.NoError(t, err)

	_, err = f.convos.MarkRead(ctx, view.ID, f.ids["alice"])
	requireKind(t, err, KindNotFound, "Message not found or already read")

	msg, err := f.convos.MarkRead(ctx, view.ID, f.ids["bob"])
	require.NoError(t, err)
	assert.True(t, msg.IsRead)
	assert.NotNil(t, msg.ReadAt)

	_, err = f.convos.MarkRead(ctx, view.ID, f.ids["bob"])
	requireKind(t, err, KindNotFound, "")
}

func TestEditOnlyBySender(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.befriend(t, "alice", "bob")
	ctx := context.Background()

	view, err := f.gateway(nil).SendMessage(ctx, f.ids["alice"], f.ids["bob"], "typo", "")
	require.NoError(t, err)

	_, err = f.convos.Edit(ctx, view.ID, f.ids["bob"], "hijack")
	requireKind(t, err, KindNotFound, "Message not found")

	edited, err := f.convos.Edit(ctx, view.ID, f.ids["alice"], "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	_, err = f.convos.Edit(ctx, view.ID, f.ids["alice"], "")
	requireKind(t, err, KindValidation, "")
}
