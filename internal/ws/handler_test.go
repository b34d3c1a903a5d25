package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friend-chat-service/internal/models"
	"friend-chat-service/internal/repositories"
	"friend-chat-service/internal/services"
)

type staticResolver map[string]int64

func (r staticResolver) ValidateToken(_ context.Context, token string) (int64, error) {
	if id, ok := r[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid token")
}

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wsFixture struct {
	server   *httptest.Server
	registry *Registry
	users    map[string]models.User
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := repositories.NewMemoryStore()
	users := map[string]models.User{}
	for _, name := range []string{"alice", "bob", "carol"} {
		u, err := store.CreateUser(ctx, name)
		require.NoError(t, err)
		users[name] = u
	}

	friends := services.NewFriendService(store, store)
	req, err := friends.SendRequest(ctx, users["alice"].ID, users["bob"].ID, "")
	require.NoError(t, err)
	_, err = friends.Accept(ctx, req.ID, users["bob"].ID)
	require.NoError(t, err)

	registry := NewRegistry()
	gateway := services.NewMessagingGateway(friends, services.NewConversationService(store, store), registry)
	resolver := staticResolver{}
	for name, u := range users {
		resolver[name] = u.ID
	}

	router := gin.New()
	router.GET("/ws", NewEventHandler(registry, resolver, gateway, friends).Handle)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{server: server, registry: registry, users: users}
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func next(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame testFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func (f *wsFixture) join(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	id := f.users[name].ID
	send(t, conn, models.EventJoin, map[string]any{"userId": id})
	require.Eventually(t, func() bool {
		_, ok := f.registry.Route(id)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=nope"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSendMessageBetweenFriends(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")

	f.join(t, alice, "alice")
	f.join(t, bob, "bob")

	online := next(t, alice)
	assert.Equal(t, models.EventUserOnline, online.Event)
	assert.JSONEq(t, `{"userId":2}`, string(online.Data))

	send(t, alice, models.EventSendMessage, map[string]any{
		"recipientId": f.users["bob"].ID,
		"message":     "hi bob",
	})

	ack := next(t, alice)
	assert.Equal(t, models.EventMessageSent, ack.Event)

	received := next(t, bob)
	require.Equal(t, models.EventReceiveMessage, received.Event)
	var payload models.ReceiveMessagePayload
	require.NoError(t, json.Unmarshal(received.Data, &payload))
	assert.Equal(t, f.users["alice"].ID, payload.SenderID)
	assert.Equal(t, "hi bob", payload.Message.Content)
	assert.Equal(t, models.MessageText, payload.Message.Type)
}

func TestSendMessageToStrangerIsRejected(t *testing.T) {
	f := newWSFixture(t)
	carol := f.dial(t, "carol")
	f.join(t, carol, "carol")

	send(t, carol, models.EventSendMessage, map[string]any{
		"recipientId": f.users["alice"].ID,
		"message":     "hello?",
	})

	frame := next(t, carol)
	assert.Equal(t, models.EventError, frame.Event)
	assert.JSONEq(t, `{"message":"You can only message friends"}`, string(frame.Data))
}

func TestEventsRequireJoin(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, "alice")

	send(t, alice, models.EventTyping, map[string]any{"recipientId": f.users["bob"].ID, "isTyping": true})

	frame := next(t, alice)
	assert.Equal(t, models.EventError, frame.Event)
	assert.JSONEq(t, `{"message":"Join before sending events"}`, string(frame.Data))
}

func TestJoinAsAnotherUserIsRejected(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, "alice")

	send(t, alice, models.EventJoin, map[string]any{"userId": f.users["bob"].ID})

	frame := next(t, alice)
	assert.Equal(t, models.EventError, frame.Event)
	_, ok := f.registry.Route(f.users["bob"].ID)
	assert.False(t, ok)
}

func TestTypingReachesFriend(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	f.join(t, bob, "bob")
	f.join(t, alice, "alice")

	online := next(t, bob)
	require.Equal(t, models.EventUserOnline, online.Event)

	send(t, alice, models.EventTyping, map[string]any{"recipientId": f.users["bob"].ID, "isTyping": true})

	frame := next(t, bob)
	assert.Equal(t, models.EventUserTyping, frame.Event)
	assert.JSONEq(t, `{"userId":1,"isTyping":true}`, string(frame.Data))
}

func TestDisconnectAnnouncesOffline(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	f.join(t, alice, "alice")
	f.join(t, bob, "bob")
	require.Equal(t, models.EventUserOnline, next(t, alice).Event)

	require.NoError(t, bob.Close())

	frame := next(t, alice)
	assert.Equal(t, models.EventUserOffline, frame.Event)
	assert.JSONEq(t, `{"userId":2}`, string(frame.Data))
}

func TestUndecodableFrameKeepsConnection(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	f.join(t, alice, "alice")
	f.join(t, bob, "bob")
	require.Equal(t, models.EventUserOnline, next(t, alice).Event)

	for _, raw := range []string{`{"event":1}`, `{"event":"join"`, `[]`} {
		require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(raw)))

		frame := next(t, bob)
		assert.Equal(t, models.EventError, frame.Event, raw)
		assert.JSONEq(t, `{"message":"Malformed event"}`, string(frame.Data))
	}

	_, ok := f.registry.Route(f.users["bob"].ID)
	assert.True(t, ok)

	send(t, bob, models.EventTyping, map[string]any{"recipientId": f.users["alice"].ID, "isTyping": true})
	assert.Equal(t, models.EventUserTyping, next(t, alice).Event)
}

func TestRegistryCloseDropsUnjoinedSocket(t *testing.T) {
	f := newWSFixture(t)
	idle := f.dial(t, "carol")

	f.registry.Close()

	require.NoError(t, idle.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := idle.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "socket should be closed, not idle")
	}
}
