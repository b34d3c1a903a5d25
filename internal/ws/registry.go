package ws

import (
	"sync"

	"github.com/sirupsen/logrus"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/models"
	"friend-chat-service/internal/observability"
)

// Conn is the part of *websocket.Conn the registry writes through.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live connection. Writes are serialized because a websocket
// allows a single concurrent writer.
type Client struct {
	conn Conn
	info ConnInfo

	writeMu sync.Mutex

	// guarded by Registry.mu
	joined bool
	userID int64
}

// NewClient wraps a connection.
func NewClient(conn Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// Send writes one event frame.
func (c *Client) Send(event string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(models.Event{Event: event, Data: payload})
}

// Registry maps each online identity to its current connection. It also
// holds every open connection, joined or not, so Close can drop them all.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
	conns   map[*Client]struct{}
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[int64]*Client),
		conns:   make(map[*Client]struct{}),
	}
}

// Attach records an upgraded connection. It reports false once the registry
// is closed, in which case the caller must drop the connection.
func (r *Registry) Attach(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.conns[client] = struct{}{}
	return true
}

// Join registers client as the connection for userID, replacing any previous
// one. user_online goes out only when userID was not already present.
func (r *Registry) Join(userID int64, client *Client) {
	r.mu.Lock()
	_, present := r.clients[userID]
	client.joined = true
	client.userID = userID
	r.clients[userID] = client
	online := len(r.clients)
	r.mu.Unlock()

	observability.SetOnlineUsers(online)
	if present {
		return
	}
	r.broadcast(userID, models.EventUserOnline, models.PresencePayload{UserID: userID})
}

// Route returns the current connection for userID.
func (r *Registry) Route(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[userID]
	return client, ok
}

// Disconnect removes client if it is still the current entry for its
// identity and announces user_offline. Superseded clients are ignored.
func (r *Registry) Disconnect(client *Client) {
	r.mu.Lock()
	delete(r.conns, client)
	if !client.joined {
		r.mu.Unlock()
		return
	}
	userID := client.userID
	current, ok := r.clients[userID]
	if !ok || current != client {
		r.mu.Unlock()
		return
	}
	delete(r.clients, userID)
	online := len(r.clients)
	r.mu.Unlock()

	observability.SetOnlineUsers(online)
	r.broadcast(userID, models.EventUserOffline, models.PresencePayload{UserID: userID})
}

// NotifyTyping forwards a typing indicator to recipientID if connected.
func (r *Registry) NotifyTyping(userID, recipientID int64, isTyping bool) {
	r.Deliver(recipientID, models.EventUserTyping, models.TypingPayload{UserID: userID, IsTyping: isTyping})
}

// Deliver sends an event to userID and reports whether a live connection
// accepted it.
func (r *Registry) Deliver(userID int64, event string, payload any) bool {
	client, ok := r.Route(userID)
	if !ok {
		return false
	}
	if err := client.Send(event, payload); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
			"conn_id": client.info.ConnID,
		}).WithError(err).Warn("websocket write failed")
		return false
	}
	observability.IncWSEvent(event)
	return true
}

// OnlineCount returns the number of present identities.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close drops every connection, joined or not. Later Attach calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	targets := r.conns
	for _, client := range r.clients {
		targets[client] = struct{}{}
	}
	r.clients = make(map[int64]*Client)
	r.conns = make(map[*Client]struct{})
	r.mu.Unlock()

	for client := range targets {
		_ = client.conn.Close()
	}
	observability.SetOnlineUsers(0)
}

// broadcast sends to every present identity except the subject.
func (r *Registry) broadcast(subject int64, event string, payload any) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for id, client := range r.clients {
		if id != subject {
			targets = append(targets, client)
		}
	}
	r.mu.RUnlock()

	for _, client := range targets {
		if err := client.Send(event, payload); err != nil {
			logger.Log.WithField("conn_id", client.info.ConnID).WithError(err).Debug("presence broadcast failed")
			continue
		}
		observability.IncWSEvent(event)
	}
}
