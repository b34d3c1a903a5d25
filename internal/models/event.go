package models

import "time"

// Event is a frame on the realtime channel.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventTyping         = "typing"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
	EventReceiveMessage = "receive_message"
	EventUserTyping     = "user_typing"
	EventMessageSent    = "message_sent"
	EventError          = "error"
)

// PresencePayload carries the identity for user_online / user_offline.
type PresencePayload struct {
	UserID int64 `json:"userId"`
}

// TypingPayload is delivered as user_typing.
type TypingPayload struct {
	UserID   int64 `json:"userId"`
	IsTyping bool  `json:"isTyping"`
}

// ReceiveMessagePayload is delivered as receive_message.
type ReceiveMessagePayload struct {
	SenderID  int64     `json:"senderId"`
	Message   Message   `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
