package models

import "time"

// MessageType classifies message content.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

// Message represents a direct message between two friends.
type Message struct {
	ID          int64       `db:"id" json:"id"`
	SenderID    int64       `db:"sender_id" json:"sender_id"`
	RecipientID int64       `db:"recipient_id" json:"recipient_id"`
	Content     string      `db:"content" json:"content"`
	Type        MessageType `db:"type" json:"type"`
	IsRead      bool        `db:"is_read" json:"is_read"`
	ReadAt      *time.Time  `db:"read_at" json:"read_at,omitempty"`
	IsEdited    bool        `db:"is_edited" json:"is_edited"`
	EditedAt    *time.Time  `db:"edited_at" json:"edited_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// Counterpart returns the other party of m as seen by userID.
func (m Message) Counterpart(userID int64) int64 {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// MessageView is a message enriched with its sender's brief.
type MessageView struct {
	Message
	Sender *PublicUser `json:"sender,omitempty"`
}
