package models

import "time"

// FriendRequestStatus tracks the lifecycle of a friend request.
type FriendRequestStatus string

const (
	RequestPending  FriendRequestStatus = "pending"
	RequestAccepted FriendRequestStatus = "accepted"
	RequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed invitation to become friends.
type FriendRequest struct {
	ID          int64               `db:"id" json:"id"`
	SenderID    int64               `db:"sender_id" json:"sender_id"`
	RecipientID int64               `db:"recipient_id" json:"recipient_id"`
	Status      FriendRequestStatus `db:"status" json:"status"`
	Message     string              `db:"message" json:"message,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// FriendRequestView is a request enriched with the counterpart's brief.
type FriendRequestView struct {
	FriendRequest
	Sender    *PublicUser `json:"sender,omitempty"`
	Recipient *PublicUser `json:"recipient,omitempty"`
}
