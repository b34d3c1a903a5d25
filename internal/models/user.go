package models

import "time"

// UserStatus is the durable, explicitly set availability of a user.
type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
	StatusAway    UserStatus = "away"
)

// Valid reports whether s is one of the accepted statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway:
		return true
	}
	return false
}

// User is a directory entry. Friends are kept in the friendships table and
// loaded separately.
type User struct {
	ID        int64      `db:"id" json:"id"`
	Username  string     `db:"username" json:"username"`
	Status    UserStatus `db:"status" json:"status"`
	LastSeen  time.Time  `db:"last_seen" json:"last_seen"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// PublicUser is the brief exposed to other users.
type PublicUser struct {
	ID       int64      `db:"id" json:"id"`
	Username string     `db:"username" json:"username"`
	Status   UserStatus `db:"status" json:"status"`
	LastSeen time.Time  `db:"last_seen" json:"last_seen"`
}

// Public returns the brief for u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Status: u.Status, LastSeen: u.LastSeen}
}
