package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameTaken         = errors.New("username taken")
	ErrFriendshipNotFound    = errors.New("friendship not found")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrPendingRequestExists  = errors.New("pending friend request exists")
	ErrRequestNotPending     = errors.New("friend request not pending")
	ErrMessageNotFound       = errors.New("message not found")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
