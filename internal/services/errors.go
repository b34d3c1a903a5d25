package services

import "errors"

// Kind classifies a client-visible failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
)

// Error is a failure the caller can act on. Anything that is not an *Error
// is treated as internal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// KindOf extracts the kind of a service error.
func KindOf(err error) (Kind, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return 0, false
}

func validationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func notFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func conflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func forbiddenError(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }

const (
	MsgAlreadyFriends        = "You are already friends with this user"
	MsgRequestAlreadySent    = "Friend request already sent"
	MsgRequestAlreadyPending = "This user has already sent you a friend request"
	MsgRequestNotFound       = "Friend request not found or already processed"
	MsgNotFriends            = "You can only message friends"
	MsgUserNotFound          = "User not found"
)
