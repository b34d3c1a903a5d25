package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"friend-chat-service/internal/models"
)

// FriendRequestRepository abstracts friend request persistence.
type FriendRequestRepository interface {
	CreateRequest(ctx context.Context, senderID int64, recipientID int64, message string) (models.FriendRequest, error)
	FindPendingBetween(ctx context.Context, userID int64, otherID int64) (models.FriendRequest, error)
	ListPendingReceived(ctx context.Context, userID int64) ([]models.FriendRequest, error)
	ListPendingSent(ctx context.Context, userID int64) ([]models.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error)
	RejectRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error)
}

// FriendRequestRepo is a sqlx implementation of FriendRequestRepository.
type FriendRequestRepo struct {
	db *sqlx.DB
}

// NewFriendRequestRepo constructs a FriendRequestRepo.
func NewFriendRequestRepo(db *sqlx.DB) *FriendRequestRepo {
	return &FriendRequestRepo{db: db}
}

const friendRequestColumns = `id, sender_id, recipient_id, status, message, created_at, updated_at`

// CreateRequest inserts a pending request. The pending-pair index turns a
// concurrent duplicate in either direction into ErrPendingRequestExists.
func (r *FriendRequestRepo) CreateRequest(ctx context.Context, senderID int64, recipientID int64, message string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req, `INSERT INTO friend_requests (sender_id, recipient_id, message) VALUES ($1, $2, $3)
        RETURNING `+friendRequestColumns, senderID, recipientID, message)
	if isUniqueViolation(err) {
		return models.FriendRequest{}, ErrPendingRequestExists
	}
	return req, err
}

// FindPendingBetween returns the pending request for the unordered pair.
func (r *FriendRequestRepo) FindPendingBetween(ctx context.Context, userID int64, otherID int64) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req, `SELECT `+friendRequestColumns+` FROM friend_requests
        WHERE status='pending'
        AND LEAST(sender_id, recipient_id) = LEAST($1::bigint, $2::bigint)
        AND GREATEST(sender_id, recipient_id) = GREATEST($1::bigint, $2::bigint)`, userID, otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrFriendRequestNotFound
	}
	return req, err
}

// ListPendingReceived returns pending requests addressed to the user, newest first.
func (r *FriendRequestRepo) ListPendingReceived(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	reqs := []models.FriendRequest{}
	err := r.db.SelectContext(ctx, &reqs, `SELECT `+friendRequestColumns+` FROM friend_requests
        WHERE recipient_id=$1 AND status='pending'
        ORDER BY created_at DESC, id DESC`, userID)
	return reqs, err
}

// ListPendingSent returns pending requests sent by the user, newest first.
func (r *FriendRequestRepo) ListPendingSent(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	reqs := []models.FriendRequest{}
	err := r.db.SelectContext(ctx, &reqs, `SELECT `+friendRequestColumns+` FROM friend_requests
        WHERE sender_id=$1 AND status='pending'
        ORDER BY created_at DESC, id DESC`, userID)
	return reqs, err
}

// AcceptRequest moves a pending request addressed to recipientID to accepted
// and inserts both friendship rows in the same transaction.
func (r *FriendRequestRepo) AcceptRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.FriendRequest{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var req models.FriendRequest
	if req, err = transition(ctx, tx, requestID, recipientID, models.RequestAccepted); err != nil {
		return models.FriendRequest{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)
        ON CONFLICT (user_id, friend_id) DO NOTHING`, req.SenderID, req.RecipientID); err != nil {
		return models.FriendRequest{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.FriendRequest{}, err
	}
	return req, nil
}

// RejectRequest moves a pending request addressed to recipientID to rejected.
func (r *FriendRequestRepo) RejectRequest(ctx context.Context, requestID int64, recipientID int64) (models.FriendRequest, error) {
	return transition(ctx, r.db, requestID, recipientID, models.RequestRejected)
}

func transition(ctx context.Context, q sqlx.QueryerContext, requestID int64, recipientID int64, status models.FriendRequestStatus) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := sqlx.GetContext(ctx, q, &req, `UPDATE friend_requests SET status=$3, updated_at=NOW()
        WHERE id=$1 AND recipient_id=$2 AND status='pending'
        RETURNING `+friendRequestColumns, requestID, recipientID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotPending
	}
	return req, err
}
