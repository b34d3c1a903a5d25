package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"friend-chat-service/internal/models"
)

// UserRepository abstracts the user directory and the friends relation.
type UserRepository interface {
	CreateUser(ctx context.Context, username string) (models.User, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	BulkUsers(ctx context.Context, ids []int64) ([]models.PublicUser, error)
	SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]models.PublicUser, error)
	UpdateStatus(ctx context.Context, userID int64, status models.UserStatus) (models.User, error)
	ListFriends(ctx context.Context, userID int64) ([]models.PublicUser, error)
	AreFriends(ctx context.Context, userID int64, friendID int64) (bool, error)
	RemoveFriendship(ctx context.Context, userID int64, friendID int64) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const publicUserColumns = `id, username, status, last_seen`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateUser inserts a directory entry.
func (r *UserRepo) CreateUser(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `INSERT INTO users (username) VALUES ($1) RETURNING id, username, status, last_seen, created_at`, username)
	if isUniqueViolation(err) {
		return models.User{}, ErrUsernameTaken
	}
	return user, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, status, last_seen, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsers returns briefs for the given ids; unknown ids are skipped.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []int64) ([]models.PublicUser, error) {
	if len(ids) == 0 {
		return []models.PublicUser{}, nil
	}
	var users []models.PublicUser
	err := r.db.SelectContext(ctx, &users, `SELECT `+publicUserColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return users, err
}

// SearchUsers matches a case-insensitive substring of the username.
func (r *UserRepo) SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]models.PublicUser, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	users := []models.PublicUser{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+publicUserColumns+` FROM users
        WHERE id <> $1 AND lower(username) LIKE $2 ESCAPE '\'
        ORDER BY username ASC
        LIMIT $3`, excludeID, pattern, limit)
	return users, err
}

// UpdateStatus sets the durable status and refreshes last_seen.
func (r *UserRepo) UpdateStatus(ctx context.Context, userID int64, status models.UserStatus) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `UPDATE users SET status=$2, last_seen=NOW() WHERE id=$1
        RETURNING id, username, status, last_seen, created_at`, userID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListFriends returns briefs of every friend of the user.
func (r *UserRepo) ListFriends(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	friends := []models.PublicUser{}
	err := r.db.SelectContext(ctx, &friends, `SELECT u.id, u.username, u.status, u.last_seen FROM friendships f
        INNER JOIN users u ON u.id = f.friend_id
        WHERE f.user_id=$1
        ORDER BY u.username ASC`, userID)
	return friends, err
}

// AreFriends checks the friend edge.
func (r *UserRepo) AreFriends(ctx context.Context, userID int64, friendID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id=$1 AND friend_id=$2)`, userID, friendID)
	return exists, err
}

// RemoveFriendship deletes both directions of the edge in one statement.
func (r *UserRepo) RemoveFriendship(ctx context.Context, userID int64, friendID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`, userID, friendID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}
