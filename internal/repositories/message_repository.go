package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"friend-chat-service/internal/models"
)

// ConversationRow is the latest message exchanged with one counterpart plus
// the number of unread messages that counterpart sent.
type ConversationRow struct {
	CounterpartID int64 `db:"counterpart_id"`
	models.Message
	UnreadCount int `db:"unread_count"`
}

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID int64, recipientID int64, content string, msgType models.MessageType) (models.Message, error)
	ListConversation(ctx context.Context, userID int64, otherID int64, limit int, offset int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, readerID int64, senderID int64) (int64, error)
	MarkRead(ctx context.Context, messageID int64, readerID int64) (models.Message, error)
	EditMessage(ctx context.Context, messageID int64, senderID int64, content string) (models.Message, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	ConversationSummaries(ctx context.Context, userID int64) ([]ConversationRow, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, recipient_id, content, type, is_read, read_at, is_edited, edited_at, created_at`

// CreateMessage stores a message.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID int64, recipientID int64, content string, msgType models.MessageType) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `INSERT INTO messages (sender_id, recipient_id, content, type) VALUES ($1, $2, $3, $4)
        RETURNING `+messageColumns, senderID, recipientID, content, msgType)
	return msg, err
}

// ListConversation returns messages between the pair, newest first.
func (r *MessageRepo) ListConversation(ctx context.Context, userID int64, otherID int64, limit int, offset int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE LEAST(sender_id, recipient_id) = LEAST($1::bigint, $2::bigint)
        AND GREATEST(sender_id, recipient_id) = GREATEST($1::bigint, $2::bigint)
        ORDER BY created_at DESC, id DESC
        LIMIT $3 OFFSET $4`, userID, otherID, limit, offset)
	return msgs, err
}

// MarkConversationRead marks every unread message from senderID to readerID.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, readerID int64, senderID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE, read_at = NOW()
        WHERE recipient_id=$1 AND sender_id=$2 AND is_read = FALSE`, readerID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkRead marks one message read if it is addressed to readerID and unread.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int64, readerID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages SET is_read = TRUE, read_at = NOW()
        WHERE id=$1 AND recipient_id=$2 AND is_read = FALSE
        RETURNING `+messageColumns, messageID, readerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// EditMessage replaces the content of a message owned by senderID.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int64, senderID int64, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages SET content=$3, is_edited = TRUE, edited_at = NOW()
        WHERE id=$1 AND sender_id=$2
        RETURNING `+messageColumns, messageID, senderID, content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UnreadCount counts unread messages addressed to the user.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE recipient_id=$1 AND is_read = FALSE`, userID)
	return count, err
}

// ConversationSummaries returns one row per counterpart, unordered.
func (r *MessageRepo) ConversationSummaries(ctx context.Context, userID int64) ([]ConversationRow, error) {
	rows := []ConversationRow{}
	err := r.db.SelectContext(ctx, &rows, `SELECT DISTINCT ON (t.counterpart_id)
            t.counterpart_id, t.id, t.sender_id, t.recipient_id, t.content, t.type, t.is_read, t.read_at, t.is_edited, t.edited_at, t.created_at,
            (SELECT COUNT(*) FROM messages u
                WHERE u.recipient_id = $1 AND u.sender_id = t.counterpart_id AND u.is_read = FALSE) AS unread_count
        FROM (
            SELECT m.*, CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS counterpart_id
            FROM messages m
            WHERE m.sender_id = $1 OR m.recipient_id = $1
        ) t
        ORDER BY t.counterpart_id, t.created_at DESC, t.id DESC`, userID)
	return rows, err
}
