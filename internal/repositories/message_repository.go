package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"locktheday/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error)
	Conversation(ctx context.Context, userID, friendID int) ([]models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID int) (int, error)
	CountUnread(ctx context.Context, receiverID int) (int, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a direct message.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content) VALUES ($1, $2, $3)
         RETURNING id, sender_id, receiver_id, content, created_at, read_at`,
		senderID, receiverID, content).StructScan(&msg)
	return msg, err
}

// Conversation returns messages between two users in both directions,
// oldest first.
func (r *MessageRepo) Conversation(ctx context.Context, userID, friendID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT * FROM messages
         WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
         ORDER BY created_at ASC`, userID, friendID)
	return msgs, err
}

// MarkRead stamps read_at on the sender's unread messages to the receiver.
// The WHERE read_at IS NULL guard keeps the stamp monotonic: a message is
// marked read exactly once and never unset. Returns the number of messages
// marked.
func (r *MessageRepo) MarkRead(ctx context.Context, senderID, receiverID int) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at=NOW()
         WHERE sender_id=$1 AND receiver_id=$2 AND read_at IS NULL`,
		senderID, receiverID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return int(count), nil
}

// CountUnread returns how many unread messages the receiver has.
func (r *MessageRepo) CountUnread(ctx context.Context, receiverID int) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM messages WHERE receiver_id=$1 AND read_at IS NULL`, receiverID)
	return n, err
}
