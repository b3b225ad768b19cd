package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-backend/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for thread messages.
type MessageRepository interface {
	Create(ctx context.Context, threadID int, senderID int, text string) (models.Message, error)
	ListForThread(ctx context.Context, threadID int, limit int, offset int) ([]models.Message, int, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	SetReadStatus(ctx context.Context, messageID int, isRead bool) (models.Message, error)
	CountUnread(ctx context.Context, userID int) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, thread_id, sender_id, text, is_read, created_at, updated_at`

// Create appends an unread message to a thread and bumps the thread's
// updated_at, both inside one transaction.
func (r *MessageRepo) Create(ctx context.Context, threadID int, senderID int, text string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var msg models.Message
	if err := tx.QueryRowxContext(ctx, `INSERT INTO messages (thread_id, sender_id, text) VALUES ($1, $2, $3)
        RETURNING `+messageColumns, threadID, senderID, text).StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE threads SET updated_at=NOW() WHERE id=$1`, threadID); err != nil {
		return models.Message{}, err
	}

	return msg, tx.Commit()
}

// ListForThread returns a page of thread messages, oldest first, along with
// the total count.
func (r *MessageRepo) ListForThread(ctx context.Context, threadID int, limit int, offset int) ([]models.Message, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE thread_id=$1`, threadID); err != nil {
		return nil, 0, err
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE thread_id=$1
        ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`, threadID, limit, offset)
	return msgs, total, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SetReadStatus updates only the read flag and updated_at. Setting the same
// value twice is a no-op, not an error.
func (r *MessageRepo) SetReadStatus(ctx context.Context, messageID int, isRead bool) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET is_read=$2, updated_at=NOW() WHERE id=$1
        RETURNING `+messageColumns, messageID, isRead).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// CountUnread counts unread messages addressed to the user across all
// threads they participate in. Messages the user authored never count.
func (r *MessageRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages m
        JOIN threads t ON t.id = m.thread_id
        WHERE m.is_read = FALSE
        AND m.sender_id <> $1
        AND (t.user1_id = $1 OR t.user2_id = $1)`, userID)
	return count, err
}
