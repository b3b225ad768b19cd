package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"

	"chat-backend/internal/models"
)

var ErrThreadNotFound = errors.New("thread not found")

// ThreadRepository abstracts thread persistence.
type ThreadRepository interface {
	ResolveOrCreate(ctx context.Context, userID int, otherID int) (models.Thread, bool, error)
	GetThread(ctx context.Context, threadID int) (models.Thread, error)
	ListForUser(ctx context.Context, userID int, limit int, offset int) ([]models.Thread, int, error)
	DeleteForUser(ctx context.Context, threadID int, userID int) error
	IsParticipant(ctx context.Context, threadID int, userID int) (bool, error)
}

// ThreadRepo is a sqlx implementation of ThreadRepository.
type ThreadRepo struct {
	db *sqlx.DB
}

// NewThreadRepo constructs a ThreadRepo.
func NewThreadRepo(db *sqlx.DB) *ThreadRepo {
	return &ThreadRepo{db: db}
}

const threadColumns = `id, user1_id, user2_id, created_at, updated_at`

// ResolveOrCreate returns the unique thread between two users, creating it on
// first contact. The pair is normalized before hitting the table and the
// insert runs inside a transaction with ON CONFLICT, so two concurrent calls
// for the same pair both land on the same row; the loser reports created=false.
func (r *ThreadRepo) ResolveOrCreate(ctx context.Context, userID int, otherID int) (models.Thread, bool, error) {
	ctx, span := otel.Tracer("chat-backend/repositories").Start(ctx, "thread.resolve_or_create")
	defer span.End()

	if userID == otherID {
		return models.Thread{}, false, errors.New("cannot create thread with self")
	}
	user1, user2 := normalizePair(userID, otherID)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Thread{}, false, err
	}
	defer tx.Rollback()

	var thread models.Thread
	err = tx.GetContext(ctx, &thread, `SELECT `+threadColumns+` FROM threads WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if err == nil {
		return thread, false, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Thread{}, false, err
	}

	err = tx.QueryRowxContext(ctx, `INSERT INTO threads (user1_id, user2_id) VALUES ($1, $2)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING `+threadColumns, user1, user2).StructScan(&thread)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race to a concurrent insert; the row exists now.
		if err := tx.GetContext(ctx, &thread, `SELECT `+threadColumns+` FROM threads WHERE user1_id=$1 AND user2_id=$2`, user1, user2); err != nil {
			return models.Thread{}, false, err
		}
		return thread, false, tx.Commit()
	}
	if err != nil {
		return models.Thread{}, false, err
	}

	return thread, true, tx.Commit()
}

// GetThread fetches a thread by id.
func (r *ThreadRepo) GetThread(ctx context.Context, threadID int) (models.Thread, error) {
	var thread models.Thread
	err := r.db.GetContext(ctx, &thread, `SELECT `+threadColumns+` FROM threads WHERE id=$1`, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Thread{}, ErrThreadNotFound
	}
	return thread, err
}

// ListForUser returns a page of the user's threads, most recently active
// first, along with the total count for pagination.
func (r *ThreadRepo) ListForUser(ctx context.Context, userID int, limit int, offset int) ([]models.Thread, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM threads WHERE user1_id=$1 OR user2_id=$1`, userID); err != nil {
		return nil, 0, err
	}

	var threads []models.Thread
	err := r.db.SelectContext(ctx, &threads, `SELECT `+threadColumns+` FROM threads
        WHERE user1_id=$1 OR user2_id=$1
        ORDER BY updated_at DESC
        LIMIT $2 OFFSET $3`, userID, limit, offset)
	return threads, total, err
}

// DeleteForUser deletes a thread the user participates in, cascading to its
// messages. Threads outside the user's set are indistinguishable from
// missing ones.
func (r *ThreadRepo) DeleteForUser(ctx context.Context, threadID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE id=$1 AND (user1_id=$2 OR user2_id=$2)`, threadID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// IsParticipant checks whether a user belongs to the thread.
func (r *ThreadRepo) IsParticipant(ctx context.Context, threadID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM threads WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`, threadID, userID)
	return exists, err
}

func normalizePair(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
