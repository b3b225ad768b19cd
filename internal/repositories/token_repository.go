package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository manages opaque bearer tokens, one live token per user.
type TokenRepository interface {
	GetOrCreate(ctx context.Context, userID int) (string, error)
	UserIDForToken(ctx context.Context, key string) (int, error)
}

// TokenRepo is a sqlx implementation of TokenRepository.
type TokenRepo struct {
	db *sqlx.DB
}

// NewTokenRepo constructs a TokenRepo.
func NewTokenRepo(db *sqlx.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// GetOrCreate returns the user's token, minting one on first login.
func (r *TokenRepo) GetOrCreate(ctx context.Context, userID int) (string, error) {
	var key string
	err := r.db.GetContext(ctx, &key, `SELECT key FROM auth_tokens WHERE user_id=$1`, userID)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	key, err = generateTokenKey()
	if err != nil {
		return "", err
	}

	// A concurrent first login may have inserted already; fall back to it.
	if _, err := r.db.ExecContext(ctx, `INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING`, key, userID); err != nil {
		return "", err
	}
	if err := r.db.GetContext(ctx, &key, `SELECT key FROM auth_tokens WHERE user_id=$1`, userID); err != nil {
		return "", err
	}
	return key, nil
}

// UserIDForToken resolves a bearer token to the owning user.
func (r *TokenRepo) UserIDForToken(ctx context.Context, key string) (int, error) {
	var userID int
	err := r.db.GetContext(ctx, &userID, `SELECT user_id FROM auth_tokens WHERE key=$1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenNotFound
	}
	return userID, err
}

func generateTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
