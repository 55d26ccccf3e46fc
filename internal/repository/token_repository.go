package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Typed refresh-token failures. The session gateway treats only
// ErrTokenReused as credential corruption: a revoked token showing up
// again means the raw value leaked or is being replayed. A token that
// simply does not exist or has expired is a logged-out session, never
// an attack.
var (
	ErrTokenReused  = errors.New("refresh token already used")
	ErrTokenExpired = errors.New("refresh token expired")
)

// TokenRepo persists/validates refresh tokens (single 'token_hash'
// column; only the SHA-256 of the raw token is ever stored).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning userID for a live token. Failure
// modes are kept distinct: unknown hash is ErrNotFound, an expired
// token is ErrTokenExpired, and a revoked-but-presented token is
// ErrTokenReused.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		// The owner is still reported so the caller can revoke the
		// rest of that user's sessions.
		return userID, ErrTokenReused
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrTokenExpired
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of a user's active tokens. Called on
// logout-everywhere and whenever reuse is detected, so a stolen token
// cannot keep a parallel session alive.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
