package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finlearn/internal/database"
	"finlearn/internal/models"
)

// TokenRepository stores single-use email verification and password reset tokens
type TokenRepository struct {
	db database.DBTX
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a token
func (r *TokenRepository) Create(ctx context.Context, t *models.AuthToken) error {
	t.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO auth_tokens (token, user_id, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, t.Token, t.UserID, t.Purpose, t.ExpiresAt.UTC(), t.CreatedAt); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// Get retrieves a token of the given purpose, returning nil when absent
func (r *TokenRepository) Get(ctx context.Context, token, purpose string) (*models.AuthToken, error) {
	t := &models.AuthToken{}
	query := "SELECT token, user_id, purpose, expires_at, used_at, created_at FROM auth_tokens WHERE token = ? AND purpose = ?"
	err := r.db.GetContext(ctx, t, query, token, purpose)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return t, nil
}

// MarkUsed consumes a token. It returns false when the token was already used.
func (r *TokenRepository) MarkUsed(ctx context.Context, token string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE auth_tokens SET used_at = ? WHERE token = ? AND used_at IS NULL", time.Now().UTC(), token)
	if err != nil {
		return false, fmt.Errorf("failed to mark token used: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read token update: %w", err)
	}
	return rows > 0, nil
}

// DeleteExpired removes tokens that expired before now or were already used
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE expires_at < ? OR used_at IS NOT NULL", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
