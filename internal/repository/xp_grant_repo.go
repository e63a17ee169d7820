package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finlearn/internal/database"
	"finlearn/internal/models"
)

const xpGrantColumns = "id, user_id, amount, idempotency_key, new_xp, new_level, leveled_up, created_at"

// XPGrantRepository records XP awards so client retries can be answered without crediting twice
type XPGrantRepository struct {
	db database.DBTX
}

// NewXPGrantRepository creates a new XP grant repository
func NewXPGrantRepository(db database.DBTX) *XPGrantRepository {
	return &XPGrantRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *XPGrantRepository) WithTx(tx *database.Tx) *XPGrantRepository {
	return &XPGrantRepository{db: tx}
}

// Create inserts a grant row
func (r *XPGrantRepository) Create(ctx context.Context, g *models.XPGrant) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO xp_grants (id, user_id, amount, idempotency_key, new_xp, new_level, leveled_up, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, g.ID, g.UserID, g.Amount, g.IdempotencyKey, g.NewXP, g.NewLevel, g.LeveledUp, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record xp grant: %w", err)
	}
	return nil
}

// GetByKey retrieves the grant recorded under an idempotency key, returning nil when absent
func (r *XPGrantRepository) GetByKey(ctx context.Context, userID, key string) (*models.XPGrant, error) {
	g := &models.XPGrant{}
	err := r.db.GetContext(ctx, g, "SELECT "+xpGrantColumns+" FROM xp_grants WHERE user_id = ? AND idempotency_key = ?", userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get xp grant: %w", err)
	}
	return g, nil
}

// ListByUser retrieves a user's grant history, newest first
func (r *XPGrantRepository) ListByUser(ctx context.Context, userID string) ([]models.XPGrant, error) {
	out := []models.XPGrant{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+xpGrantColumns+" FROM xp_grants WHERE user_id = ? ORDER BY created_at DESC", userID); err != nil {
		return nil, fmt.Errorf("failed to list xp grants: %w", err)
	}
	return out, nil
}
