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

const achievementColumns = "id, user_id, type, title, description, color, requirement, earned_at"

// AchievementRepository handles earned achievements
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *AchievementRepository) WithTx(tx *database.Tx) *AchievementRepository {
	return &AchievementRepository{db: tx}
}

// Get retrieves the achievement of the given type for a user, returning nil when absent
func (r *AchievementRepository) Get(ctx context.Context, userID, achievementType string) (*models.Achievement, error) {
	a := &models.Achievement{}
	err := r.db.GetContext(ctx, a, "SELECT "+achievementColumns+" FROM achievements WHERE user_id = ? AND type = ?", userID, achievementType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return a, nil
}

// ListByUser retrieves a user's achievements in the order they were earned
func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	out := []models.Achievement{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+achievementColumns+" FROM achievements WHERE user_id = ? ORDER BY earned_at, type", userID); err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return out, nil
}

// InsertIfAbsent stores a new achievement unless the user already has one of
// that type. It returns the stored row and whether this call created it. A
// concurrent insert of the same type loses on the unique key and reads the
// winner's row back.
func (r *AchievementRepository) InsertIfAbsent(ctx context.Context, a *models.Achievement) (*models.Achievement, bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}

	query := r.db.GetDialect().InsertIgnore("achievements",
		[]string{"id", "user_id", "type", "title", "description", "color", "requirement", "earned_at"},
		[]string{"user_id", "type"},
	)
	result, err := r.db.ExecContext(ctx, query, a.ID, a.UserID, a.Type, a.Title, a.Description, a.Color, a.Requirement, a.EarnedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert achievement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read insert result: %w", err)
	}

	stored, err := r.Get(ctx, a.UserID, a.Type)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("achievement %q missing after insert", a.Type)
	}
	return stored, rows > 0, nil
}
