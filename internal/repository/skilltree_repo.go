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

const skillTreeColumns = "id, user_id, skill_tree_id, progress, updated_at"

// SkillTreeRepository handles per-user skill tree progress
type SkillTreeRepository struct {
	db database.DBTX
}

// NewSkillTreeRepository creates a new skill tree repository
func NewSkillTreeRepository(db database.DBTX) *SkillTreeRepository {
	return &SkillTreeRepository{db: db}
}

// Upsert stores progress for (user, skill tree) and returns the stored row
func (r *SkillTreeRepository) Upsert(ctx context.Context, userID, skillTreeID string, progress int) (*models.UserSkillTree, error) {
	query := r.db.GetDialect().Upsert("user_skill_trees",
		[]string{"id", "user_id", "skill_tree_id", "progress", "updated_at"},
		[]string{"user_id", "skill_tree_id"},
		[]string{"progress", "updated_at"},
	)
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, skillTreeID, progress, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to upsert skill tree: %w", err)
	}

	return r.Get(ctx, userID, skillTreeID)
}

// Get retrieves one skill tree record, returning nil when absent
func (r *SkillTreeRepository) Get(ctx context.Context, userID, skillTreeID string) (*models.UserSkillTree, error) {
	st := &models.UserSkillTree{}
	err := r.db.GetContext(ctx, st, "SELECT "+skillTreeColumns+" FROM user_skill_trees WHERE user_id = ? AND skill_tree_id = ?", userID, skillTreeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill tree: %w", err)
	}
	return st, nil
}

// ListByUser retrieves every skill tree record of a user
func (r *SkillTreeRepository) ListByUser(ctx context.Context, userID string) ([]models.UserSkillTree, error) {
	out := []models.UserSkillTree{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+skillTreeColumns+" FROM user_skill_trees WHERE user_id = ? ORDER BY skill_tree_id", userID); err != nil {
		return nil, fmt.Errorf("failed to list skill trees: %w", err)
	}
	return out, nil
}
