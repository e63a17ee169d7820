package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"finlearn/internal/database"
	"finlearn/internal/models"
)

const progressColumns = "id, user_id, lesson_id, completed, xp_earned, completed_at"

// ProgressRepository handles lesson completion records
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ProgressRepository) WithTx(tx *database.Tx) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

// Upsert creates the (user, lesson) row or updates it in place on retake
func (r *ProgressRepository) Upsert(ctx context.Context, p *models.EducationProgress) (*models.EducationProgress, error) {
	query := r.db.GetDialect().Upsert("education_progress",
		[]string{"id", "user_id", "lesson_id", "completed", "xp_earned", "completed_at"},
		[]string{"user_id", "lesson_id"},
		[]string{"completed", "xp_earned", "completed_at"},
	)
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), p.UserID, p.LessonID, p.Completed, p.XPEarned, p.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert progress: %w", err)
	}

	stored, err := r.Get(ctx, p.UserID, p.LessonID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("progress row missing after upsert")
	}
	return stored, nil
}

// Get retrieves the progress row for a user and lesson, returning nil when absent
func (r *ProgressRepository) Get(ctx context.Context, userID, lessonID string) (*models.EducationProgress, error) {
	p := &models.EducationProgress{}
	err := r.db.GetContext(ctx, p, "SELECT "+progressColumns+" FROM education_progress WHERE user_id = ? AND lesson_id = ?", userID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// ListByUser retrieves every progress row of a user
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.EducationProgress, error) {
	rows := []models.EducationProgress{}
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+progressColumns+" FROM education_progress WHERE user_id = ? ORDER BY completed_at, lesson_id", userID); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return rows, nil
}

// CountCompleted returns how many lessons the user has completed
func (r *ProgressRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM education_progress WHERE user_id = ? AND completed = ?", userID, true); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return n, nil
}

// SumXPEarned returns the historical total of per-lesson XP for a user
func (r *ProgressRepository) SumXPEarned(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COALESCE(SUM(xp_earned), 0) FROM education_progress WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to sum lesson xp: %w", err)
	}
	return n, nil
}
