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

const lessonColumns = "id, title, description, category, duration, xp_reward, created_at"

// LessonRepository handles database operations for the lesson catalog
type LessonRepository struct {
	db database.DBTX
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db database.DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LessonRepository) WithTx(tx *database.Tx) *LessonRepository {
	return &LessonRepository{db: tx}
}

// Create inserts a lesson, assigning an id when none is set
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	lesson.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO lessons (id, title, description, category, duration, xp_reward, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, lesson.ID, lesson.Title, lesson.Description, lesson.Category,
		lesson.Duration, lesson.XPReward, lesson.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

// GetByID retrieves a lesson, returning nil when absent
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	err := r.db.GetContext(ctx, lesson, "SELECT "+lessonColumns+" FROM lessons WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

// List retrieves all lessons, optionally filtered by category
func (r *LessonRepository) List(ctx context.Context, category string) ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	var err error
	if category == "" {
		err = r.db.SelectContext(ctx, &lessons, "SELECT "+lessonColumns+" FROM lessons ORDER BY created_at, title")
	} else {
		err = r.db.SelectContext(ctx, &lessons, "SELECT "+lessonColumns+" FROM lessons WHERE category = ? ORDER BY created_at, title", category)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}
