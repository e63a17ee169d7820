package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finlearn/internal/database"
	"finlearn/internal/models"
)

const userColumns = `id, username, email, password_hash, email_verified, oauth_provider, oauth_subject,
	xp, level, daily_streak, longest_streak, last_active_date, last_streak_date, current_rank, created_at, updated_at`

// UserRepository handles database operations for users and their progression fields
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// Create inserts a new user, assigning an id when none is set
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Level < 1 {
		user.Level = 1
	}
	if user.CurrentRank == "" {
		user.CurrentRank = "NOVICE"
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, password_hash, email_verified, oauth_provider, oauth_subject,
			xp, level, daily_streak, longest_streak, current_rank, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, strings.ToLower(user.Email), user.PasswordHash, user.EmailVerified,
		user.OAuthProvider, user.OAuthSubject, user.XP, user.Level, user.DailyStreak, user.LongestStreak,
		user.CurrentRank, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.Email = strings.ToLower(user.Email)
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID, returning nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByIDForUpdate retrieves a user and locks the row for the rest of the transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?"+r.db.GetDialect().LockClause(), id)
}

// GetByEmail retrieves a user by email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(email))
}

// GetByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// List retrieves all users ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// IncrementXP adds amount to the stored xp in a single statement so concurrent
// grants cannot overwrite each other. The row is left alone when the sum would
// exceed maxXP. Returns false when no row was updated.
func (r *UserRepository) IncrementXP(ctx context.Context, id string, amount, maxXP int) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE users SET xp = xp + ?, updated_at = ? WHERE id = ? AND xp <= ?", amount, time.Now().UTC(), id, maxXP-amount)
	if err != nil {
		return false, fmt.Errorf("failed to increment xp: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read increment result: %w", err)
	}
	return rows > 0, nil
}

// UpdateProgression stores the derived level and rank and stamps activity
func (r *UserRepository) UpdateProgression(ctx context.Context, id string, level int, rank string, lastActive time.Time) error {
	query := `
		UPDATE users
		SET level = ?, current_rank = ?, last_active_date = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, level, rank, lastActive, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update progression: %w", err)
	}
	return nil
}

// UpdateStreak stores the streak fields of a user
func (r *UserRepository) UpdateStreak(ctx context.Context, id string, streak, longest int, lastActive *time.Time, lastStreakDay string) error {
	var day interface{}
	if lastStreakDay != "" {
		day = lastStreakDay
	}
	query := `
		UPDATE users
		SET daily_streak = ?, longest_streak = ?, last_active_date = ?, last_streak_date = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, streak, longest, lastActive, day, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// StatsPatch holds the optional fields of a manual stats update
type StatsPatch struct {
	XP          *int
	Level       *int
	DailyStreak *int
	CurrentRank *string
}

// ApplyStats writes the fields present in patch and stamps last_active_date
func (r *UserRepository) ApplyStats(ctx context.Context, id string, patch StatsPatch, now time.Time) (bool, error) {
	var (
		sets []string
		args []interface{}
	)
	if patch.XP != nil {
		sets = append(sets, "xp = ?")
		args = append(args, *patch.XP)
	}
	if patch.Level != nil {
		sets = append(sets, "level = ?")
		args = append(args, *patch.Level)
	}
	if patch.DailyStreak != nil {
		sets = append(sets, "daily_streak = ?")
		args = append(args, *patch.DailyStreak)
		sets = append(sets, "longest_streak = CASE WHEN longest_streak < ? THEN ? ELSE longest_streak END")
		args = append(args, *patch.DailyStreak, *patch.DailyStreak)
	}
	if patch.CurrentRank != nil {
		sets = append(sets, "current_rank = ?")
		args = append(args, *patch.CurrentRank)
	}
	sets = append(sets, "last_active_date = ?", "updated_at = ?")
	args = append(args, now, now, id)

	result, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("failed to update stats: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return rows > 0, nil
}

// SetPassword replaces a user's password hash
func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", passwordHash, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

// MarkEmailVerified flags the user's email as verified
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?", true, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}

// LinkOAuthProvider links an existing user to an OAuth provider
func (r *UserRepository) LinkOAuthProvider(ctx context.Context, id, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, email_verified = ?, updated_at = ?
		WHERE id = ? AND oauth_provider = ''
	`
	result, err := r.db.ExecContext(ctx, query, provider, subject, true, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}
	return nil
}
