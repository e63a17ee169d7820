package models

import "time"

// EducationProgress records a user's completion of one lesson
type EducationProgress struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"userId"`
	LessonID    string     `db:"lesson_id" json:"lessonId"`
	Completed   bool       `db:"completed" json:"completed"`
	XPEarned    int        `db:"xp_earned" json:"xpEarned"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
}

// UserSkillTree tracks percentage progress through a skill tree
type UserSkillTree struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	SkillTreeID string    `db:"skill_tree_id" json:"skillTreeId"`
	Progress    int       `db:"progress" json:"progress"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// XPGrant is the ledger row written for every successful XP award
type XPGrant struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	Amount         int       `db:"amount" json:"amount"`
	IdempotencyKey *string   `db:"idempotency_key" json:"idempotencyKey,omitempty"`
	NewXP          int       `db:"new_xp" json:"newXp"`
	NewLevel       int       `db:"new_level" json:"newLevel"`
	LeveledUp      bool      `db:"leveled_up" json:"leveledUp"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
