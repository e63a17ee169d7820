package models

import "time"

// Lesson is an entry in the lesson catalog
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Duration    string    `db:"duration" json:"duration"`
	XPReward    int       `db:"xp_reward" json:"xpReward"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
