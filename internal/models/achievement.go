package models

import "time"

// Achievement is a badge earned by a user, at most one per type
type Achievement struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Color       string    `db:"color" json:"color"`
	Requirement string    `db:"requirement" json:"requirement"`
	EarnedAt    time.Time `db:"earned_at" json:"earnedAt"`
}
