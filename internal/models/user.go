package models

import "time"

// User represents a learner account and its progression state
type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	EmailVerified  bool       `db:"email_verified" json:"emailVerified"`
	OAuthProvider  string     `db:"oauth_provider" json:"oauthProvider,omitempty"`
	OAuthSubject   string     `db:"oauth_subject" json:"-"`
	XP             int        `db:"xp" json:"xp"`
	Level          int        `db:"level" json:"level"`
	DailyStreak    int        `db:"daily_streak" json:"dailyStreak"`
	LongestStreak  int        `db:"longest_streak" json:"longestStreak"`
	LastActiveDate *time.Time `db:"last_active_date" json:"lastActiveDate"`
	LastStreakDate *string    `db:"last_streak_date" json:"-"`
	CurrentRank    string     `db:"current_rank" json:"currentRank"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the account can sign in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Token purposes stored in auth_tokens
const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposeResetPassword = "reset_password"
)

// AuthToken is a single-use token mailed to the user
type AuthToken struct {
	Token     string     `db:"token"`
	UserID    string     `db:"user_id"`
	Purpose   string     `db:"purpose"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// IsExpired checks if the token has expired
func (t *AuthToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsable reports whether the token can still be redeemed
func (t *AuthToken) IsUsable() bool {
	return t.UsedAt == nil && !t.IsExpired()
}
