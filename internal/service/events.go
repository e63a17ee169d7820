package service

// Progression event types pushed to connected clients
const (
	EventLevelUp             = "level_up"
	EventAchievementUnlocked = "achievement_unlocked"
	EventStreakReset         = "streak_reset"
)

// EventPublisher delivers progression events to a user's live connections
type EventPublisher interface {
	Publish(userID, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}
