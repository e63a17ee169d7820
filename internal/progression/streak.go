package progression

import "time"

// DefaultStreakGrace is the longest gap between activities that keeps a streak alive
const DefaultStreakGrace = 48 * time.Hour

const dayLayout = "2006-01-02"

// StreakState is the persisted streak snapshot of a user
type StreakState struct {
	Streak        int
	LongestStreak int
	LastActive    *time.Time
	// LastStreakDay is the UTC calendar day (YYYY-MM-DD) of the last streak credit
	LastStreakDay string
}

// TouchResult is the outcome of a streak continuity check
type TouchResult struct {
	State    StreakState
	WasReset bool
}

// Touch checks continuity against the grace window. It never increments the
// streak: a gap longer than grace resets it to zero, anything else keeps it.
// LastActive is always moved to now.
func Touch(state StreakState, now time.Time, grace time.Duration) TouchResult {
	if grace <= 0 {
		grace = DefaultStreakGrace
	}
	res := TouchResult{State: state}
	if state.LastActive != nil && now.Sub(*state.LastActive) > grace {
		res.State.Streak = 0
		res.WasReset = true
	}
	t := now
	res.State.LastActive = &t
	return res
}

// RecordActivity credits the streak for a qualifying activity. Only the first
// activity of a UTC calendar day counts: the same day leaves the streak alone,
// the day after the last credit extends it, and any other gap starts over at 1.
func RecordActivity(state StreakState, now time.Time) StreakState {
	today := now.UTC().Format(dayLayout)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(dayLayout)

	switch state.LastStreakDay {
	case today:
		if state.Streak == 0 {
			state.Streak = 1
		}
	case yesterday:
		state.Streak++
	default:
		state.Streak = 1
	}
	state.LastStreakDay = today
	if state.Streak > state.LongestStreak {
		state.LongestStreak = state.Streak
	}
	t := now
	state.LastActive = &t
	return state
}
