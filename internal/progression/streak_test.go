package progression

import (
	"testing"
	"time"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func TestTouch(t *testing.T) {
	now := at("2024-03-10T12:00:00Z")

	tests := []struct {
		name       string
		lastActive *time.Time
		streak     int
		wantStreak int
		wantReset  bool
	}{
		{"never active", nil, 4, 4, false},
		{"same day", ptr(now.Add(-2 * time.Hour)), 4, 4, false},
		{"inside grace", ptr(now.Add(-30 * time.Hour)), 4, 4, false},
		{"exactly at grace", ptr(now.Add(-48 * time.Hour)), 4, 4, false},
		{"after 49 hours", ptr(now.Add(-49 * time.Hour)), 7, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Touch(StreakState{Streak: tt.streak, LastActive: tt.lastActive}, now, DefaultStreakGrace)
			if res.State.Streak != tt.wantStreak || res.WasReset != tt.wantReset {
				t.Errorf("Touch() = streak %d reset %v, want %d %v", res.State.Streak, res.WasReset, tt.wantStreak, tt.wantReset)
			}
			if res.State.LastActive == nil || !res.State.LastActive.Equal(now) {
				t.Errorf("LastActive = %v, want %v", res.State.LastActive, now)
			}
		})
	}
}

func TestTouchTwiceWithinDayNeverChangesStreak(t *testing.T) {
	start := at("2024-03-10T08:00:00Z")
	state := StreakState{Streak: 5, LastActive: ptr(start)}

	first := Touch(state, start.Add(3*time.Hour), DefaultStreakGrace)
	second := Touch(first.State, start.Add(20*time.Hour), DefaultStreakGrace)
	if first.State.Streak != 5 || second.State.Streak != 5 {
		t.Fatalf("streak changed: %d, %d", first.State.Streak, second.State.Streak)
	}
}

func TestRecordActivity(t *testing.T) {
	now := at("2024-03-10T12:00:00Z")

	tests := []struct {
		name        string
		state       StreakState
		wantStreak  int
		wantLongest int
	}{
		{"first ever", StreakState{}, 1, 1},
		{"already credited today", StreakState{Streak: 3, LongestStreak: 3, LastStreakDay: "2024-03-10"}, 3, 3},
		{"credited yesterday", StreakState{Streak: 3, LongestStreak: 3, LastStreakDay: "2024-03-09"}, 4, 4},
		{"gap of two days", StreakState{Streak: 6, LongestStreak: 9, LastStreakDay: "2024-03-07"}, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecordActivity(tt.state, now)
			if got.Streak != tt.wantStreak || got.LongestStreak != tt.wantLongest {
				t.Errorf("RecordActivity() = streak %d longest %d, want %d %d", got.Streak, got.LongestStreak, tt.wantStreak, tt.wantLongest)
			}
			if got.LastStreakDay != "2024-03-10" {
				t.Errorf("LastStreakDay = %q", got.LastStreakDay)
			}
		})
	}
}

func TestRecordActivityUsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 22:00 local on the 9th is already the 10th in UTC
	now := time.Date(2024, 3, 9, 22, 0, 0, 0, loc)
	got := RecordActivity(StreakState{Streak: 2, LastStreakDay: "2024-03-09"}, now)
	if got.Streak != 3 || got.LastStreakDay != "2024-03-10" {
		t.Errorf("got streak %d day %q", got.Streak, got.LastStreakDay)
	}
}
