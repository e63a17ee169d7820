package progression

import "testing"

func TestLevel(t *testing.T) {
	calc := NewLevelCalculator(1000)

	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{1050, 2},
		{4999, 5},
		{5000, 6},
	}

	for _, tt := range tests {
		if got := calc.Level(tt.xp); got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelProperties(t *testing.T) {
	for _, step := range []int{500, 1000, 1234} {
		calc := NewLevelCalculator(step)
		prev := calc.Level(0)
		for xp := 0; xp <= 20_000; xp += 7 {
			level := calc.Level(xp)
			if level < 1 {
				t.Fatalf("step %d: Level(%d) = %d, want >= 1", step, xp, level)
			}
			if level < prev {
				t.Fatalf("step %d: Level(%d) = %d decreased from %d", step, xp, level, prev)
			}
			if req := calc.XPRequired(level); req <= xp {
				t.Fatalf("step %d: XPRequired(Level(%d)) = %d, want > xp", step, xp, req)
			}
			prev = level
		}
	}
}

func TestLeveledUp(t *testing.T) {
	calc := NewLevelCalculator(1000)
	if !calc.LeveledUp(950, 1050) {
		t.Error("950 -> 1050 should level up")
	}
	if calc.LeveledUp(1000, 1999) {
		t.Error("1000 -> 1999 stays on level 2")
	}
	if calc.Level(950+5000) != 6 || !calc.LeveledUp(950, 5950) {
		t.Error("large delta should skip straight to level 6")
	}
}

func TestNewLevelCalculatorDefaultsStep(t *testing.T) {
	if NewLevelCalculator(0).Step() != DefaultLevelXPStep {
		t.Error("non-positive step should fall back to default")
	}
}

func TestLevelTitle(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "Finance Novice"},
		{3, "Financial Student"},
		{5, "Money Manager"},
		{7, "Budget Master"},
		{10, "Finance Guru"},
	}
	for _, tt := range tests {
		if got := LevelTitle(tt.level); got != tt.want {
			t.Errorf("LevelTitle(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
