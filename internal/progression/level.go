package progression

// DefaultLevelXPStep is the XP width of one level
const DefaultLevelXPStep = 1000

// MaxXP is the largest cumulative XP a user can hold
const MaxXP = 1<<31 - 1

// LevelCalculator derives levels from cumulative XP with a fixed step
type LevelCalculator struct {
	step int
}

// NewLevelCalculator returns a calculator; a non-positive step falls back to DefaultLevelXPStep
func NewLevelCalculator(step int) LevelCalculator {
	if step <= 0 {
		step = DefaultLevelXPStep
	}
	return LevelCalculator{step: step}
}

// Step returns the XP width of one level
func (c LevelCalculator) Step() int {
	return c.step
}

// Level returns floor(xp/step)+1. Negative xp is treated as zero.
func (c LevelCalculator) Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/c.step + 1
}

// XPRequired returns the cumulative XP at which level is left behind
func (c LevelCalculator) XPRequired(level int) int {
	if level < 1 {
		level = 1
	}
	return level * c.step
}

// LeveledUp reports whether moving from oldXP to newXP crosses at least one level boundary
func (c LevelCalculator) LeveledUp(oldXP, newXP int) bool {
	return c.Level(newXP) > c.Level(oldXP)
}

// LevelTitle returns the learner title shown for a level
func LevelTitle(level int) string {
	switch {
	case level >= 10:
		return "Finance Guru"
	case level >= 7:
		return "Budget Master"
	case level >= 5:
		return "Money Manager"
	case level >= 3:
		return "Financial Student"
	default:
		return "Finance Novice"
	}
}
