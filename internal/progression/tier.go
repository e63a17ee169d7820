package progression

import "errors"

// ErrNegativeXP is returned when an XP value below zero is classified
var ErrNegativeXP = errors.New("xp must not be negative")

// Tier is a named progression band keyed by cumulative XP
type Tier string

const (
	TierNovice     Tier = "NOVICE"
	TierSaver      Tier = "SAVER"
	TierPlanner    Tier = "PLANNER"
	TierInvestor   Tier = "INVESTOR"
	TierStrategist Tier = "STRATEGIST"
	TierExpert     Tier = "EXPERT"
	TierGuru       Tier = "GURU"
)

type tierBand struct {
	tier  Tier
	minXP int
	name  string
	color string
}

// tierTable is ordered highest threshold first; the first band met wins.
var tierTable = []tierBand{
	{TierGuru, 8500, "Finance Guru", "#8B5CF6"},
	{TierExpert, 6000, "Wealth Expert", "#EC4899"},
	{TierStrategist, 4000, "Financial Strategist", "#F59E0B"},
	{TierInvestor, 2500, "Wise Investor", "#A78BFA"},
	{TierPlanner, 1200, "Budget Planner", "#34D399"},
	{TierSaver, 500, "Smart Saver", "#60A5FA"},
	{TierNovice, 0, "Financial Novice", "#94A3B8"},
}

// TierFor classifies cumulative XP into its tier
func TierFor(xp int) (Tier, error) {
	if xp < 0 {
		return "", ErrNegativeXP
	}
	for _, band := range tierTable {
		if xp >= band.minXP {
			return band.tier, nil
		}
	}
	return TierNovice, nil
}

// MustTierFor is TierFor for values already known to be non-negative, such as stored xp
func MustTierFor(xp int) Tier {
	t, err := TierFor(xp)
	if err != nil {
		return TierNovice
	}
	return t
}

func (t Tier) band() (tierBand, bool) {
	for _, b := range tierTable {
		if b.tier == t {
			return b, true
		}
	}
	return tierBand{}, false
}

// MinXP returns the threshold of the tier, or -1 for an unknown tier
func (t Tier) MinXP() int {
	if b, ok := t.band(); ok {
		return b.minXP
	}
	return -1
}

// DisplayName returns the human readable tier name
func (t Tier) DisplayName() string {
	if b, ok := t.band(); ok {
		return b.name
	}
	return string(t)
}

// Color returns the badge color used for the tier
func (t Tier) Color() string {
	if b, ok := t.band(); ok {
		return b.color
	}
	return ""
}

// NextTier returns the tier above t, and false when t is the top tier
func NextTier(t Tier) (Tier, bool) {
	for i, b := range tierTable {
		if b.tier == t {
			if i == 0 {
				return "", false
			}
			return tierTable[i-1].tier, true
		}
	}
	return "", false
}

// XPToNextTier returns how much XP is missing to reach the next tier, 0 at the top
func XPToNextTier(xp int) int {
	next, ok := NextTier(MustTierFor(xp))
	if !ok {
		return 0
	}
	return next.MinXP() - xp
}
