package progression

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Metrics a catalog rule can test
const (
	MetricLevel   = "level"
	MetricStreak  = "streak"
	MetricXP      = "xp"
	MetricLessons = "lessons"
)

// Stats is the snapshot eligibility rules are evaluated against
type Stats struct {
	XP      int
	Level   int
	Streak  int
	Lessons int
}

// Rule grants an achievement once Metric reaches Min
type Rule struct {
	Metric string `yaml:"metric"`
	Min    int    `yaml:"min"`
}

// Holds reports whether the rule is satisfied by stats
func (r Rule) Holds(s Stats) bool {
	switch r.Metric {
	case MetricLevel:
		return s.Level >= r.Min
	case MetricStreak:
		return s.Streak >= r.Min
	case MetricXP:
		return s.XP >= r.Min
	case MetricLessons:
		return s.Lessons >= r.Min
	default:
		return false
	}
}

// Definition describes one achievement type
type Definition struct {
	Type        string `yaml:"type" json:"type"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Color       string `yaml:"color" json:"color"`
	Requirement string `yaml:"requirement" json:"requirement"`
	Rule        *Rule  `yaml:"rule" json:"-"`
}

// ServerGranted reports whether the server awards this achievement on its own
func (d Definition) ServerGranted() bool {
	return d.Rule != nil
}

// Catalog is the registry of known achievement types
type Catalog struct {
	defs  []Definition
	index map[string]int
}

type catalogFile struct {
	Achievements []Definition `yaml:"achievements"`
}

// LoadCatalog parses a YAML catalog
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse achievement catalog: %w", err)
	}

	c := &Catalog{index: make(map[string]int, len(file.Achievements))}
	for _, d := range file.Achievements {
		if d.Type == "" || d.Title == "" {
			return nil, fmt.Errorf("achievement catalog entry missing type or title: %+v", d)
		}
		if _, dup := c.index[d.Type]; dup {
			return nil, fmt.Errorf("duplicate achievement type %q", d.Type)
		}
		if d.Rule != nil {
			switch d.Rule.Metric {
			case MetricLevel, MetricStreak, MetricXP, MetricLessons:
			default:
				return nil, fmt.Errorf("achievement %q has unknown rule metric %q", d.Type, d.Rule.Metric)
			}
		}
		c.index[d.Type] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns a copy of every definition in catalog order
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup returns the definition for an achievement type
func (c *Catalog) Lookup(achievementType string) (Definition, bool) {
	i, ok := c.index[achievementType]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Eligible returns the server-granted achievements whose rules hold for stats
// and whose type is not in earned.
func (c *Catalog) Eligible(stats Stats, earned map[string]bool) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.Rule == nil || earned[d.Type] {
			continue
		}
		if d.Rule.Holds(stats) {
			out = append(out, d)
		}
	}
	return out
}
