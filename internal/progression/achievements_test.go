package progression

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if len(c.All()) != 5 {
		t.Fatalf("catalog has %d entries, want 5", len(c.All()))
	}
	advisor, ok := c.Lookup("financial-advisor")
	if !ok || !advisor.ServerGranted() || advisor.Rule.Metric != MetricLevel || advisor.Rule.Min != 5 {
		t.Errorf("financial-advisor = %+v", advisor)
	}
	budget, ok := c.Lookup("budget-master")
	if !ok || budget.ServerGranted() {
		t.Errorf("budget-master = %+v, want client unlocked", budget)
	}
	if _, ok := c.Lookup("unknown"); ok {
		t.Error("unknown type should not be found")
	}
}

func TestEligible(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name   string
		stats  Stats
		earned map[string]bool
		want   []string
	}{
		{"nothing yet", Stats{Level: 1, Streak: 1}, nil, nil},
		{"level five", Stats{Level: 5}, nil, []string{"financial-advisor"}},
		{"streak three", Stats{Level: 1, Streak: 3}, nil, []string{"streak-starter"}},
		{"both", Stats{Level: 6, Streak: 4}, nil, []string{"financial-advisor", "streak-starter"}},
		{"already earned skipped", Stats{Level: 6, Streak: 4}, map[string]bool{"financial-advisor": true}, []string{"streak-starter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Eligible(tt.stats, tt.earned)
			if len(got) != len(tt.want) {
				t.Fatalf("Eligible() returned %d, want %d", len(got), len(tt.want))
			}
			for i, d := range got {
				if d.Type != tt.want[i] {
					t.Errorf("Eligible()[%d] = %s, want %s", i, d.Type, tt.want[i])
				}
			}
		})
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing title", "achievements:\n  - type: a\n"},
		{"duplicate", "achievements:\n  - {type: a, title: A}\n  - {type: a, title: B}\n"},
		{"bad metric", "achievements:\n  - {type: a, title: A, rule: {metric: height, min: 2}}\n"},
		{"not yaml", "achievements: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCatalog([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
