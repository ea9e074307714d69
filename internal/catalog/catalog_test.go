package catalog

import "testing"

func TestDefaultOrder(t *testing.T) {
	want := []struct {
		id    string
		turns int
	}{
		{"profile_header", 8},
		{"timeline", 12},
		{"skills", 10},
		{"principles", 8},
		{"assets", 8},
		{"stakeholders", 6},
		{"goals", 6},
	}
	c := Default()
	ids := c.IDs()
	if len(ids) != len(want) {
		t.Fatalf("module count: got %d want %d", len(ids), len(want))
	}
	for i, w := range want {
		m, ok := c.Get(w.id)
		if !ok {
			t.Fatalf("missing module %q", w.id)
		}
		if ids[i] != w.id {
			t.Fatalf("order[%d]: got %q want %q", i, ids[i], w.id)
		}
		if m.EstimatedTurns != w.turns {
			t.Fatalf("%s estimated turns: got %d want %d", w.id, m.EstimatedTurns, w.turns)
		}
		if m.Instructions == "" || m.Name == "" {
			t.Fatalf("%s: missing name or instructions", w.id)
		}
	}
	if c.First().ID != "profile_header" {
		t.Fatalf("first module: got %q", c.First().ID)
	}
}

func TestNext(t *testing.T) {
	c := Default()
	if m, ok := c.Next("profile_header"); !ok || m.ID != "timeline" {
		t.Fatalf("next(profile_header): got %q %v", m.ID, ok)
	}
	if _, ok := c.Next("goals"); ok {
		t.Fatalf("goals is terminal")
	}
	if _, ok := c.Next("nope"); ok {
		t.Fatalf("unknown module should be terminal")
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"empty":     "modules: []",
		"no id":     "modules:\n  - name: x\n    estimated_turns: 2",
		"duplicate": "modules:\n  - id: a\n    estimated_turns: 1\n  - id: a\n    estimated_turns: 1",
		"turns":     "modules:\n  - id: a\n    estimated_turns: 0",
		"malformed": "modules: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
