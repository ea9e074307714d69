package knowledge

import (
	"errors"
	"testing"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
)

func anyModule(string) bool { return true }

func TestParseExtractionOutputDefaults(t *testing.T) {
	raw := `{
		"module": "skills",
		"facts": [{"fact_type": "location", "value": {"city": "Berlin"}, "source_turn_ids": ["t1"]}],
		"skills": [{"skill": "Go", "evidence": null, "source_turn_ids": []}]
	}`
	out, err := ParseExtractionOutput(raw, anyModule)
	if err != nil {
		t.Fatalf("ParseExtractionOutput: %v", err)
	}
	if out.Facts[0].Confidence != 1.0 {
		t.Fatalf("fact confidence default: got %v want 1.0", out.Facts[0].Confidence)
	}
	if out.Skills[0].Level != 3 {
		t.Fatalf("skill level default: got %d want 3", out.Skills[0].Level)
	}
	if out.Skills[0].Tags == nil || len(out.Skills[0].Tags) != 0 {
		t.Fatalf("skill tags default: got %#v", out.Skills[0].Tags)
	}
	if out.TimelineEntries == nil || out.Preferences == nil || out.Artifacts == nil ||
		out.OpenQuestions == nil || out.RisksOrContradictions == nil {
		t.Fatalf("missing arrays should default to empty: %+v", out)
	}
}

func TestParseExtractionOutputRejects(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{"not json", `{"module": "skills",`, ""},
		{"empty", `   `, ""},
		{"missing module", `{"facts": []}`, "module"},
		{"confidence above one", `{"module":"skills","facts":[{"fact_type":"x","value":{},"confidence":1.2,"source_turn_ids":[]}]}`, "facts[0].confidence"},
		{"negative confidence", `{"module":"skills","preferences":[{"category":"x","value":{},"confidence":-0.1,"source_turn_ids":[]}]}`, "preferences[0].confidence"},
		{"fractional level", `{"module":"skills","skills":[{"skill":"Go","level":2.5,"evidence":null,"source_turn_ids":[]}]}`, "skills[0].level"},
		{"level out of range", `{"module":"skills","skills":[{"skill":"Go","level":6,"evidence":null,"source_turn_ids":[]}]}`, "skills[0].level"},
		{"artifact enum", `{"module":"assets","artifacts":[{"artifact_type":"video","title":"x","source_turn_ids":[]}]}`, "artifacts[0].artifact_type"},
		{"priority enum", `{"module":"goals","open_questions":[{"module":"goals","question":"q?","priority":"X"}]}`, "open_questions[0].priority"},
		{"fact value not object", `{"module":"skills","facts":[{"fact_type":"x","value":"str","source_turn_ids":[]}]}`, ""},
		{"missing source ids", `{"module":"skills","facts":[{"fact_type":"x","value":{}}]}`, "facts[0].source_turn_ids"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExtractionOutput(tc.raw, anyModule)
			var perr *pkgerrors.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Raw != tc.raw {
				t.Fatalf("raw payload not preserved")
			}
			if tc.field == "" {
				return
			}
			var verr *pkgerrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field: got %q want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestParseExtractionOutputUnknownModule(t *testing.T) {
	only := func(m string) bool { return m == "timeline" }
	if _, err := ParseExtractionOutput(`{"module":"skills"}`, only); err == nil {
		t.Fatalf("expected unknown module to be rejected")
	}
	if _, err := ParseExtractionOutput(`{"module":"timeline"}`, only); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
