package prompts

import (
	"strings"
	"testing"
)

func TestBuildExtraction(t *testing.T) {
	p, err := Build(PromptExtraction, Input{
		ModuleID:        "skills",
		ExtractionFocus: "skills, preferences (work style)",
		Transcript:      "[Turn a] User: I write Go daily.",
		ExistingSummary: "Existing KB entries for this person:",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.System, `"module": "skills"`) {
		t.Fatalf("module not rendered: %s", p.System)
	}
	if !strings.Contains(p.System, "single JSON object") {
		t.Fatalf("json style block missing")
	}
	if !strings.Contains(p.User, "[Turn a] User: I write Go daily.") {
		t.Fatalf("transcript not rendered: %s", p.User)
	}
}

func TestBuildValidates(t *testing.T) {
	if _, err := Build(PromptExtraction, Input{ModuleID: "skills"}); err == nil {
		t.Fatalf("expected missing transcript error")
	}
	if _, err := Build(PromptName("nope"), Input{}); err == nil {
		t.Fatalf("expected unknown prompt error")
	}
}

func TestBuildNextQuestionDefaults(t *testing.T) {
	p, err := Build(PromptNextQuestion, Input{ModuleID: "goals", ModuleName: "Goals", PersonName: "Sam"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.System, "No previous turns.") || !strings.Contains(p.System, "None") {
		t.Fatalf("empty sections should render defaults: %s", p.System)
	}
	if p.User != "Generate the next interview question." {
		t.Fatalf("user prompt: %q", p.User)
	}
}
