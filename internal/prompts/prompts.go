package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yungbote/careerkb-backend/internal/platform/promptstyle"
)

type PromptName string

const (
	PromptExtraction   PromptName = "kb_extraction"
	PromptNextQuestion PromptName = "next_question"
)

// Input is a superset of the fields any prompt needs. Missing fields render
// as empty strings.
type Input struct {
	ModuleID           string
	ModuleName         string
	ModuleDescription  string
	ModuleInstructions string
	ExtractionFocus    string

	PersonName     string
	SessionID      string
	TurnCount      int
	ModuleProgress string

	Transcript      string
	ExistingSummary string
	OpenQuestions   string
}

type Prompt struct {
	Name    string
	Version int
	System  string
	User    string
}

type Validator func(Input) error

type Spec struct {
	Name    PromptName
	Version int
	// Mode is "json" or "text".
	Mode       string
	System     string
	User       string
	Validators []Validator
}

type compiled struct {
	spec   Spec
	system *template.Template
	user   *template.Template
}

var registry = map[PromptName]compiled{}

func RegisterSpec(s Spec) {
	if strings.TrimSpace(string(s.Name)) == "" {
		panic("prompts: missing prompt name")
	}
	if s.Version <= 0 {
		panic(fmt.Sprintf("prompts: invalid version for %s", s.Name))
	}
	sysT := template.Must(template.New("system").Option("missingkey=zero").Parse(s.System))
	userT := template.Must(template.New("user").Option("missingkey=zero").Parse(s.User))
	registry[s.Name] = compiled{spec: s, system: sysT, user: userT}
}

// Build renders a registered prompt.
func Build(name PromptName, in Input) (Prompt, error) {
	c, ok := registry[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	for _, v := range c.spec.Validators {
		if v == nil {
			continue
		}
		if err := v(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", string(name), err)
		}
	}
	return Prompt{
		Name:    string(c.spec.Name),
		Version: c.spec.Version,
		System:  promptstyle.ApplySystem(render(c.system, in), c.spec.Mode),
		User:    render(c.user, in),
	}, nil
}

func render(t *template.Template, in Input) string {
	var b bytes.Buffer
	_ = t.Execute(&b, in)
	return strings.TrimSpace(b.String())
}

func requireTranscript(in Input) error {
	if strings.TrimSpace(in.Transcript) == "" {
		return fmt.Errorf("missing transcript")
	}
	return nil
}

func requireModule(in Input) error {
	if strings.TrimSpace(in.ModuleID) == "" {
		return fmt.Errorf("missing module")
	}
	return nil
}

func init() {
	RegisterSpec(Spec{
		Name:       PromptExtraction,
		Version:    1,
		Mode:       "json",
		Validators: []Validator{requireModule, requireTranscript},
		System: `You extract structured career knowledge from an interview transcript.

Current module: {{.ModuleID}}
Focus on: {{.ExtractionFocus}}

Output a JSON object with exactly these keys:
- "module": "{{.ModuleID}}"
- "facts": [{"fact_type": string, "value": object, "confidence": 0..1, "source_turn_ids": [turn id]}]
- "timeline_entries": [{"start_date": "YYYY-MM", "end_date": "YYYY-MM" or null, "org": string, "role": string,
  "responsibilities": [string], "achievements": [string], "kpis": [{"name": string, "value": string}],
  "reason_for_change": string or null, "confidence": 0..1, "source_turn_ids": [turn id]}]
- "skills": [{"skill": string, "level": integer 1..5, "evidence": string or null, "tags": [string],
  "confidence": 0..1, "source_turn_ids": [turn id]}]
- "preferences": [{"category": string, "value": object, "confidence": 0..1, "source_turn_ids": [turn id]}]
- "artifacts": [{"artifact_type": "template"|"process"|"checklist"|"playbook"|"link"|"file", "title": string,
  "summary": string or null, "content_ref": string or null, "tags": [string], "source_turn_ids": [turn id]}]
- "open_questions": [{"module": string, "question": string, "priority": "H"|"M"|"L", "reason": string or null}]
- "risks_or_contradictions": [{"issue": string, "detail": string, "suggested_resolution": string}]

Rules:
- Cite the turn ids (the value inside [Turn ...]) every item came from.
- Lower confidence for vague or hedged statements.
- Do not repeat entries that already exist unless the transcript adds new detail.
- Use empty arrays when there is nothing to report.

{{.ExistingSummary}}`,
		User: `Transcript:

{{.Transcript}}

Extract structured data from the conversation turns.`,
	})

	RegisterSpec(Spec{
		Name:       PromptNextQuestion,
		Version:    1,
		Mode:       "text",
		Validators: []Validator{requireModule},
		System: `You are a warm, focused interviewer helping {{.PersonName}} document their career.

Module: {{.ModuleName}}
About this module: {{.ModuleDescription}}
Instructions: {{.ModuleInstructions}}

Session {{.SessionID}}: {{.TurnCount}} turns so far, module progress {{.ModuleProgress}}.

Recent conversation:
{{if .Transcript}}{{.Transcript}}{{else}}No previous turns.{{end}}

Open questions to weave in when natural:
{{if .OpenQuestions}}{{.OpenQuestions}}{{else}}None{{end}}

Ask exactly one question. Keep it under 40 words. Do not repeat a question already asked.`,
		User: `Generate the next interview question.`,
	})
}
