package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
)

const (
	defaultConfidence = 1.0
	defaultSkillLevel = 3
)

// ExtractionOutput is the interchange payload between extraction and
// consolidation. Every array defaults to empty.
type ExtractionOutput struct {
	Module                string                `json:"module"`
	Facts                 []FactData            `json:"facts"`
	TimelineEntries       []TimelineEntryData   `json:"timeline_entries"`
	Skills                []SkillData           `json:"skills"`
	Preferences           []PreferenceData      `json:"preferences"`
	Artifacts             []ArtifactData        `json:"artifacts"`
	OpenQuestions         []OpenQuestionData    `json:"open_questions"`
	RisksOrContradictions []RiskOrContradiction `json:"risks_or_contradictions"`
}

type FactData struct {
	FactType      string         `json:"fact_type"`
	Value         map[string]any `json:"value"`
	Confidence    float64        `json:"confidence"`
	SourceTurnIDs []string       `json:"source_turn_ids"`
}

type TimelineEntryData struct {
	StartDate        string   `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	Org              string   `json:"org"`
	Role             string   `json:"role"`
	Responsibilities []string `json:"responsibilities"`
	Achievements     []string `json:"achievements"`
	KPIs             []KPI    `json:"kpis"`
	ReasonForChange  *string  `json:"reason_for_change"`
	Confidence       float64  `json:"confidence"`
	SourceTurnIDs    []string `json:"source_turn_ids"`
}

type SkillData struct {
	Skill         string   `json:"skill"`
	Level         int      `json:"level"`
	Evidence      *string  `json:"evidence"`
	Tags          []string `json:"tags"`
	Confidence    float64  `json:"confidence"`
	SourceTurnIDs []string `json:"source_turn_ids"`

	rawLevel float64
}

type PreferenceData struct {
	Category      string         `json:"category"`
	Value         map[string]any `json:"value"`
	Confidence    float64        `json:"confidence"`
	SourceTurnIDs []string       `json:"source_turn_ids"`
}

type ArtifactData struct {
	ArtifactType  string   `json:"artifact_type"`
	Title         string   `json:"title"`
	Summary       *string  `json:"summary"`
	ContentRef    *string  `json:"content_ref"`
	Tags          []string `json:"tags"`
	SourceTurnIDs []string `json:"source_turn_ids"`
}

type OpenQuestionData struct {
	Module   string  `json:"module"`
	Question string  `json:"question"`
	Priority string  `json:"priority"`
	Reason   *string `json:"reason"`
}

type RiskOrContradiction struct {
	Issue               string `json:"issue"`
	Detail              string `json:"detail"`
	SuggestedResolution string `json:"suggested_resolution"`
}

func (f *FactData) UnmarshalJSON(b []byte) error {
	type alias FactData
	aux := struct {
		*alias
		Confidence *float64 `json:"confidence"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	f.Confidence = confidenceOrDefault(aux.Confidence)
	return nil
}

func (t *TimelineEntryData) UnmarshalJSON(b []byte) error {
	type alias TimelineEntryData
	aux := struct {
		*alias
		Confidence *float64 `json:"confidence"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.Confidence = confidenceOrDefault(aux.Confidence)
	if t.Responsibilities == nil {
		t.Responsibilities = []string{}
	}
	if t.Achievements == nil {
		t.Achievements = []string{}
	}
	return nil
}

func (s *SkillData) UnmarshalJSON(b []byte) error {
	type alias SkillData
	aux := struct {
		*alias
		Level      *float64 `json:"level"`
		Confidence *float64 `json:"confidence"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Confidence = confidenceOrDefault(aux.Confidence)
	s.rawLevel = defaultSkillLevel
	if aux.Level != nil {
		s.rawLevel = *aux.Level
	}
	s.Level = int(s.rawLevel)
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return nil
}

func (p *PreferenceData) UnmarshalJSON(b []byte) error {
	type alias PreferenceData
	aux := struct {
		*alias
		Confidence *float64 `json:"confidence"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.Confidence = confidenceOrDefault(aux.Confidence)
	return nil
}

func (a *ArtifactData) UnmarshalJSON(b []byte) error {
	type alias ArtifactData
	aux := struct{ *alias }{alias: (*alias)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return nil
}

func confidenceOrDefault(v *float64) float64 {
	if v == nil {
		return defaultConfidence
	}
	return *v
}

// ParseExtractionOutput decodes and validates a provider payload. Any failure
// is a *ParseError carrying raw.
func ParseExtractionOutput(raw string, isModule func(string) bool) (*ExtractionOutput, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &pkgerrors.ParseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}
	var out ExtractionOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &pkgerrors.ParseError{Raw: raw, Err: err}
	}
	out.normalize()
	if err := out.Validate(isModule); err != nil {
		return nil, &pkgerrors.ParseError{Raw: raw, Err: err}
	}
	return &out, nil
}

func (o *ExtractionOutput) normalize() {
	if o.Facts == nil {
		o.Facts = []FactData{}
	}
	if o.TimelineEntries == nil {
		o.TimelineEntries = []TimelineEntryData{}
	}
	if o.Skills == nil {
		o.Skills = []SkillData{}
	}
	if o.Preferences == nil {
		o.Preferences = []PreferenceData{}
	}
	if o.Artifacts == nil {
		o.Artifacts = []ArtifactData{}
	}
	if o.OpenQuestions == nil {
		o.OpenQuestions = []OpenQuestionData{}
	}
	if o.RisksOrContradictions == nil {
		o.RisksOrContradictions = []RiskOrContradiction{}
	}
}

// Validate checks bounds and enums. isModule may be nil to skip the module check.
func (o *ExtractionOutput) Validate(isModule func(string) bool) error {
	if o == nil {
		return &pkgerrors.ValidationError{Reason: "missing payload"}
	}
	if strings.TrimSpace(o.Module) == "" {
		return &pkgerrors.ValidationError{Field: "module", Reason: "required"}
	}
	if isModule != nil && !isModule(o.Module) {
		return &pkgerrors.ValidationError{Field: "module", Reason: fmt.Sprintf("unknown module %q", o.Module)}
	}

	for i, f := range o.Facts {
		field := fmt.Sprintf("facts[%d]", i)
		if err := requireString(field+".fact_type", f.FactType); err != nil {
			return err
		}
		if f.Value == nil {
			return &pkgerrors.ValidationError{Field: field + ".value", Reason: "must be an object"}
		}
		if err := checkConfidence(field, f.Confidence); err != nil {
			return err
		}
		if f.SourceTurnIDs == nil {
			return &pkgerrors.ValidationError{Field: field + ".source_turn_ids", Reason: "required"}
		}
	}
	for i, t := range o.TimelineEntries {
		field := fmt.Sprintf("timeline_entries[%d]", i)
		if err := requireString(field+".start_date", t.StartDate); err != nil {
			return err
		}
		if err := requireString(field+".org", t.Org); err != nil {
			return err
		}
		if err := requireString(field+".role", t.Role); err != nil {
			return err
		}
		if err := checkConfidence(field, t.Confidence); err != nil {
			return err
		}
		if t.SourceTurnIDs == nil {
			return &pkgerrors.ValidationError{Field: field + ".source_turn_ids", Reason: "required"}
		}
	}
	for i, s := range o.Skills {
		field := fmt.Sprintf("skills[%d]", i)
		if err := requireString(field+".skill", s.Skill); err != nil {
			return err
		}
		lvl := s.rawLevel
		if lvl == 0 && s.Level != 0 {
			lvl = float64(s.Level)
		}
		if lvl != math.Trunc(lvl) || lvl < 1 || lvl > 5 {
			return &pkgerrors.ValidationError{Field: field + ".level", Reason: "must be an integer in [1,5]"}
		}
		if err := checkConfidence(field, s.Confidence); err != nil {
			return err
		}
		if s.SourceTurnIDs == nil {
			return &pkgerrors.ValidationError{Field: field + ".source_turn_ids", Reason: "required"}
		}
	}
	for i, p := range o.Preferences {
		field := fmt.Sprintf("preferences[%d]", i)
		if err := requireString(field+".category", p.Category); err != nil {
			return err
		}
		if p.Value == nil {
			return &pkgerrors.ValidationError{Field: field + ".value", Reason: "must be an object"}
		}
		if err := checkConfidence(field, p.Confidence); err != nil {
			return err
		}
		if p.SourceTurnIDs == nil {
			return &pkgerrors.ValidationError{Field: field + ".source_turn_ids", Reason: "required"}
		}
	}
	for i, a := range o.Artifacts {
		field := fmt.Sprintf("artifacts[%d]", i)
		if !validArtifactType(a.ArtifactType) {
			return &pkgerrors.ValidationError{Field: field + ".artifact_type", Reason: fmt.Sprintf("invalid value %q", a.ArtifactType)}
		}
		if err := requireString(field+".title", a.Title); err != nil {
			return err
		}
		if a.SourceTurnIDs == nil {
			return &pkgerrors.ValidationError{Field: field + ".source_turn_ids", Reason: "required"}
		}
	}
	for i, q := range o.OpenQuestions {
		field := fmt.Sprintf("open_questions[%d]", i)
		if err := requireString(field+".module", q.Module); err != nil {
			return err
		}
		if err := requireString(field+".question", q.Question); err != nil {
			return err
		}
		switch q.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return &pkgerrors.ValidationError{Field: field + ".priority", Reason: fmt.Sprintf("invalid value %q", q.Priority)}
		}
	}
	for i, r := range o.RisksOrContradictions {
		field := fmt.Sprintf("risks_or_contradictions[%d]", i)
		if err := requireString(field+".issue", r.Issue); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns the number of items per array, for summaries and logging.
func (o *ExtractionOutput) Counts() (facts, timeline, skills int) {
	if o == nil {
		return 0, 0, 0
	}
	return len(o.Facts), len(o.TimelineEntries), len(o.Skills)
}

func requireString(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &pkgerrors.ValidationError{Field: field, Reason: "required"}
	}
	return nil
}

func checkConfidence(field string, c float64) error {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return &pkgerrors.ValidationError{Field: field + ".confidence", Reason: "must be within [0,1]"}
	}
	return nil
}

func validArtifactType(t string) bool {
	for _, v := range ArtifactTypes {
		if v == t {
			return true
		}
	}
	return false
}
