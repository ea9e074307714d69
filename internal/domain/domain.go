package domain

import (
	"github.com/yungbote/careerkb-backend/internal/domain/interview"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
)

const (
	SessionStatusActive    = interview.SessionStatusActive
	SessionStatusCompleted = interview.SessionStatusCompleted

	SpeakerAgent = interview.SpeakerAgent
	SpeakerUser  = interview.SpeakerUser

	PriorityHigh   = knowledge.PriorityHigh
	PriorityMedium = knowledge.PriorityMedium
	PriorityLow    = knowledge.PriorityLow

	QuestionOpen      = knowledge.QuestionOpen
	QuestionAnswered  = knowledge.QuestionAnswered
	QuestionDismissed = knowledge.QuestionDismissed
)

type Person = interview.Person
type Session = interview.Session
type Turn = interview.Turn
type Summary = interview.Summary
type CostRecord = interview.CostRecord

type Fact = knowledge.Fact
type TimelineEntry = knowledge.TimelineEntry
type KPI = knowledge.KPI
type Skill = knowledge.Skill
type Preference = knowledge.Preference
type Artifact = knowledge.Artifact
type OpenQuestion = knowledge.OpenQuestion

type ExtractionOutput = knowledge.ExtractionOutput
type FactData = knowledge.FactData
type TimelineEntryData = knowledge.TimelineEntryData
type SkillData = knowledge.SkillData
type PreferenceData = knowledge.PreferenceData
type ArtifactData = knowledge.ArtifactData
type OpenQuestionData = knowledge.OpenQuestionData
type RiskOrContradiction = knowledge.RiskOrContradiction

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&Person{},
		&Session{},
		&Turn{},
		&Summary{},
		&CostRecord{},
		&Fact{},
		&TimelineEntry{},
		&Skill{},
		&Preference{},
		&Artifact{},
		&OpenQuestion{},
	}
}
