package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/data/repos/interview"
	"github.com/yungbote/careerkb-backend/internal/data/repos/kb"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type PersonRepo = interview.PersonRepo
type SessionRepo = interview.SessionRepo
type TurnRepo = interview.TurnRepo
type SummaryRepo = interview.SummaryRepo
type CostRepo = interview.CostRepo

type FactRepo = kb.FactRepo
type TimelineRepo = kb.TimelineRepo
type SkillRepo = kb.SkillRepo
type PreferenceRepo = kb.PreferenceRepo
type ArtifactRepo = kb.ArtifactRepo
type OpenQuestionRepo = kb.OpenQuestionRepo

func NewPersonRepo(db *gorm.DB, baseLog *logger.Logger) PersonRepo {
	return interview.NewPersonRepo(db, baseLog)
}
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return interview.NewSessionRepo(db, baseLog)
}
func NewTurnRepo(db *gorm.DB, baseLog *logger.Logger) TurnRepo {
	return interview.NewTurnRepo(db, baseLog)
}
func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return interview.NewSummaryRepo(db, baseLog)
}
func NewCostRepo(db *gorm.DB, baseLog *logger.Logger) CostRepo {
	return interview.NewCostRepo(db, baseLog)
}

func NewFactRepo(db *gorm.DB, baseLog *logger.Logger) FactRepo { return kb.NewFactRepo(db, baseLog) }
func NewTimelineRepo(db *gorm.DB, baseLog *logger.Logger) TimelineRepo {
	return kb.NewTimelineRepo(db, baseLog)
}
func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo { return kb.NewSkillRepo(db, baseLog) }
func NewPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceRepo {
	return kb.NewPreferenceRepo(db, baseLog)
}
func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return kb.NewArtifactRepo(db, baseLog)
}
func NewOpenQuestionRepo(db *gorm.DB, baseLog *logger.Logger) OpenQuestionRepo {
	return kb.NewOpenQuestionRepo(db, baseLog)
}

// Set bundles every repository over one database handle.
type Set struct {
	Person       PersonRepo
	Session      SessionRepo
	Turn         TurnRepo
	Summary      SummaryRepo
	Cost         CostRepo
	Fact         FactRepo
	Timeline     TimelineRepo
	Skill        SkillRepo
	Preference   PreferenceRepo
	Artifact     ArtifactRepo
	OpenQuestion OpenQuestionRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Person:       NewPersonRepo(db, baseLog),
		Session:      NewSessionRepo(db, baseLog),
		Turn:         NewTurnRepo(db, baseLog),
		Summary:      NewSummaryRepo(db, baseLog),
		Cost:         NewCostRepo(db, baseLog),
		Fact:         NewFactRepo(db, baseLog),
		Timeline:     NewTimelineRepo(db, baseLog),
		Skill:        NewSkillRepo(db, baseLog),
		Preference:   NewPreferenceRepo(db, baseLog),
		Artifact:     NewArtifactRepo(db, baseLog),
		OpenQuestion: NewOpenQuestionRepo(db, baseLog),
	}
}
