package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/data/repos"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	"github.com/yungbote/careerkb-backend/internal/observability"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/locks"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type CreatedCounts struct {
	Facts         int `json:"facts"`
	Timeline      int `json:"timeline"`
	Skills        int `json:"skills"`
	Preferences   int `json:"preferences"`
	Artifacts     int `json:"artifacts"`
	OpenQuestions int `json:"open_questions"`
}

type UpdatedCounts struct {
	Facts       int `json:"facts"`
	Timeline    int `json:"timeline"`
	Skills      int `json:"skills"`
	Preferences int `json:"preferences"`
}

// ChangeStats counts what one consolidation did. Skipped facts appear in
// neither bucket.
type ChangeStats struct {
	Created CreatedCounts `json:"created"`
	Updated UpdatedCounts `json:"updated"`
}

type mergeResult int

const (
	mergeSkipped mergeResult = iota
	mergeCreated
	mergeUpdated
)

type ConsolidatorService interface {
	Consolidate(dbc dbctx.Context, personID uuid.UUID, out *types.ExtractionOutput) (*ChangeStats, error)
}

type consolidatorService struct {
	db     *gorm.DB
	log    *logger.Logger
	locker locks.Locker
	repos  repos.Set
	graph  GraphSyncService
}

func NewConsolidatorService(db *gorm.DB, baseLog *logger.Logger, locker locks.Locker, rs repos.Set, graph GraphSyncService) ConsolidatorService {
	if locker == nil {
		locker = locks.NewLocal()
	}
	return &consolidatorService{
		db:     db,
		log:    baseLog.With("service", "ConsolidatorService"),
		locker: locker,
		repos:  rs,
		graph:  graph,
	}
}

func (s *consolidatorService) Consolidate(dbc dbctx.Context, personID uuid.UUID, out *types.ExtractionOutput) (stats *ChangeStats, err error) {
	if personID == uuid.Nil {
		return nil, fmt.Errorf("consolidate: missing person id")
	}
	if out == nil {
		return &ChangeStats{}, nil
	}
	ctx, span := observability.StartSpan(dbc.Ctx, "kb.consolidate",
		attribute.String("module", out.Module),
		attribute.Int("facts", len(out.Facts)),
	)
	defer func() { observability.EndSpan(span, err) }()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	stats = &ChangeStats{}
	for _, f := range out.Facts {
		res, err := s.consolidateFact(dbc, personID, f)
		if err != nil {
			return nil, fmt.Errorf("consolidate fact %q: %w", f.FactType, err)
		}
		tally(res, &stats.Created.Facts, &stats.Updated.Facts)
	}
	for _, t := range out.TimelineEntries {
		res, err := s.consolidateTimeline(dbc, personID, t)
		if err != nil {
			return nil, fmt.Errorf("consolidate timeline %q: %w", t.Org, err)
		}
		tally(res, &stats.Created.Timeline, &stats.Updated.Timeline)
	}
	for _, sk := range out.Skills {
		res, err := s.consolidateSkill(dbc, personID, sk)
		if err != nil {
			return nil, fmt.Errorf("consolidate skill %q: %w", sk.Skill, err)
		}
		tally(res, &stats.Created.Skills, &stats.Updated.Skills)
	}
	for _, p := range out.Preferences {
		res, err := s.consolidatePreference(dbc, personID, p)
		if err != nil {
			return nil, fmt.Errorf("consolidate preference %q: %w", p.Category, err)
		}
		tally(res, &stats.Created.Preferences, &stats.Updated.Preferences)
	}
	for _, a := range out.Artifacts {
		if err := s.repos.Artifact.Create(dbc, newArtifact(personID, a)); err != nil {
			return nil, fmt.Errorf("create artifact %q: %w", a.Title, err)
		}
		stats.Created.Artifacts++
	}
	for _, q := range out.OpenQuestions {
		if err := s.repos.OpenQuestion.Create(dbc, newOpenQuestion(personID, q)); err != nil {
			return nil, fmt.Errorf("create open question: %w", err)
		}
		stats.Created.OpenQuestions++
	}
	for _, r := range out.RisksOrContradictions {
		s.log.Info("extraction flagged a risk", "person_id", personID, "issue", r.Issue, "detail", r.Detail)
	}

	s.log.Info("consolidation complete",
		"person_id", personID,
		"module", out.Module,
		"created", stats.Created,
		"updated", stats.Updated,
	)
	if s.graph != nil {
		s.graph.SyncPerson(dbctx.Context{Ctx: ctx}, personID)
	}
	return stats, nil
}

func tally(res mergeResult, created, updated *int) {
	switch res {
	case mergeCreated:
		*created++
	case mergeUpdated:
		*updated++
	}
}

// withEntity serializes read-modify-write of one identity key and runs fn in
// a single transaction.
func (s *consolidatorService) withEntity(dbc dbctx.Context, key string, fn func(inner dbctx.Context) (mergeResult, error)) (mergeResult, error) {
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return mergeSkipped, err
	}
	defer unlock()

	if dbc.Tx != nil {
		return fn(dbctx.Context{Ctx: ctx, Tx: dbc.Tx})
	}
	var res mergeResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := fn(dbctx.Context{Ctx: ctx, Tx: tx})
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

func entityKey(kind string, personID uuid.UUID, identity string) string {
	return fmt.Sprintf("kb:%s:%s:%s", kind, personID, strings.ToLower(strings.TrimSpace(identity)))
}

func (s *consolidatorService) consolidateFact(dbc dbctx.Context, personID uuid.UUID, in types.FactData) (mergeResult, error) {
	return s.withEntity(dbc, entityKey("fact", personID, in.FactType), func(inner dbctx.Context) (mergeResult, error) {
		ex, err := s.repos.Fact.GetCurrent(inner, personID, in.FactType)
		if err != nil {
			return mergeSkipped, err
		}
		if ex == nil {
			return mergeCreated, s.repos.Fact.Create(inner, &types.Fact{
				PersonID:      personID,
				FactType:      in.FactType,
				Value:         knowledge.ObjectJSON(in.Value),
				Confidence:    in.Confidence,
				SourceTurnIDs: knowledge.StringsJSON(unionStrings(nil, in.SourceTurnIDs)),
				Version:       1,
			})
		}
		if !mergeFact(ex, in) {
			s.log.Debug("lower-confidence fact contradiction skipped",
				"person_id", personID, "fact_type", in.FactType,
				"existing_confidence", ex.Confidence, "incoming_confidence", in.Confidence)
			return mergeSkipped, nil
		}
		return mergeUpdated, s.repos.Fact.Update(inner, ex)
	})
}

func (s *consolidatorService) consolidateTimeline(dbc dbctx.Context, personID uuid.UUID, in types.TimelineEntryData) (mergeResult, error) {
	return s.withEntity(dbc, entityKey("timeline", personID, in.Org), func(inner dbctx.Context) (mergeResult, error) {
		ex, err := s.repos.Timeline.FindMatch(inner, personID, in.Org, in.StartDate, in.EndDate)
		if err != nil {
			return mergeSkipped, err
		}
		if ex == nil {
			return mergeCreated, s.repos.Timeline.Create(inner, &types.TimelineEntry{
				PersonID:         personID,
				Org:              in.Org,
				Role:             in.Role,
				StartDate:        in.StartDate,
				EndDate:          in.EndDate,
				Responsibilities: knowledge.StringsJSON(unionStrings(nil, in.Responsibilities)),
				Achievements:     knowledge.StringsJSON(unionStrings(nil, in.Achievements)),
				KPIs:             knowledge.KPIsJSON(in.KPIs),
				ReasonForChange:  in.ReasonForChange,
				Confidence:       in.Confidence,
				SourceTurnIDs:    knowledge.StringsJSON(unionStrings(nil, in.SourceTurnIDs)),
				Version:          1,
			})
		}
		mergeTimeline(ex, in)
		return mergeUpdated, s.repos.Timeline.Update(inner, ex)
	})
}

func (s *consolidatorService) consolidateSkill(dbc dbctx.Context, personID uuid.UUID, in types.SkillData) (mergeResult, error) {
	return s.withEntity(dbc, entityKey("skill", personID, in.Skill), func(inner dbctx.Context) (mergeResult, error) {
		ex, err := s.repos.Skill.FindByName(inner, personID, in.Skill)
		if err != nil {
			return mergeSkipped, err
		}
		if ex == nil {
			return mergeCreated, s.repos.Skill.Create(inner, &types.Skill{
				PersonID:      personID,
				Name:          strings.TrimSpace(in.Skill),
				Level:         in.Level,
				Evidence:      in.Evidence,
				Tags:          knowledge.StringsJSON(unionStrings(nil, in.Tags)),
				Confidence:    in.Confidence,
				SourceTurnIDs: knowledge.StringsJSON(unionStrings(nil, in.SourceTurnIDs)),
				Version:       1,
			})
		}
		mergeSkill(ex, in)
		return mergeUpdated, s.repos.Skill.Update(inner, ex)
	})
}

func (s *consolidatorService) consolidatePreference(dbc dbctx.Context, personID uuid.UUID, in types.PreferenceData) (mergeResult, error) {
	return s.withEntity(dbc, entityKey("preference", personID, in.Category), func(inner dbctx.Context) (mergeResult, error) {
		ex, err := s.repos.Preference.GetByCategory(inner, personID, in.Category)
		if err != nil {
			return mergeSkipped, err
		}
		if ex == nil {
			return mergeCreated, s.repos.Preference.Create(inner, &types.Preference{
				PersonID:      personID,
				Category:      in.Category,
				Value:         knowledge.ObjectJSON(in.Value),
				Confidence:    in.Confidence,
				SourceTurnIDs: knowledge.StringsJSON(unionStrings(nil, in.SourceTurnIDs)),
				Version:       1,
			})
		}
		mergePreference(ex, in)
		return mergeUpdated, s.repos.Preference.Update(inner, ex)
	})
}

func newArtifact(personID uuid.UUID, a types.ArtifactData) *types.Artifact {
	return &types.Artifact{
		PersonID:      personID,
		ArtifactType:  a.ArtifactType,
		Title:         a.Title,
		Summary:       a.Summary,
		ContentRef:    a.ContentRef,
		Tags:          knowledge.StringsJSON(unionStrings(nil, a.Tags)),
		SourceTurnIDs: knowledge.StringsJSON(unionStrings(nil, a.SourceTurnIDs)),
	}
}

func newOpenQuestion(personID uuid.UUID, q types.OpenQuestionData) *types.OpenQuestion {
	return &types.OpenQuestion{
		PersonID: personID,
		Module:   q.Module,
		Question: q.Question,
		Priority: q.Priority,
		Reason:   q.Reason,
		Status:   types.QuestionOpen,
	}
}
