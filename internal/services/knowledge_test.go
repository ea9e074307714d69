package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

func seedKnowledge(t *testing.T, e *env, personID uuid.UUID) {
	t.Helper()
	out := &types.ExtractionOutput{
		Module: "timeline",
		Facts: []types.FactData{
			{FactType: "location", Value: map[string]any{"city": "Berlin"}, Confidence: 0.9, SourceTurnIDs: []string{}},
		},
		TimelineEntries: []types.TimelineEntryData{{
			StartDate: "2019-03", Org: "TestCorp", Role: "Engineering Manager",
			Responsibilities: []string{"Hiring"}, Achievements: []string{"Cut churn 20%"},
			Confidence: 0.8, SourceTurnIDs: []string{},
		}},
		Skills: []types.SkillData{
			{Skill: "Go", Level: 4, Evidence: strPtr("built services"), Tags: []string{}, Confidence: 0.8, SourceTurnIDs: []string{}},
		},
		Artifacts: []types.ArtifactData{
			{ArtifactType: knowledge.ArtifactPlaybook, Title: "Incident playbook", Tags: []string{}, SourceTurnIDs: []string{}},
		},
		OpenQuestions: []types.OpenQuestionData{
			{Module: "goals", Question: "Next role?", Priority: types.PriorityMedium},
		},
	}
	if _, err := e.consolidator.Consolidate(dbctx.Context{Ctx: context.Background()}, personID, out); err != nil {
		t.Fatalf("seed knowledge: %v", err)
	}
}

func TestKnowledgeSearch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	seedKnowledge(t, e, person.ID)
	dbc := dbctx.Context{Ctx: ctx}

	res, err := e.knowledge.Search(dbc, person.ID, "testcorp", nil, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Count != 1 || res.Results[0].Type != SearchTimeline {
		t.Fatalf("results: %+v", res)
	}
	res, err = e.knowledge.Search(dbc, person.ID, "o", []string{"skills", "artifacts"}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, h := range res.Results {
		if h.Type != SearchSkills && h.Type != SearchArtifacts {
			t.Fatalf("type filter leaked %q", h.Type)
		}
	}
	if res.Count != 2 {
		t.Fatalf("expected skill and artifact, got %+v", res)
	}
	res, _ = e.knowledge.Search(dbc, person.ID, "o", nil, 1)
	if res.Count != 1 {
		t.Fatalf("limit not applied: %d", res.Count)
	}

	var verr *pkgerrors.ValidationError
	if _, err := e.knowledge.Search(dbc, person.ID, " ", nil, 0); !errors.As(err, &verr) {
		t.Fatalf("blank query: %v", err)
	}
	if _, err := e.knowledge.Search(dbc, person.ID, "x", []string{"emails"}, 0); !errors.As(err, &verr) {
		t.Fatalf("unknown type: %v", err)
	}
	other, _ := e.knowledge.Search(dbc, uuid.New(), "testcorp", nil, 0)
	if other.Count != 0 {
		t.Fatalf("search crossed persons")
	}
}

func TestKnowledgeExportAndStats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	testutil.SeedSession(t, ctx, e.db, person.ID, "timeline")
	seedKnowledge(t, e, person.ID)
	dbc := dbctx.Context{Ctx: ctx}

	exp, err := e.knowledge.Export(dbc, person.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.Person.DisplayName != "Ada" || exp.Stats.Facts != 1 || exp.Stats.Timeline != 1 || exp.Stats.Artifacts != 1 {
		t.Fatalf("export: %+v", exp.Stats)
	}
	md := RenderMarkdown(exp)
	for _, want := range []string{
		"# Knowledge Base: Ada",
		"### Engineering Manager at TestCorp",
		"**Period:** 2019-03 - Present",
		"- Hiring",
		"- **Go** (Level 4/5): built services",
		`- **location**: {"city":"Berlin"}`,
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	st, err := e.knowledge.Stats(dbc, person.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Facts != 1 || st.Skills != 1 || st.OpenQuestions != 1 || st.Sessions != 1 || st.Preferences != 0 {
		t.Fatalf("stats: %+v", st)
	}

	if _, err := e.knowledge.Export(dbc, uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("unknown person: %v", err)
	}
}

func TestOpenQuestionStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	seedKnowledge(t, e, person.ID)
	dbc := dbctx.Context{Ctx: ctx}

	open, err := e.knowledge.ListOpenQuestions(dbc, person.ID, types.QuestionOpen)
	if err != nil || len(open) != 1 {
		t.Fatalf("ListOpenQuestions: %d %v", len(open), err)
	}
	q, err := e.knowledge.SetOpenQuestionStatus(dbc, person.ID, open[0].ID, "Answered")
	if err != nil || q.Status != types.QuestionAnswered {
		t.Fatalf("SetOpenQuestionStatus: %+v %v", q, err)
	}
	if open, _ = e.knowledge.ListOpenQuestions(dbc, person.ID, types.QuestionOpen); len(open) != 0 {
		t.Fatalf("question still open")
	}
	all, _ := e.knowledge.ListOpenQuestions(dbc, person.ID, "")
	if len(all) != 1 {
		t.Fatalf("all statuses: %d", len(all))
	}

	var verr *pkgerrors.ValidationError
	if _, err := e.knowledge.SetOpenQuestionStatus(dbc, person.ID, q.ID, "closed"); !errors.As(err, &verr) {
		t.Fatalf("bad status: %v", err)
	}
	if _, err := e.knowledge.SetOpenQuestionStatus(dbc, uuid.New(), q.ID, types.QuestionDismissed); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("foreign person: %v", err)
	}
}
