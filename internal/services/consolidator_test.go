package services

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

func TestConsolidateFactMergeAndSkip(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	dbc := dbctx.Context{Ctx: ctx}

	first := &types.ExtractionOutput{Module: "profile_header", Facts: []types.FactData{
		{FactType: "location", Value: map[string]any{"city": "Berlin"}, Confidence: 0.8, SourceTurnIDs: []string{"t1"}},
	}}
	stats, err := e.consolidator.Consolidate(dbc, person.ID, first)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if stats.Created.Facts != 1 {
		t.Fatalf("created facts: %+v", stats)
	}

	// same value, new source: corroborated
	again := &types.ExtractionOutput{Module: "profile_header", Facts: []types.FactData{
		{FactType: "location", Value: map[string]any{"city": "Berlin"}, Confidence: 0.7, SourceTurnIDs: []string{"t2"}},
	}}
	stats, err = e.consolidator.Consolidate(dbc, person.ID, again)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if stats.Updated.Facts != 1 || stats.Created.Facts != 0 {
		t.Fatalf("stats: %+v", stats)
	}
	fact, err := e.repos.Fact.GetCurrent(dbc, person.ID, "location")
	if err != nil || fact == nil {
		t.Fatalf("GetCurrent: %v %v", fact, err)
	}
	if fact.Version != 2 || math.Abs(fact.Confidence-0.9) > 1e-9 {
		t.Fatalf("version/confidence: %d/%v", fact.Version, fact.Confidence)
	}
	if got := knowledge.Strings(fact.SourceTurnIDs); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Fatalf("sources: %v", got)
	}

	// contradiction with lower confidence: untouched
	weaker := &types.ExtractionOutput{Module: "profile_header", Facts: []types.FactData{
		{FactType: "location", Value: map[string]any{"city": "Munich"}, Confidence: 0.4, SourceTurnIDs: []string{"t3"}},
	}}
	stats, err = e.consolidator.Consolidate(dbc, person.ID, weaker)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if stats.Updated.Facts != 0 || stats.Created.Facts != 0 {
		t.Fatalf("skipped fact should not be counted: %+v", stats)
	}
	fact, _ = e.repos.Fact.GetCurrent(dbc, person.ID, "location")
	if fact.Version != 2 || knowledge.Object(fact.Value)["city"] != "Berlin" {
		t.Fatalf("fact changed by weaker evidence: %s v%d", fact.Value, fact.Version)
	}
}

func TestConsolidateTimelineUnionsLists(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	dbc := dbctx.Context{Ctx: ctx}

	entry := func(resps []string, src string) *types.ExtractionOutput {
		return &types.ExtractionOutput{Module: "timeline", TimelineEntries: []types.TimelineEntryData{{
			StartDate:        "2019-03",
			Org:              "TestCorp",
			Role:             "Engineering Manager",
			Responsibilities: resps,
			Achievements:     []string{},
			Confidence:       0.8,
			SourceTurnIDs:    []string{src},
		}}}
	}
	if _, err := e.consolidator.Consolidate(dbc, person.ID, entry([]string{"Hiring", "Roadmap"}, "t1")); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	stats, err := e.consolidator.Consolidate(dbc, person.ID, entry([]string{"Roadmap", "Budget"}, "t2"))
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if stats.Updated.Timeline != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	rows, err := e.repos.Timeline.ListByPerson(dbc, person.ID, 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("timeline rows: %d %v", len(rows), err)
	}
	if got := knowledge.Strings(rows[0].Responsibilities); !reflect.DeepEqual(got, []string{"Hiring", "Roadmap", "Budget"}) {
		t.Fatalf("responsibilities: %v", got)
	}
	if rows[0].Version != 2 {
		t.Fatalf("version: %d", rows[0].Version)
	}
}

func TestConsolidateSkillLevelRises(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	dbc := dbctx.Context{Ctx: ctx}

	skill := func(name string, level int) *types.ExtractionOutput {
		return &types.ExtractionOutput{Module: "skills", Skills: []types.SkillData{{
			Skill: name, Level: level, Tags: []string{}, Confidence: 0.7, SourceTurnIDs: []string{},
		}}}
	}
	if _, err := e.consolidator.Consolidate(dbc, person.ID, skill("Go", 3)); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if _, err := e.consolidator.Consolidate(dbc, person.ID, skill("go", 4)); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	row, err := e.repos.Skill.FindByName(dbc, person.ID, "GO")
	if err != nil || row == nil {
		t.Fatalf("FindByName: %v %v", row, err)
	}
	if row.Level != 4 || row.Name != "Go" {
		t.Fatalf("skill: %s level %d", row.Name, row.Level)
	}
	n, _ := e.repos.Skill.Count(dbc, person.ID)
	if n != 1 {
		t.Fatalf("case-insensitive match should not duplicate: %d rows", n)
	}
}

func TestConsolidateIsMonotone(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	dbc := dbctx.Context{Ctx: ctx}

	out := &types.ExtractionOutput{
		Module: "skills",
		Facts: []types.FactData{
			{FactType: "years_experience", Value: map[string]any{"years": 12.0}, Confidence: 0.5, SourceTurnIDs: []string{"t1"}},
		},
		Skills: []types.SkillData{
			{Skill: "Kubernetes", Level: 3, Tags: []string{"infra"}, Confidence: 0.5, SourceTurnIDs: []string{"t1"}},
		},
		Preferences: []types.PreferenceData{
			{Category: "work_style", Value: map[string]any{"remote": true}, Confidence: 0.5, SourceTurnIDs: []string{"t1"}},
		},
	}
	var prevFact, prevSkill float64
	prevVersion := 0
	for i := 0; i < 7; i++ {
		if _, err := e.consolidator.Consolidate(dbc, person.ID, out); err != nil {
			t.Fatalf("Consolidate #%d: %v", i, err)
		}
		fact, _ := e.repos.Fact.GetCurrent(dbc, person.ID, "years_experience")
		skill, _ := e.repos.Skill.FindByName(dbc, person.ID, "kubernetes")
		if fact.Confidence < prevFact || skill.Confidence < prevSkill || fact.Version <= prevVersion {
			t.Fatalf("round %d went backwards: fact %v v%d skill %v", i, fact.Confidence, fact.Version, skill.Confidence)
		}
		if fact.Confidence > 1 || skill.Confidence > 1 {
			t.Fatalf("confidence above one")
		}
		if got := knowledge.Strings(fact.SourceTurnIDs); len(got) != 1 {
			t.Fatalf("repeated sources should not duplicate: %v", got)
		}
		prevFact, prevSkill, prevVersion = fact.Confidence, skill.Confidence, fact.Version
	}
	if prevFact != 1 || prevSkill != 1 {
		t.Fatalf("confidence should saturate at 1: fact %v skill %v", prevFact, prevSkill)
	}
}

func TestConsolidateAppendsArtifactsAndQuestions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	dbc := dbctx.Context{Ctx: ctx}

	out := &types.ExtractionOutput{
		Module: "assets",
		Artifacts: []types.ArtifactData{
			{ArtifactType: knowledge.ArtifactChecklist, Title: "Launch checklist", Tags: []string{}, SourceTurnIDs: []string{"t1"}},
		},
		OpenQuestions: []types.OpenQuestionData{
			{Module: "goals", Question: "Where next?", Priority: types.PriorityHigh},
		},
		RisksOrContradictions: []types.RiskOrContradiction{{Issue: "dates overlap"}},
	}
	for i := 0; i < 2; i++ {
		stats, err := e.consolidator.Consolidate(dbc, person.ID, out)
		if err != nil {
			t.Fatalf("Consolidate: %v", err)
		}
		if stats.Created.Artifacts != 1 || stats.Created.OpenQuestions != 1 {
			t.Fatalf("stats: %+v", stats)
		}
	}
	n, _ := e.repos.Artifact.Count(dbc, person.ID)
	if n != 2 {
		t.Fatalf("artifacts are append-only, got %d", n)
	}
	open, _ := e.repos.OpenQuestion.CountOpen(dbc, person.ID)
	if open != 2 {
		t.Fatalf("open questions: %d", open)
	}
}

func TestConsolidateCreateDeduplicatesSets(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	dbc := dbctx.Context{Ctx: ctx}

	dup := []string{"t1", "t2", "t1"}
	out := &types.ExtractionOutput{
		Module: "assets",
		Facts: []types.FactData{
			{FactType: "location", Value: map[string]any{"city": "Berlin"}, Confidence: 0.8, SourceTurnIDs: dup},
		},
		Skills: []types.SkillData{
			{Skill: "Go", Level: 3, Tags: []string{}, Confidence: 0.7, SourceTurnIDs: dup},
		},
		Preferences: []types.PreferenceData{
			{Category: "work_style", Value: map[string]any{"remote": true}, Confidence: 0.5, SourceTurnIDs: dup},
		},
		TimelineEntries: []types.TimelineEntryData{
			{StartDate: "2019-03", Org: "TestCorp", Role: "Engineer", Responsibilities: []string{}, Achievements: []string{}, Confidence: 0.8, SourceTurnIDs: dup},
		},
		Artifacts: []types.ArtifactData{
			{ArtifactType: knowledge.ArtifactChecklist, Title: "Launch checklist", Tags: []string{"ops", "ops", "launch"}, SourceTurnIDs: dup},
		},
	}
	if _, err := e.consolidator.Consolidate(dbc, person.ID, out); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	want := []string{"t1", "t2"}

	fact, _ := e.repos.Fact.GetCurrent(dbc, person.ID, "location")
	if got := knowledge.Strings(fact.SourceTurnIDs); !reflect.DeepEqual(got, want) {
		t.Fatalf("fact sources: %v", got)
	}
	skill, _ := e.repos.Skill.FindByName(dbc, person.ID, "go")
	if got := knowledge.Strings(skill.SourceTurnIDs); !reflect.DeepEqual(got, want) {
		t.Fatalf("skill sources: %v", got)
	}
	timeline, _ := e.repos.Timeline.ListByPerson(dbc, person.ID, 0)
	if len(timeline) != 1 || !reflect.DeepEqual(knowledge.Strings(timeline[0].SourceTurnIDs), want) {
		t.Fatalf("timeline sources: %+v", timeline)
	}
	pref, _ := e.repos.Preference.GetByCategory(dbc, person.ID, "work_style")
	if got := knowledge.Strings(pref.SourceTurnIDs); !reflect.DeepEqual(got, want) {
		t.Fatalf("preference sources: %v", got)
	}

	arts, _ := e.repos.Artifact.ListByPerson(dbc, person.ID)
	if len(arts) != 1 {
		t.Fatalf("artifacts: %d", len(arts))
	}
	art := arts[0]
	if got := knowledge.Strings(art.Tags); !reflect.DeepEqual(got, []string{"ops", "launch"}) {
		t.Fatalf("artifact tags: %v", got)
	}
	if got := knowledge.Strings(art.SourceTurnIDs); !reflect.DeepEqual(got, want) {
		t.Fatalf("artifact sources: %v", got)
	}
}
