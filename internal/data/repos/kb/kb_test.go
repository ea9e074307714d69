package kb

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

func TestOpenQuestionPriorityOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	person := testutil.SeedPerson(t, ctx, db, "Ada")
	repo := NewOpenQuestionRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx}

	for _, p := range []string{"L", "M", "H", "M", "H", "L", "H"} {
		if err := repo.Create(dbc, &types.OpenQuestion{PersonID: person.ID, Module: "timeline", Question: "q-" + p, Priority: p}); err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	dismissed := &types.OpenQuestion{PersonID: person.ID, Module: "timeline", Question: "old", Priority: "H"}
	if err := repo.Create(dbc, dismissed); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdateStatus(dbc, person.ID, dismissed.ID, types.QuestionDismissed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	top, err := repo.ListTopOpen(dbc, person.ID, 5)
	if err != nil {
		t.Fatalf("ListTopOpen: %v", err)
	}
	got := ""
	for _, q := range top {
		got += q.Priority
	}
	if got != "HHHMM" {
		t.Fatalf("priority order: got %q want HHHMM", got)
	}
	for i := 1; i < 3; i++ {
		if top[i].CreatedAt.Before(top[i-1].CreatedAt) {
			t.Fatalf("same priority should be oldest first")
		}
	}
	n, err := repo.CountOpen(dbc, person.ID)
	if err != nil || n != 7 {
		t.Fatalf("CountOpen: got %d, %v", n, err)
	}
}

func TestTimelineFindMatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	person := testutil.SeedPerson(t, ctx, db, "Ada")
	repo := NewTimelineRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx}

	end := "2021-06"
	closed := &types.TimelineEntry{PersonID: person.ID, Org: "Acme", Role: "PM", StartDate: "2019-01", EndDate: &end,
		Responsibilities: knowledge.StringsJSON(nil), Achievements: knowledge.StringsJSON(nil), SourceTurnIDs: knowledge.StringsJSON(nil), Version: 1}
	current := &types.TimelineEntry{PersonID: person.ID, Org: "TestCorp", Role: "Lead", StartDate: "2022-01",
		Responsibilities: knowledge.StringsJSON(nil), Achievements: knowledge.StringsJSON(nil), SourceTurnIDs: knowledge.StringsJSON(nil), Version: 1}
	for _, row := range []*types.TimelineEntry{closed, current} {
		if err := repo.Create(dbc, row); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	otherEnd := "2020-01"
	cases := []struct {
		name  string
		org   string
		start string
		end   *string
		want  *types.TimelineEntry
	}{
		{"start date match", "Acme", "2019-01", &otherEnd, closed},
		{"end date match", "Acme", "2018-05", &end, closed},
		{"open ended matches open ended", "TestCorp", "2022-03", nil, current},
		{"open ended does not match closed", "Acme", "2018-05", nil, nil},
		{"different org", "Other", "2019-01", &end, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.FindMatch(dbc, person.ID, tc.org, tc.start, tc.end)
			if err != nil {
				t.Fatalf("FindMatch: %v", err)
			}
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected no match, got %s", got.ID)
				}
				return
			}
			if got == nil || got.ID != tc.want.ID {
				t.Fatalf("expected %s, got %+v", tc.want.ID, got)
			}
		})
	}
}

func TestSkillFindByNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	person := testutil.SeedPerson(t, ctx, db, "Ada")
	repo := NewSkillRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx}

	row := &types.Skill{PersonID: person.ID, Name: "Data Analysis", Level: 3, Confidence: 0.8,
		Tags: knowledge.StringsJSON(nil), SourceTurnIDs: knowledge.StringsJSON(nil), Version: 1}
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.FindByName(dbc, person.ID, "  data analysis ")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got == nil || got.ID != row.ID {
		t.Fatalf("expected case-insensitive match")
	}
	hits, err := repo.Search(dbc, person.ID, "ANALY", 10)
	if err != nil || len(hits) != 1 {
		t.Fatalf("Search: got %d hits, err %v", len(hits), err)
	}
}
