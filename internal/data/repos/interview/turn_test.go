package interview

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

func TestTurnWindows(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	person := testutil.SeedPerson(t, ctx, db, "Ada")
	session := testutil.SeedSession(t, ctx, db, person.ID, "profile_header")
	repo := NewTurnRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx}

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var turns []*types.Turn
	for i := 0; i < 6; i++ {
		speaker := types.SpeakerAgent
		if i%2 == 1 {
			speaker = types.SpeakerUser
		}
		turns = append(turns, testutil.SeedTurn(t, ctx, db, session.ID, speaker, "t", base.Add(time.Duration(i)*time.Second)))
	}

	all, err := repo.ListAfter(dbc, session.ID, nil)
	if err != nil || len(all) != 6 {
		t.Fatalf("ListAfter(nil): %d %v", len(all), err)
	}
	mark := turns[2].Timestamp
	after, err := repo.ListAfter(dbc, session.ID, &mark)
	if err != nil {
		t.Fatalf("ListAfter: %v", err)
	}
	if len(after) != 3 || after[0].ID != turns[3].ID {
		t.Fatalf("ListAfter should be strict and ordered, got %d", len(after))
	}

	agents, err := repo.CountAfter(dbc, session.ID, types.SpeakerAgent, &mark)
	if err != nil || agents != 1 {
		t.Fatalf("CountAfter: got %d %v", agents, err)
	}

	recent, err := repo.ListRecent(dbc, session.ID, 4)
	if err != nil || len(recent) != 4 {
		t.Fatalf("ListRecent: %d %v", len(recent), err)
	}
	if recent[0].ID != turns[2].ID || recent[3].ID != turns[5].ID {
		t.Fatalf("ListRecent should return the newest turns oldest first")
	}

	picked, err := repo.ListByIDs(dbc, session.ID, []uuid.UUID{turns[4].ID, turns[1].ID, uuid.New()})
	if err != nil || len(picked) != 2 || picked[0].ID != turns[1].ID {
		t.Fatalf("ListByIDs: %d %v", len(picked), err)
	}

	counts, err := repo.CountBySessions(dbc, []uuid.UUID{session.ID})
	if err != nil || counts[session.ID] != 6 {
		t.Fatalf("CountBySessions: %v %v", counts, err)
	}
}
