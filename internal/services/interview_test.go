package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/catalog"
	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

func newInterview(t *testing.T, e *env, tr Transcriber, storeAudio bool) (InterviewService, CostTracker) {
	t.Helper()
	costs := NewCostTracker(e.log, e.repos.Cost, DefaultCostRates())
	svc := NewInterviewService(e.log, e.repos, catalog.Default(), tr, e.store, costs,
		e.extractor, e.consolidator, e.agent, InterviewConfig{StoreAudio: storeAudio})
	return svc, costs
}

func TestCreateSessionDefaultsToFirstModule(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc, _ := newInterview(t, e, nil, false)
	dbc := dbctx.Context{Ctx: ctx}

	person, err := svc.EnsurePerson(dbc, uuid.New(), "ada@example.com", "Ada")
	if err != nil {
		t.Fatalf("EnsurePerson: %v", err)
	}
	s, err := svc.CreateSession(dbc, person.ID, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Module != catalog.Default().First().ID || s.Status != types.SessionStatusActive {
		t.Fatalf("session: %+v", s)
	}
	var verr *pkgerrors.ValidationError
	if _, err := svc.CreateSession(dbc, person.ID, "hobbies"); !errors.As(err, &verr) {
		t.Fatalf("unknown module: expected ValidationError, got %v", err)
	}

	if _, err := svc.AddTextTurn(dbc, person.ID, s.ID, "user", "hello", nil); err != nil {
		t.Fatalf("AddTextTurn: %v", err)
	}
	list, err := svc.ListSessions(dbc, person.ID)
	if err != nil || len(list) != 1 || list[0].TurnCount != 1 {
		t.Fatalf("ListSessions: %+v %v", list, err)
	}
}

func TestAddTextTurnValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc, _ := newInterview(t, e, nil, false)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "timeline")
	dbc := dbctx.Context{Ctx: ctx}

	var verr *pkgerrors.ValidationError
	if _, err := svc.AddTextTurn(dbc, person.ID, session.ID, "narrator", "hi", nil); !errors.As(err, &verr) || verr.Field != "speaker" {
		t.Fatalf("bad speaker: %v", err)
	}
	if _, err := svc.AddTextTurn(dbc, person.ID, session.ID, "user", "   ", nil); !errors.As(err, &verr) || verr.Field != "transcript" {
		t.Fatalf("blank transcript: %v", err)
	}
	if _, err := svc.AddTextTurn(dbc, uuid.New(), session.ID, "user", "hi", nil); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("foreign person: %v", err)
	}

	if err := e.db.Model(&types.Session{}).Where("id = ?", session.ID).Update("status", types.SessionStatusCompleted).Error; err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.AddTextTurn(dbc, person.ID, session.ID, "user", "late", nil); !errors.Is(err, pkgerrors.ErrSessionCompleted) {
		t.Fatalf("completed session: %v", err)
	}
}

func TestAddAudioTurnTranscribesAndRecordsCost(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc, costs := newInterview(t, e, &fakeTranscriber{text: " I led the platform team. ", seconds: 90}, true)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "timeline")
	dbc := dbctx.Context{Ctx: ctx}

	turn, err := svc.AddAudioTurn(dbc, person.ID, session.ID, AudioInput{Data: []byte("RIFF"), MimeType: "audio/wav", Filename: "answer.wav"})
	if err != nil {
		t.Fatalf("AddAudioTurn: %v", err)
	}
	if turn.Transcript != "I led the platform team." || turn.Speaker != types.SpeakerUser {
		t.Fatalf("turn: %+v", turn)
	}
	wantKey := "audio/" + session.ID.String() + "/" + turn.ID.String() + ".wav"
	if turn.AudioURL != "/uploads/"+wantKey {
		t.Fatalf("audio url: %q", turn.AudioURL)
	}
	var meta map[string]any
	if err := json.Unmarshal(turn.Meta, &meta); err != nil || meta["duration"] != 90.0 || meta["filename"] != "answer.wav" {
		t.Fatalf("meta: %s %v", turn.Meta, err)
	}
	cost, err := costs.SessionCost(dbc, session.ID.String())
	if err != nil || cost <= 0 {
		t.Fatalf("transcription cost not recorded: %v %v", cost, err)
	}
}

func TestAddAudioTurnFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc, _ := newInterview(t, e, &fakeTranscriber{err: pkgerrors.NewProviderError("gcp_speech", "transcribe", errors.New("boom"))}, true)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "timeline")
	dbc := dbctx.Context{Ctx: ctx}

	_, err := svc.AddAudioTurn(dbc, person.ID, session.ID, AudioInput{Data: []byte("x"), MimeType: "audio/webm"})
	var perr *pkgerrors.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	turns, _ := e.repos.Turn.ListBySession(dbc, session.ID)
	if len(turns) != 0 || len(e.store.objs) != 0 {
		t.Fatalf("nothing should be persisted: %d turns, %d objects", len(turns), len(e.store.objs))
	}
}

func TestTriggerExtractionConsolidates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc, _ := newInterview(t, e, nil, false)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "skills")
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := svc.AddTextTurn(dbc, person.ID, session.ID, "user", "I write Go every day.", nil); err != nil {
		t.Fatalf("AddTextTurn: %v", err)
	}

	e.ai.replies = []string{skillsReply}
	res, stats, err := svc.TriggerExtraction(dbc, person.ID, session.ID, nil)
	if err != nil {
		t.Fatalf("TriggerExtraction: %v", err)
	}
	if res.Summary == nil || stats.Created.Skills != 1 || stats.Created.Facts != 1 {
		t.Fatalf("result: %+v stats: %+v", res, stats)
	}
	got, err := svc.GetSession(dbc, person.ID, session.ID)
	if err != nil || len(got.Turns) != 1 {
		t.Fatalf("GetSession: %+v %v", got, err)
	}
}
