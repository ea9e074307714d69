package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

func TestShouldTriggerExtraction(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	// stakeholders expects 6 turns
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "stakeholders")
	dbc := dbctx.Context{Ctx: ctx}

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		testutil.SeedTurn(t, ctx, e.db, session.ID, types.SpeakerAgent, "q", base.Add(time.Duration(2*i)*time.Second))
		testutil.SeedTurn(t, ctx, e.db, session.ID, types.SpeakerUser, "a", base.Add(time.Duration(2*i+1)*time.Second))
	}
	should, err := e.agent.ShouldTriggerExtraction(dbc, session.ID)
	if err != nil || should {
		t.Fatalf("5 agent turns: should=%v err=%v", should, err)
	}
	last := testutil.SeedTurn(t, ctx, e.db, session.ID, types.SpeakerAgent, "q", base.Add(20*time.Second))
	if should, _ = e.agent.ShouldTriggerExtraction(dbc, session.ID); !should {
		t.Fatalf("6 agent turns should trigger")
	}

	// a summary at the last turn resets the count
	testutil.SeedSummary(t, ctx, e.db, session.ID, "stakeholders", last.Timestamp)
	if should, _ = e.agent.ShouldTriggerExtraction(dbc, session.ID); should {
		t.Fatalf("turns before the watermark must not count")
	}
}

func TestAdvanceModuleToCompletion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "stakeholders")
	dbc := dbctx.Context{Ctx: ctx}

	got, err := e.agent.AdvanceModule(dbc, session.ID)
	if err != nil {
		t.Fatalf("AdvanceModule: %v", err)
	}
	if got.Module != "goals" || got.Completed() {
		t.Fatalf("after stakeholders: %s %s", got.Module, got.Status)
	}
	got, err = e.agent.AdvanceModule(dbc, session.ID)
	if err != nil {
		t.Fatalf("AdvanceModule: %v", err)
	}
	if !got.Completed() || got.EndedAt == nil || got.Module != "goals" {
		t.Fatalf("last module should complete: %+v", got)
	}
	stored, _ := e.repos.Session.GetByID(dbc, session.ID)
	if !stored.Completed() {
		t.Fatalf("completion not persisted")
	}
	if _, err := e.agent.AdvanceModule(dbc, session.ID); !errors.Is(err, pkgerrors.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}
}

func TestGetNextQuestionStoresSpeech(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "goals")
	dbc := dbctx.Context{Ctx: ctx}
	if err := e.repos.OpenQuestion.Create(dbc, &types.OpenQuestion{PersonID: person.ID, Module: "goals", Question: "Why leave?", Priority: types.PriorityHigh, Status: types.QuestionOpen}); err != nil {
		t.Fatalf("seed question: %v", err)
	}

	e.ai.replies = []string{"  Where do you want to be in five years?  "}
	q, err := e.agent.GetNextQuestion(dbc, session.ID)
	if err != nil {
		t.Fatalf("GetNextQuestion: %v", err)
	}
	if q.Question != "Where do you want to be in five years?" {
		t.Fatalf("question: %q", q.Question)
	}
	wantKey := "tts/" + session.ID.String() + "/" + q.Turn.ID.String() + ".mp3"
	if _, ok := e.store.objs[wantKey]; !ok || q.AudioURL != "/uploads/"+wantKey {
		t.Fatalf("audio not stored at %s: %q", wantKey, q.AudioURL)
	}
	opts := e.ai.calls[0]
	if opts.Temperature != questionTemperature || opts.MaxOutputTokens != questionMaxTokens || opts.JSONMode {
		t.Fatalf("completion options: %+v", opts)
	}
	system := e.ai.prompts[0][0].Content
	if !strings.Contains(system, "[H] Why leave?") || !strings.Contains(system, "0 / 6 questions") {
		t.Fatalf("system prompt missing context:\n%s", system)
	}
	if user := e.ai.prompts[0][1].Content; strings.Contains(user, "Why leave?") {
		t.Fatalf("open questions belong in the system prompt:\n%s", user)
	}

	turns, _ := e.repos.Turn.ListBySession(dbc, session.ID)
	if len(turns) != 1 || turns[0].Speaker != types.SpeakerAgent || turns[0].AudioURL == "" {
		t.Fatalf("agent turn not persisted: %+v", turns)
	}
}

func TestGetNextQuestionSpeechFailureFallsBackToText(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "goals")
	dbc := dbctx.Context{Ctx: ctx}

	e.ai.ttsErr = errors.New("tts down")
	e.ai.replies = []string{"What motivates you?"}
	q, err := e.agent.GetNextQuestion(dbc, session.ID)
	if err != nil {
		t.Fatalf("GetNextQuestion: %v", err)
	}
	if q.AudioURL != "" || q.Turn.AudioURL != "" {
		t.Fatalf("expected text-only question, got %q", q.AudioURL)
	}
	if e.ai.ttsCalls != 1 {
		t.Fatalf("tts calls: %d", e.ai.ttsCalls)
	}
}

func TestGetNextQuestionEmptyReply(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "goals")

	e.ai.replies = []string{"   "}
	_, err := e.agent.GetNextQuestion(dbctx.Context{Ctx: ctx}, session.ID)
	var perr *pkgerrors.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestNextOnCompletedSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "goals")
	if err := e.db.Model(&types.Session{}).Where("id = ?", session.ID).Update("status", types.SessionStatusCompleted).Error; err != nil {
		t.Fatalf("complete session: %v", err)
	}

	res, err := e.agent.Next(dbctx.Context{Ctx: ctx}, person.ID, session.ID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !res.Completed || res.Question != "" || len(e.ai.calls) != 0 {
		t.Fatalf("completed session should short-circuit: %+v", res)
	}
}

func TestNextExtractsWhenModuleIsFull(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	person := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, person.ID, "stakeholders")
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 6; i++ {
		testutil.SeedTurn(t, ctx, e.db, session.ID, types.SpeakerAgent, "Who do you work with?", base.Add(time.Duration(2*i)*time.Second))
		testutil.SeedTurn(t, ctx, e.db, session.ID, types.SpeakerUser, "Product and design.", base.Add(time.Duration(2*i+1)*time.Second))
	}

	e.ai.replies = []string{
		`{"module":"stakeholders","facts":[{"fact_type":"partners","value":{"teams":["product","design"]},"source_turn_ids":[]}]}`,
		"What are you aiming for next?",
	}
	res, err := e.agent.Next(dbctx.Context{Ctx: ctx}, person.ID, session.ID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !res.ShouldExtract || res.Stats == nil || res.Stats.Created.Facts != 1 {
		t.Fatalf("expected extraction: %+v", res)
	}
	if res.Module != "goals" || res.Completed {
		t.Fatalf("module should advance to goals: %+v", res)
	}
	if res.Question != "What are you aiming for next?" {
		t.Fatalf("question: %q", res.Question)
	}
}

func TestNextRejectsForeignSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := testutil.SeedPerson(t, ctx, e.db, "Ada")
	session := testutil.SeedSession(t, ctx, e.db, owner.ID, "goals")

	_, err := e.agent.Next(dbctx.Context{Ctx: ctx}, uuid.New(), session.ID)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
