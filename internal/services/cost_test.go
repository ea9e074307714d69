package services

import (
	"context"
	"math"
	"testing"

	"github.com/yungbote/careerkb-backend/internal/data/repos"
	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/openai"
)

func TestCostTrackerTotals(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tracker := NewCostTracker(log, repos.NewCostRepo(db, log), CostRates{
		ChatInputPerMillion:    1,
		ChatOutputPerMillion:   2,
		TTSPerMillionChars:     10,
		TranscriptionPerMinute: 0.5,
	})

	tracker.RecordUsage(ctx, openai.Usage{Service: "chat", Model: "gpt-4o", SessionTag: "s1", InputTokens: 1_000_000, OutputTokens: 500_000})
	tracker.RecordUsage(ctx, openai.Usage{Service: "tts", Model: "tts-1", SessionTag: "s1", Characters: 100_000})
	tracker.RecordTranscription(ctx, "s1", 120)
	tracker.RecordTranscription(ctx, "s2", 60)
	tracker.RecordUsage(ctx, openai.Usage{Service: "embeddings", SessionTag: "s1"})

	got, err := tracker.SessionCost(dbctx.Context{Ctx: ctx}, "s1")
	if err != nil {
		t.Fatalf("SessionCost: %v", err)
	}
	// chat 1 + 1, tts 1, transcription 2 minutes * 0.5
	if want := 4.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("s1 total: got %v want %v", got, want)
	}
	if got, _ := tracker.SessionCost(dbctx.Context{Ctx: ctx}, "none"); got != 0 {
		t.Fatalf("unknown tag: %v", got)
	}
}
