package services

import (
	"context"

	"github.com/yungbote/careerkb-backend/internal/data/repos"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/openai"
)

// CostRates are USD prices per unit.
type CostRates struct {
	ChatInputPerMillion    float64
	ChatOutputPerMillion   float64
	TTSPerMillionChars     float64
	TranscriptionPerMinute float64
}

func DefaultCostRates() CostRates {
	return CostRates{
		ChatInputPerMillion:    2.50,
		ChatOutputPerMillion:   10.00,
		TTSPerMillionChars:     15.00,
		TranscriptionPerMinute: 0.006,
	}
}

// CostTracker persists provider usage. Recording never fails the caller.
type CostTracker interface {
	openai.UsageRecorder
	RecordTranscription(ctx context.Context, sessionTag string, seconds float64)
	SessionCost(dbc dbctx.Context, sessionTag string) (float64, error)
}

type costTracker struct {
	log   *logger.Logger
	repo  repos.CostRepo
	rates CostRates
}

func NewCostTracker(baseLog *logger.Logger, repo repos.CostRepo, rates CostRates) CostTracker {
	return &costTracker{
		log:   baseLog.With("service", "CostTracker"),
		repo:  repo,
		rates: rates,
	}
}

func (t *costTracker) RecordUsage(ctx context.Context, u openai.Usage) {
	switch u.Service {
	case "chat":
		cost := float64(u.InputTokens)*t.rates.ChatInputPerMillion/1e6 +
			float64(u.OutputTokens)*t.rates.ChatOutputPerMillion/1e6
		t.save(ctx, &types.CostRecord{
			SessionTag: u.SessionTag,
			Service:    "chat",
			Model:      u.Model,
			Units:      float64(u.InputTokens + u.OutputTokens),
			UnitKind:   "tokens",
			CostUSD:    cost,
		})
	case "tts":
		t.save(ctx, &types.CostRecord{
			SessionTag: u.SessionTag,
			Service:    "tts",
			Model:      u.Model,
			Units:      float64(u.Characters),
			UnitKind:   "characters",
			CostUSD:    float64(u.Characters) * t.rates.TTSPerMillionChars / 1e6,
		})
	default:
		t.log.Warn("unknown usage service (continuing)", "service", u.Service)
	}
}

func (t *costTracker) RecordTranscription(ctx context.Context, sessionTag string, seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	t.save(ctx, &types.CostRecord{
		SessionTag: sessionTag,
		Service:    "transcription",
		Model:      "gcp_speech",
		Units:      minutes,
		UnitKind:   "minutes",
		CostUSD:    minutes * t.rates.TranscriptionPerMinute,
	})
}

func (t *costTracker) SessionCost(dbc dbctx.Context, sessionTag string) (float64, error) {
	return t.repo.TotalBySessionTag(dbc, sessionTag)
}

func (t *costTracker) save(ctx context.Context, row *types.CostRecord) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := t.repo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		t.log.Warn("cost tracking failed (continuing)", "service", row.Service, "error", err)
		return
	}
	t.log.Debug("provider cost recorded", "service", row.Service, "units", row.Units, "cost_usd", row.CostUSD)
}
