package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/careerkb-backend/internal/domain"
)

func SeedPerson(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Person {
	tb.Helper()
	p := &types.Person{
		ID:          uuid.New(),
		DisplayName: name,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed person: %v", err)
	}
	return p
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, personID uuid.UUID, module string) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:        uuid.New(),
		PersonID:  personID,
		Module:    module,
		Status:    types.SessionStatusActive,
		StartedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

// SeedTurn inserts a turn at an explicit timestamp so ordering is deterministic.
func SeedTurn(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, speaker, text string, at time.Time) *types.Turn {
	tb.Helper()
	t := &types.Turn{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Speaker:    speaker,
		Transcript: text,
		Timestamp:  at.UTC(),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed turn: %v", err)
	}
	return t
}

func SeedSummary(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, module string, watermark time.Time) *types.Summary {
	tb.Helper()
	s := &types.Summary{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Module:      module,
		Text:        "seeded",
		WatermarkAt: watermark.UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed summary: %v", err)
	}
	return s
}
