package interview

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type SummaryRepo interface {
	Create(dbc dbctx.Context, row *types.Summary) error
	// GetLatest returns the session's current watermark checkpoint, or nil.
	GetLatest(dbc dbctx.Context, sessionID uuid.UUID) (*types.Summary, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Summary, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{db: db, log: baseLog.With("repo", "SummaryRepo")}
}

func (r *summaryRepo) Create(dbc dbctx.Context, row *types.Summary) error {
	if row == nil || row.SessionID == uuid.Nil {
		return fmt.Errorf("invalid summary")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *summaryRepo) GetLatest(dbc dbctx.Context, sessionID uuid.UUID) (*types.Summary, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Summary
	err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("watermark_at DESC").
		Order("created_at DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *summaryRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Summary, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Summary
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
