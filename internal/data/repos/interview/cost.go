package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type CostRepo interface {
	Create(dbc dbctx.Context, row *types.CostRecord) error
	TotalBySessionTag(dbc dbctx.Context, tag string) (float64, error)
}

type costRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCostRepo(db *gorm.DB, baseLog *logger.Logger) CostRepo {
	return &costRepo{db: db, log: baseLog.With("repo", "CostRepo")}
}

func (r *costRepo) Create(dbc dbctx.Context, row *types.CostRecord) error {
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

func (r *costRepo) TotalBySessionTag(dbc dbctx.Context, tag string) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total float64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.CostRecord{}).
		Where("session_tag = ?", tag).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&total).Error
	return total, err
}
