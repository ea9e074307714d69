package kb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type FactRepo interface {
	Create(dbc dbctx.Context, row *types.Fact) error
	// GetCurrent returns the currently valid fact for (person, type), locked for
	// update when called inside a transaction on Postgres.
	GetCurrent(dbc dbctx.Context, personID uuid.UUID, factType string) (*types.Fact, error)
	Update(dbc dbctx.Context, row *types.Fact) error
	ListCurrent(dbc dbctx.Context, personID uuid.UUID) ([]*types.Fact, error)
	CountCurrent(dbc dbctx.Context, personID uuid.UUID) (int64, error)
	Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.Fact, error)
}

type factRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactRepo(db *gorm.DB, baseLog *logger.Logger) FactRepo {
	return &factRepo{db: db, log: baseLog.With("repo", "FactRepo")}
}

func (r *factRepo) Create(dbc dbctx.Context, row *types.Fact) error {
	if row == nil || row.PersonID == uuid.Nil || strings.TrimSpace(row.FactType) == "" {
		return fmt.Errorf("invalid fact")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ValidFrom.IsZero() {
		row.ValidFrom = now
	}
	row.CreatedAt = now
	row.UpdatedAt = now
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *factRepo) GetCurrent(dbc dbctx.Context, personID uuid.UUID, factType string) (*types.Fact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Fact
	err := forUpdate(transaction.WithContext(dbc.Ctx)).
		Where("person_id = ? AND fact_type = ? AND valid_to IS NULL", personID, factType).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *factRepo) Update(dbc dbctx.Context, row *types.Fact) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("invalid fact")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Fact{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"value":           row.Value,
			"confidence":      row.Confidence,
			"source_turn_ids": row.SourceTurnIDs,
			"version":         row.Version,
			"valid_to":        row.ValidTo,
			"updated_at":      row.UpdatedAt,
		}).Error
}

func (r *factRepo) ListCurrent(dbc dbctx.Context, personID uuid.UUID) ([]*types.Fact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Fact
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ? AND valid_to IS NULL", personID).
		Order("fact_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *factRepo) CountCurrent(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.Fact{}).
		Where("person_id = ? AND valid_to IS NULL", personID).
		Count(&n).Error
	return n, err
}

func (r *factRepo) Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.Fact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Fact
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ? AND valid_to IS NULL", personID).
		Where(`LOWER(fact_type) LIKE ? ESCAPE '\'`, likePattern(q)).
		Order("fact_type ASC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
