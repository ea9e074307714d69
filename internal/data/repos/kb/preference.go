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

type PreferenceRepo interface {
	Create(dbc dbctx.Context, row *types.Preference) error
	GetByCategory(dbc dbctx.Context, personID uuid.UUID, category string) (*types.Preference, error)
	Update(dbc dbctx.Context, row *types.Preference) error
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Preference, error)
	Count(dbc dbctx.Context, personID uuid.UUID) (int64, error)
}

type preferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceRepo {
	return &preferenceRepo{db: db, log: baseLog.With("repo", "PreferenceRepo")}
}

func (r *preferenceRepo) Create(dbc dbctx.Context, row *types.Preference) error {
	if row == nil || row.PersonID == uuid.Nil || strings.TrimSpace(row.Category) == "" {
		return fmt.Errorf("invalid preference")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = now
	row.UpdatedAt = now
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *preferenceRepo) GetByCategory(dbc dbctx.Context, personID uuid.UUID, category string) (*types.Preference, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Preference
	err := forUpdate(transaction.WithContext(dbc.Ctx)).
		Where("person_id = ? AND category = ?", personID, category).
		Order("created_at ASC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *preferenceRepo) Update(dbc dbctx.Context, row *types.Preference) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("invalid preference")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Preference{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"value":           row.Value,
			"confidence":      row.Confidence,
			"source_turn_ids": row.SourceTurnIDs,
			"version":         row.Version,
			"updated_at":      row.UpdatedAt,
		}).Error
}

func (r *preferenceRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Preference, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Preference
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("category ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *preferenceRepo) Count(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.Preference{}).Where("person_id = ?", personID).Count(&n).Error
	return n, err
}
