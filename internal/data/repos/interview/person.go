package interview

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

type PersonRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Person, error)
	// Ensure creates the person if missing and fills empty profile fields.
	Ensure(dbc dbctx.Context, row *types.Person) (*types.Person, error)
}

type personRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonRepo(db *gorm.DB, baseLog *logger.Logger) PersonRepo {
	return &personRepo{db: db, log: baseLog.With("repo", "PersonRepo")}
}

func (r *personRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Person, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Person
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *personRepo) Ensure(dbc dbctx.Context, row *types.Person) (*types.Person, error) {
	if row == nil || row.ID == uuid.Nil {
		return nil, fmt.Errorf("invalid person")
	}
	existing, err := r.GetByID(dbc, row.ID)
	if err != nil {
		return nil, err
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if existing == nil {
		row.CreatedAt = now
		row.UpdatedAt = now
		if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
			return nil, err
		}
		return row, nil
	}

	updates := map[string]interface{}{}
	if existing.Email == "" && strings.TrimSpace(row.Email) != "" {
		updates["email"] = strings.TrimSpace(row.Email)
	}
	if existing.DisplayName == "" && strings.TrimSpace(row.DisplayName) != "" {
		updates["display_name"] = strings.TrimSpace(row.DisplayName)
	}
	if len(updates) == 0 {
		return existing, nil
	}
	updates["updated_at"] = now
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Person{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(dbc, existing.ID)
}
