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

type SkillRepo interface {
	Create(dbc dbctx.Context, row *types.Skill) error
	// FindByName matches case-insensitively on the trimmed skill name.
	FindByName(dbc dbctx.Context, personID uuid.UUID, name string) (*types.Skill, error)
	Update(dbc dbctx.Context, row *types.Skill) error
	// ListByPerson orders by name. limit <= 0 means all.
	ListByPerson(dbc dbctx.Context, personID uuid.UUID, limit int) ([]*types.Skill, error)
	Count(dbc dbctx.Context, personID uuid.UUID) (int64, error)
	Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.Skill, error)
}

type skillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo {
	return &skillRepo{db: db, log: baseLog.With("repo", "SkillRepo")}
}

func (r *skillRepo) Create(dbc dbctx.Context, row *types.Skill) error {
	if row == nil || row.PersonID == uuid.Nil || strings.TrimSpace(row.Name) == "" {
		return fmt.Errorf("invalid skill")
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

func (r *skillRepo) FindByName(dbc dbctx.Context, personID uuid.UUID, name string) (*types.Skill, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Skill
	err := forUpdate(transaction.WithContext(dbc.Ctx)).
		Where("person_id = ? AND LOWER(TRIM(skill)) = ?", personID, strings.ToLower(strings.TrimSpace(name))).
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

func (r *skillRepo) Update(dbc dbctx.Context, row *types.Skill) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("invalid skill")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Skill{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"level":           row.Level,
			"evidence":        row.Evidence,
			"tags":            row.Tags,
			"confidence":      row.Confidence,
			"source_turn_ids": row.SourceTurnIDs,
			"version":         row.Version,
			"updated_at":      row.UpdatedAt,
		}).Error
}

func (r *skillRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID, limit int) ([]*types.Skill, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("skill ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Skill
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillRepo) Count(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.Skill{}).Where("person_id = ?", personID).Count(&n).Error
	return n, err
}

func (r *skillRepo) Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.Skill, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Skill
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Where(`LOWER(skill) LIKE ? ESCAPE '\'`, likePattern(q)).
		Order("skill ASC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
