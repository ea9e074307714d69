package kb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type ArtifactRepo interface {
	Create(dbc dbctx.Context, row *types.Artifact) error
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Artifact, error)
	Count(dbc dbctx.Context, personID uuid.UUID) (int64, error)
	Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.Artifact, error)
}

type artifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return &artifactRepo{db: db, log: baseLog.With("repo", "ArtifactRepo")}
}

func (r *artifactRepo) Create(dbc dbctx.Context, row *types.Artifact) error {
	if row == nil || row.PersonID == uuid.Nil {
		return fmt.Errorf("invalid artifact")
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

func (r *artifactRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Artifact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Artifact
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artifactRepo) Count(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.Artifact{}).Where("person_id = ?", personID).Count(&n).Error
	return n, err
}

func (r *artifactRepo) Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.Artifact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	pattern := likePattern(q)
	var out []*types.Artifact
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(summary, '')) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("created_at DESC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
