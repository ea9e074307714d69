package kb

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

// priorityOrder ranks H before M before L.
const priorityOrder = "CASE priority WHEN 'H' THEN 0 WHEN 'M' THEN 1 WHEN 'L' THEN 2 ELSE 3 END"

type OpenQuestionRepo interface {
	Create(dbc dbctx.Context, row *types.OpenQuestion) error
	GetByID(dbc dbctx.Context, personID, id uuid.UUID) (*types.OpenQuestion, error)
	// ListTopOpen returns open questions by priority, then oldest first.
	ListTopOpen(dbc dbctx.Context, personID uuid.UUID, limit int) ([]*types.OpenQuestion, error)
	// ListByPerson filters by status when status is non-empty.
	ListByPerson(dbc dbctx.Context, personID uuid.UUID, status string) ([]*types.OpenQuestion, error)
	UpdateStatus(dbc dbctx.Context, personID, id uuid.UUID, status string) error
	CountOpen(dbc dbctx.Context, personID uuid.UUID) (int64, error)
}

type openQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOpenQuestionRepo(db *gorm.DB, baseLog *logger.Logger) OpenQuestionRepo {
	return &openQuestionRepo{db: db, log: baseLog.With("repo", "OpenQuestionRepo")}
}

func (r *openQuestionRepo) Create(dbc dbctx.Context, row *types.OpenQuestion) error {
	if row == nil || row.PersonID == uuid.Nil {
		return fmt.Errorf("invalid open question")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = types.QuestionOpen
	}
	row.CreatedAt = now
	row.UpdatedAt = now
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *openQuestionRepo) GetByID(dbc dbctx.Context, personID, id uuid.UUID) (*types.OpenQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.OpenQuestion
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND person_id = ?", id, personID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *openQuestionRepo) ListTopOpen(dbc dbctx.Context, personID uuid.UUID, limit int) ([]*types.OpenQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 5
	}
	var out []*types.OpenQuestion
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ? AND status = ?", personID, types.QuestionOpen).
		Order(priorityOrder).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *openQuestionRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID, status string) ([]*types.OpenQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("person_id = ?", personID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.OpenQuestion
	if err := q.Order(priorityOrder).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *openQuestionRepo) UpdateStatus(dbc dbctx.Context, personID, id uuid.UUID, status string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.OpenQuestion{}).
		Where("id = ? AND person_id = ?", id, personID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *openQuestionRepo) CountOpen(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.OpenQuestion{}).
		Where("person_id = ? AND status = ?", personID, types.QuestionOpen).
		Count(&n).Error
	return n, err
}
