package interview

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/careerkb-backend/internal/data/db"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, row *types.Session) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	// GetForUpdate reads the session holding a row lock where the dialect supports it.
	GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Session, error)
	CountByPerson(dbc dbctx.Context, personID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, row *types.Session) error {
	if row == nil || row.PersonID == uuid.Nil {
		return fmt.Errorf("invalid session")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.StartedAt.IsZero() {
		row.StartedAt = now
	}
	row.CreatedAt = now
	row.UpdatedAt = now
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	return r.get(dbc, id, false)
}

func (r *sessionRepo) GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	return r.get(dbc, id, true)
}

func (r *sessionRepo) get(dbc dbctx.Context, id uuid.UUID, lock bool) (*types.Session, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Session{}).Where("id = ?", id)
	if lock && db.ForUpdate(transaction) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Session
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Session
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("started_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) CountByPerson(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.Session{}).Where("person_id = ?", personID).Count(&n).Error
	return n, err
}

func (r *sessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing session id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Session{}).
		Where("id = ?", id).
		Updates(updates).Error
}
