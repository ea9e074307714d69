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

type TimelineRepo interface {
	Create(dbc dbctx.Context, row *types.TimelineEntry) error
	// FindMatch looks up an entry at org whose start date equals startDate or
	// whose end date equals endDate. A nil endDate matches open-ended entries.
	FindMatch(dbc dbctx.Context, personID uuid.UUID, org, startDate string, endDate *string) (*types.TimelineEntry, error)
	Update(dbc dbctx.Context, row *types.TimelineEntry) error
	// ListByPerson orders by start date, newest first. limit <= 0 means all.
	ListByPerson(dbc dbctx.Context, personID uuid.UUID, limit int) ([]*types.TimelineEntry, error)
	Count(dbc dbctx.Context, personID uuid.UUID) (int64, error)
	Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.TimelineEntry, error)
}

type timelineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimelineRepo(db *gorm.DB, baseLog *logger.Logger) TimelineRepo {
	return &timelineRepo{db: db, log: baseLog.With("repo", "TimelineRepo")}
}

func (r *timelineRepo) Create(dbc dbctx.Context, row *types.TimelineEntry) error {
	if row == nil || row.PersonID == uuid.Nil || strings.TrimSpace(row.Org) == "" {
		return fmt.Errorf("invalid timeline entry")
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

func (r *timelineRepo) FindMatch(dbc dbctx.Context, personID uuid.UUID, org, startDate string, endDate *string) (*types.TimelineEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := forUpdate(transaction.WithContext(dbc.Ctx)).
		Where("person_id = ? AND org = ?", personID, org)
	if endDate == nil {
		q = q.Where("(start_date = ? OR end_date IS NULL)", startDate)
	} else {
		q = q.Where("(start_date = ? OR end_date = ?)", startDate, *endDate)
	}
	var out types.TimelineEntry
	err := q.Order("created_at ASC").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *timelineRepo) Update(dbc dbctx.Context, row *types.TimelineEntry) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("invalid timeline entry")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.TimelineEntry{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"responsibilities": row.Responsibilities,
			"achievements":     row.Achievements,
			"kpis":             row.KPIs,
			"confidence":       row.Confidence,
			"source_turn_ids":  row.SourceTurnIDs,
			"version":          row.Version,
			"updated_at":       row.UpdatedAt,
		}).Error
}

func (r *timelineRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID, limit int) ([]*types.TimelineEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("start_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.TimelineEntry
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *timelineRepo) Count(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.TimelineEntry{}).Where("person_id = ?", personID).Count(&n).Error
	return n, err
}

func (r *timelineRepo) Search(dbc dbctx.Context, personID uuid.UUID, q string, limit int) ([]*types.TimelineEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	pattern := likePattern(q)
	var out []*types.TimelineEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Where(`(LOWER(org) LIKE ? ESCAPE '\' OR LOWER(role) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("start_date DESC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
