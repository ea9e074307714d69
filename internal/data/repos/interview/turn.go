package interview

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type TurnRepo interface {
	Create(dbc dbctx.Context, row *types.Turn) error
	// ListBySession returns every turn in timestamp order.
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Turn, error)
	// ListAfter returns turns strictly after the watermark; a nil watermark selects all.
	ListAfter(dbc dbctx.Context, sessionID uuid.UUID, after *time.Time) ([]*types.Turn, error)
	ListByIDs(dbc dbctx.Context, sessionID uuid.UUID, ids []uuid.UUID) ([]*types.Turn, error)
	// ListRecent returns the newest limit turns, oldest first.
	ListRecent(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.Turn, error)
	CountAfter(dbc dbctx.Context, sessionID uuid.UUID, speaker string, after *time.Time) (int64, error)
	CountBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type turnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTurnRepo(db *gorm.DB, baseLog *logger.Logger) TurnRepo {
	return &turnRepo{db: db, log: baseLog.With("repo", "TurnRepo")}
}

func (r *turnRepo) Create(dbc dbctx.Context, row *types.Turn) error {
	if row == nil || row.SessionID == uuid.Nil {
		return fmt.Errorf("invalid turn")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Timestamp.IsZero() {
		row.Timestamp = now
	}
	row.CreatedAt = now
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *turnRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Turn, error) {
	return r.ListAfter(dbc, sessionID, nil)
}

func (r *turnRepo) ListAfter(dbc dbctx.Context, sessionID uuid.UUID, after *time.Time) ([]*types.Turn, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Where("session_id = ?", sessionID)
	if after != nil {
		q = q.Where("spoken_at > ?", after.UTC())
	}
	var out []*types.Turn
	if err := q.Order("spoken_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *turnRepo) ListByIDs(dbc dbctx.Context, sessionID uuid.UUID, ids []uuid.UUID) ([]*types.Turn, error) {
	if len(ids) == 0 {
		return []*types.Turn{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Turn
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ? AND id IN ?", sessionID, ids).
		Order("spoken_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *turnRepo) ListRecent(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Turn
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("spoken_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *turnRepo) CountAfter(dbc dbctx.Context, sessionID uuid.UUID, speaker string, after *time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Turn{}).Where("session_id = ?", sessionID)
	if speaker != "" {
		q = q.Where("speaker = ?", speaker)
	}
	if after != nil {
		q = q.Where("spoken_at > ?", after.UTC())
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *turnRepo) CountBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		SessionID uuid.UUID
		N         int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Turn{}).
		Select("session_id, COUNT(*) AS n").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SessionID] = row.N
	}
	return out, nil
}
