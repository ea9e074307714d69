package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/data/graph"
	"github.com/yungbote/careerkb-backend/internal/data/repos"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/neo4jdb"
)

// GraphSyncService projects a person's knowledge base into Neo4j. Sync is
// best-effort and never returns an error to the caller.
type GraphSyncService interface {
	SyncPerson(dbc dbctx.Context, personID uuid.UUID)
}

type graphSyncService struct {
	log     *logger.Logger
	client  *neo4jdb.Client
	repos   repos.Set
	timeout time.Duration
}

// NewGraphSyncService returns nil when client is nil so callers can skip the
// projection entirely.
func NewGraphSyncService(baseLog *logger.Logger, client *neo4jdb.Client, rs repos.Set) GraphSyncService {
	if client == nil {
		return nil
	}
	return &graphSyncService{
		log:     baseLog.With("service", "GraphSyncService"),
		client:  client,
		repos:   rs,
		timeout: 15 * time.Second,
	}
}

func (s *graphSyncService) SyncPerson(dbc dbctx.Context, personID uuid.UUID) {
	parent := dbc.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	read := dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	snap := graph.KnowledgeSnapshot{PersonID: personID}
	if p, err := s.repos.Person.GetByID(read, personID); err == nil && p != nil {
		snap.DisplayName = p.DisplayName
	}
	var err error
	if snap.Facts, err = s.repos.Fact.ListCurrent(read, personID); err != nil {
		s.log.Warn("graph sync: load facts failed (continuing)", "person_id", personID, "error", err)
		return
	}
	if snap.Timeline, err = s.repos.Timeline.ListByPerson(read, personID, 0); err != nil {
		s.log.Warn("graph sync: load timeline failed (continuing)", "person_id", personID, "error", err)
		return
	}
	if snap.Skills, err = s.repos.Skill.ListByPerson(read, personID, 0); err != nil {
		s.log.Warn("graph sync: load skills failed (continuing)", "person_id", personID, "error", err)
		return
	}
	if snap.Preferences, err = s.repos.Preference.ListByPerson(read, personID); err != nil {
		s.log.Warn("graph sync: load preferences failed (continuing)", "person_id", personID, "error", err)
		return
	}
	if err := graph.UpsertKnowledge(ctx, s.client, s.log, snap); err != nil {
		s.log.Warn("graph sync failed (continuing)", "person_id", personID, "error", err)
		return
	}
	s.log.Debug("graph sync complete", "person_id", personID, "facts", len(snap.Facts), "skills", len(snap.Skills))
}
