package graph

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/neo4jdb"
)

// KnowledgeSnapshot is the current knowledge base of one person.
type KnowledgeSnapshot struct {
	PersonID    uuid.UUID
	DisplayName string
	Facts       []*types.Fact
	Timeline    []*types.TimelineEntry
	Skills      []*types.Skill
	Preferences []*types.Preference
}

var knowledgeConstraints = []string{
	`CREATE CONSTRAINT person_id_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT organization_name_unique IF NOT EXISTS FOR (o:Organization) REQUIRE o.name IS UNIQUE`,
	`CREATE CONSTRAINT skill_key_unique IF NOT EXISTS FOR (s:Skill) REQUIRE s.key IS UNIQUE`,
}

// UpsertKnowledge projects a person's knowledge base into the graph. The
// projection is idempotent: every node and edge is MERGEd by identity.
func UpsertKnowledge(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, snap KnowledgeSnapshot) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if snap.PersonID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ensureKnowledgeSchema(ctx, client, log)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	pid := snap.PersonID.String()

	factRows := make([]map[string]any, 0, len(snap.Facts))
	for _, f := range snap.Facts {
		if f == nil || f.ID == uuid.Nil {
			continue
		}
		factRows = append(factRows, map[string]any{
			"id":         f.ID.String(),
			"fact_type":  f.FactType,
			"value_json": string(f.Value),
			"confidence": f.Confidence,
			"version":    int64(f.Version),
		})
	}
	roleRows := make([]map[string]any, 0, len(snap.Timeline))
	for _, t := range snap.Timeline {
		if t == nil || t.ID == uuid.Nil || strings.TrimSpace(t.Org) == "" {
			continue
		}
		end := ""
		if t.EndDate != nil {
			end = *t.EndDate
		}
		roleRows = append(roleRows, map[string]any{
			"id":         t.ID.String(),
			"org":        strings.TrimSpace(t.Org),
			"role":       t.Role,
			"start_date": t.StartDate,
			"end_date":   end,
			"confidence": t.Confidence,
		})
	}
	skillRows := make([]map[string]any, 0, len(snap.Skills))
	for _, s := range snap.Skills {
		if s == nil || strings.TrimSpace(s.Name) == "" {
			continue
		}
		skillRows = append(skillRows, map[string]any{
			"key":        SkillKey(s.Name),
			"name":       strings.TrimSpace(s.Name),
			"level":      int64(s.Level),
			"confidence": s.Confidence,
			"tags":       knowledge.Strings(s.Tags),
		})
	}
	prefRows := make([]map[string]any, 0, len(snap.Preferences))
	for _, p := range snap.Preferences {
		if p == nil || p.ID == uuid.Nil {
			continue
		}
		prefRows = append(prefRows, map[string]any{
			"id":         p.ID.String(),
			"category":   p.Category,
			"value_json": string(p.Value),
			"confidence": p.Confidence,
		})
	}

	return client.Write(ctx, func(tx neo4j.ManagedTransaction) error {
		if err := run(ctx, tx, `
MERGE (p:Person {id: $person_id})
SET p.display_name = $display_name, p.synced_at = $synced_at
`, map[string]any{"person_id": pid, "display_name": snap.DisplayName, "synced_at": now}); err != nil {
			return err
		}
		if len(factRows) > 0 {
			if err := run(ctx, tx, `
UNWIND $rows AS r
MATCH (p:Person {id: $person_id})
MERGE (f:Fact {id: r.id})
SET f.fact_type = r.fact_type, f.value_json = r.value_json,
    f.confidence = r.confidence, f.version = r.version, f.synced_at = $synced_at
MERGE (p)-[:HAS_FACT]->(f)
`, map[string]any{"rows": factRows, "person_id": pid, "synced_at": now}); err != nil {
				return err
			}
		}
		if len(roleRows) > 0 {
			if err := run(ctx, tx, `
UNWIND $rows AS r
MATCH (p:Person {id: $person_id})
MERGE (o:Organization {name: r.org})
MERGE (p)-[w:WORKED_AT {entry_id: r.id}]->(o)
SET w.role = r.role, w.start_date = r.start_date, w.end_date = r.end_date,
    w.confidence = r.confidence, w.synced_at = $synced_at
`, map[string]any{"rows": roleRows, "person_id": pid, "synced_at": now}); err != nil {
				return err
			}
		}
		if len(skillRows) > 0 {
			if err := run(ctx, tx, `
UNWIND $rows AS r
MATCH (p:Person {id: $person_id})
MERGE (s:Skill {key: r.key})
ON CREATE SET s.name = r.name
MERGE (p)-[h:HAS_SKILL]->(s)
SET h.level = r.level, h.confidence = r.confidence, h.tags = r.tags, h.synced_at = $synced_at
`, map[string]any{"rows": skillRows, "person_id": pid, "synced_at": now}); err != nil {
				return err
			}
		}
		if len(prefRows) > 0 {
			if err := run(ctx, tx, `
UNWIND $rows AS r
MATCH (p:Person {id: $person_id})
MERGE (x:Preference {id: r.id})
SET x.category = r.category, x.value_json = r.value_json,
    x.confidence = r.confidence, x.synced_at = $synced_at
MERGE (p)-[:PREFERS]->(x)
`, map[string]any{"rows": prefRows, "person_id": pid, "synced_at": now}); err != nil {
				return err
			}
		}
		return nil
	})
}

// SkillKey is the shared node identity for a skill name.
func SkillKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func ensureKnowledgeSchema(ctx context.Context, client *neo4jdb.Client, log *logger.Logger) {
	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	for _, stmt := range knowledgeConstraints {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			if log != nil {
				log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

func run(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) error {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}
