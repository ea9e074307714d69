package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/app"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// graph_backfill re-projects knowledge bases into Neo4j, e.g. after the graph
// was enabled on an existing database.
func main() {
	var people idList
	var dryRun bool
	var limit int
	flag.Var(&people, "person", "person_id to project (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "print the people that would be projected")
	flag.IntVar(&limit, "limit", 0, "limit number of people processed")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if application.Services.GraphSync == nil && !dryRun {
		fmt.Println("NEO4J_URI is not configured; nothing to do")
		return
	}

	var rows []*types.Person
	q := application.DB.WithContext(ctx).Order("created_at ASC")
	if len(people) > 0 {
		ids := make([]uuid.UUID, 0, len(people))
		for _, p := range people {
			if id, err := uuid.Parse(p); err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid person_id values provided")
			return
		}
		q = q.Where("id IN ?", ids)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		fmt.Printf("load people: %v\n", err)
		os.Exit(1)
	}

	dbc := dbctx.Context{Ctx: ctx}
	for _, p := range rows {
		if dryRun {
			fmt.Printf("would project person=%s\n", p.ID)
			continue
		}
		application.Services.GraphSync.SyncPerson(dbc, p.ID)
		fmt.Printf("projected person=%s\n", p.ID)
	}
	fmt.Printf("done: %d people\n", len(rows))
}
