package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/careerkb-backend/internal/data/repos"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

const (
	SearchFacts     = "fact"
	SearchTimeline  = "timeline_entry"
	SearchSkills    = "skill"
	SearchArtifacts = "artifact"

	ExportJSON     = "json"
	ExportMarkdown = "markdown"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type SearchHit struct {
	Type string `json:"type"`
	Item any    `json:"item"`
}

type SearchResult struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}

type KBStats struct {
	Facts         int64 `json:"facts"`
	Timeline      int64 `json:"timeline"`
	Skills        int64 `json:"skills"`
	Preferences   int64 `json:"preferences"`
	Artifacts     int64 `json:"artifacts"`
	OpenQuestions int64 `json:"open_questions"`
	Sessions      int64 `json:"sessions"`
}

type ExportPerson struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// KnowledgeExport is a point-in-time copy of a person's knowledge base.
type KnowledgeExport struct {
	Person      ExportPerson           `json:"person"`
	ExportedAt  time.Time              `json:"exported_at"`
	Facts       []*types.Fact          `json:"facts"`
	Timeline    []*types.TimelineEntry `json:"timeline"`
	Skills      []*types.Skill         `json:"skills"`
	Preferences []*types.Preference    `json:"preferences"`
	Artifacts   []*types.Artifact      `json:"artifacts"`
	Stats       KBStats                `json:"stats"`
}

type KnowledgeService interface {
	Search(dbc dbctx.Context, personID uuid.UUID, q string, kinds []string, limit int) (*SearchResult, error)
	Export(dbc dbctx.Context, personID uuid.UUID) (*KnowledgeExport, error)
	Stats(dbc dbctx.Context, personID uuid.UUID) (*KBStats, error)
	ListOpenQuestions(dbc dbctx.Context, personID uuid.UUID, status string) ([]*types.OpenQuestion, error)
	SetOpenQuestionStatus(dbc dbctx.Context, personID, questionID uuid.UUID, status string) (*types.OpenQuestion, error)
}

type knowledgeService struct {
	log   *logger.Logger
	repos repos.Set
}

func NewKnowledgeService(baseLog *logger.Logger, rs repos.Set) KnowledgeService {
	return &knowledgeService{
		log:   baseLog.With("service", "KnowledgeService"),
		repos: rs,
	}
}

func (s *knowledgeService) Search(dbc dbctx.Context, personID uuid.UUID, q string, kinds []string, limit int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, &pkgerrors.ValidationError{Field: "q", Reason: "required"}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	want, err := searchKinds(kinds)
	if err != nil {
		return nil, err
	}

	hits := []SearchHit{}
	if want[SearchFacts] {
		rows, err := s.repos.Fact.Search(dbc, personID, q, limit)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			hits = append(hits, SearchHit{Type: SearchFacts, Item: r})
		}
	}
	if want[SearchTimeline] {
		rows, err := s.repos.Timeline.Search(dbc, personID, q, limit)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			hits = append(hits, SearchHit{Type: SearchTimeline, Item: r})
		}
	}
	if want[SearchSkills] {
		rows, err := s.repos.Skill.Search(dbc, personID, q, limit)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			hits = append(hits, SearchHit{Type: SearchSkills, Item: r})
		}
	}
	if want[SearchArtifacts] {
		rows, err := s.repos.Artifact.Search(dbc, personID, q, limit)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			hits = append(hits, SearchHit{Type: SearchArtifacts, Item: r})
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return &SearchResult{Query: q, Count: len(hits), Results: hits}, nil
}

func searchKinds(kinds []string) (map[string]bool, error) {
	all := map[string]bool{SearchFacts: true, SearchTimeline: true, SearchSkills: true, SearchArtifacts: true}
	want := map[string]bool{}
	for _, k := range kinds {
		k = strings.ToLower(strings.TrimSpace(k))
		switch k {
		case "":
			continue
		case "facts":
			k = SearchFacts
		case "timeline", "timeline_entries":
			k = SearchTimeline
		case "skills":
			k = SearchSkills
		case "artifacts":
			k = SearchArtifacts
		}
		if !all[k] {
			return nil, &pkgerrors.ValidationError{Field: "types", Reason: fmt.Sprintf("unknown type %q", k)}
		}
		want[k] = true
	}
	if len(want) == 0 {
		return all, nil
	}
	return want, nil
}

func (s *knowledgeService) Export(dbc dbctx.Context, personID uuid.UUID) (*KnowledgeExport, error) {
	p, err := s.repos.Person.GetByID(dbc, personID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pkgerrors.ErrNotFound
	}
	out := &KnowledgeExport{
		Person:     ExportPerson{ID: p.ID, DisplayName: p.DisplayName, Email: p.Email},
		ExportedAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(dbc.Ctx)
	read := dbctx.Context{Ctx: gctx, Tx: dbc.Tx}
	g.Go(func() (err error) {
		out.Facts, err = s.repos.Fact.ListCurrent(read, personID)
		return err
	})
	g.Go(func() (err error) {
		out.Timeline, err = s.repos.Timeline.ListByPerson(read, personID, 0)
		return err
	})
	g.Go(func() (err error) {
		out.Skills, err = s.repos.Skill.ListByPerson(read, personID, 0)
		return err
	})
	g.Go(func() (err error) {
		out.Preferences, err = s.repos.Preference.ListByPerson(read, personID)
		return err
	})
	g.Go(func() (err error) {
		out.Artifacts, err = s.repos.Artifact.ListByPerson(read, personID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Stats = KBStats{
		Facts:       int64(len(out.Facts)),
		Timeline:    int64(len(out.Timeline)),
		Skills:      int64(len(out.Skills)),
		Preferences: int64(len(out.Preferences)),
		Artifacts:   int64(len(out.Artifacts)),
	}
	s.log.Debug("kb exported", "person_id", personID, "facts", out.Stats.Facts, "timeline", out.Stats.Timeline)
	return out, nil
}

func (s *knowledgeService) Stats(dbc dbctx.Context, personID uuid.UUID) (*KBStats, error) {
	var st KBStats
	g, gctx := errgroup.WithContext(dbc.Ctx)
	read := dbctx.Context{Ctx: gctx, Tx: dbc.Tx}
	g.Go(func() (err error) { st.Facts, err = s.repos.Fact.CountCurrent(read, personID); return })
	g.Go(func() (err error) { st.Timeline, err = s.repos.Timeline.Count(read, personID); return })
	g.Go(func() (err error) { st.Skills, err = s.repos.Skill.Count(read, personID); return })
	g.Go(func() (err error) { st.Preferences, err = s.repos.Preference.Count(read, personID); return })
	g.Go(func() (err error) { st.Artifacts, err = s.repos.Artifact.Count(read, personID); return })
	g.Go(func() (err error) { st.OpenQuestions, err = s.repos.OpenQuestion.CountOpen(read, personID); return })
	g.Go(func() (err error) { st.Sessions, err = s.repos.Session.CountByPerson(read, personID); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *knowledgeService) ListOpenQuestions(dbc dbctx.Context, personID uuid.UUID, status string) ([]*types.OpenQuestion, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !knowledge.ValidQuestionStatus(status) {
		return nil, &pkgerrors.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid value %q", status)}
	}
	return s.repos.OpenQuestion.ListByPerson(dbc, personID, status)
}

func (s *knowledgeService) SetOpenQuestionStatus(dbc dbctx.Context, personID, questionID uuid.UUID, status string) (*types.OpenQuestion, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !knowledge.ValidQuestionStatus(status) {
		return nil, &pkgerrors.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid value %q", status)}
	}
	q, err := s.repos.OpenQuestion.GetByID(dbc, personID, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, pkgerrors.ErrNotFound
	}
	if err := s.repos.OpenQuestion.UpdateStatus(dbc, personID, questionID, status); err != nil {
		return nil, err
	}
	q.Status = status
	s.log.Info("open question status changed", "person_id", personID, "question_id", questionID, "status", status)
	return q, nil
}

// RenderMarkdown formats an export as a human-readable document.
func RenderMarkdown(e *KnowledgeExport) string {
	var b strings.Builder
	name := e.Person.DisplayName
	if name == "" {
		name = e.Person.ID.String()
	}
	fmt.Fprintf(&b, "# Knowledge Base: %s\n\n", name)
	fmt.Fprintf(&b, "Exported: %s\n\n", e.ExportedAt.Format(time.RFC3339))

	b.WriteString("## Career Timeline\n\n")
	for _, t := range e.Timeline {
		end := "Present"
		if t.EndDate != nil && *t.EndDate != "" {
			end = *t.EndDate
		}
		fmt.Fprintf(&b, "### %s at %s\n", t.Role, t.Org)
		fmt.Fprintf(&b, "**Period:** %s - %s\n\n", t.StartDate, end)
		writeBullets(&b, "Responsibilities", knowledge.Strings(t.Responsibilities))
		writeBullets(&b, "Achievements", knowledge.Strings(t.Achievements))
		if kpis := knowledge.KPIs(t.KPIs); len(kpis) > 0 {
			b.WriteString("**KPIs:**\n")
			for _, k := range kpis {
				fmt.Fprintf(&b, "- %s: %s\n", k.Name, k.Value)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Skills\n\n")
	for _, sk := range e.Skills {
		fmt.Fprintf(&b, "- **%s** (Level %d/5)", sk.Name, sk.Level)
		if sk.Evidence != nil && *sk.Evidence != "" {
			fmt.Fprintf(&b, ": %s", *sk.Evidence)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Facts\n\n")
	for _, f := range e.Facts {
		fmt.Fprintf(&b, "- **%s**: %s\n", f.FactType, string(f.Value))
	}

	if len(e.Preferences) > 0 {
		b.WriteString("\n## Preferences\n\n")
		for _, p := range e.Preferences {
			fmt.Fprintf(&b, "- **%s**: %s\n", p.Category, string(p.Value))
		}
	}
	if len(e.Artifacts) > 0 {
		b.WriteString("\n## Artifacts\n\n")
		for _, a := range e.Artifacts {
			fmt.Fprintf(&b, "- **%s** (%s)", a.Title, a.ArtifactType)
			if a.Summary != nil && *a.Summary != "" {
				fmt.Fprintf(&b, ": %s", *a.Summary)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeBullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
