package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/catalog"
	"github.com/yungbote/careerkb-backend/internal/data/repos"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
	"github.com/yungbote/careerkb-backend/internal/observability"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/locks"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/openai"
	"github.com/yungbote/careerkb-backend/internal/prompts"
)

const (
	extractionTemperature = 0.1
	extractionMaxTokens   = 3000

	digestTimelineLimit = 10
	digestSkillLimit    = 20
)

type ExtractionResult struct {
	Output  *types.ExtractionOutput `json:"extracted"`
	Summary *types.Summary          `json:"summary"`
	TurnIDs []uuid.UUID             `json:"turn_ids"`
}

type ExtractorService interface {
	// Extract selects turnIDs, or every turn past the session watermark when
	// turnIDs is empty, and returns the validated extraction. A new Summary
	// advances the watermark.
	Extract(dbc dbctx.Context, sessionID uuid.UUID, turnIDs []uuid.UUID) (*ExtractionResult, error)
}

type ExtractorConfig struct {
	Model string
}

type extractorService struct {
	db      *gorm.DB
	log     *logger.Logger
	locker  locks.Locker
	repos   repos.Set
	ai      openai.Client
	catalog *catalog.Catalog
	cfg     ExtractorConfig
}

func NewExtractorService(db *gorm.DB, baseLog *logger.Logger, locker locks.Locker, rs repos.Set, ai openai.Client, cat *catalog.Catalog, cfg ExtractorConfig) ExtractorService {
	if locker == nil {
		locker = locks.NewLocal()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &extractorService{
		db:      db,
		log:     baseLog.With("service", "ExtractorService"),
		locker:  locker,
		repos:   rs,
		ai:      ai,
		catalog: cat,
		cfg:     cfg,
	}
}

func (s *extractorService) Extract(dbc dbctx.Context, sessionID uuid.UUID, turnIDs []uuid.UUID) (res *ExtractionResult, err error) {
	ctx, span := observability.StartSpan(dbc.Ctx, "kb.extract",
		attribute.String("session_id", sessionID.String()),
		attribute.Int("explicit_turns", len(turnIDs)),
	)
	defer func() { observability.EndSpan(span, err) }()

	unlock, err := s.locker.Lock(ctx, "extract:"+sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire extraction lock: %w", err)
	}
	defer unlock()

	read := dbctx.Context{Ctx: ctx}
	session, err := s.repos.Session.GetByID(read, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, pkgerrors.ErrNotFound)
	}

	latest, err := s.repos.Summary.GetLatest(read, sessionID)
	if err != nil {
		return nil, err
	}
	var turns []*types.Turn
	if len(turnIDs) > 0 {
		turns, err = s.repos.Turn.ListByIDs(read, sessionID, turnIDs)
	} else {
		turns, err = s.repos.Turn.ListAfter(read, sessionID, watermarkOf(latest))
	}
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, pkgerrors.ErrNoTurns
	}

	module, ok := s.catalog.Get(session.Module)
	if !ok {
		module = s.catalog.First()
	}
	digest, err := s.knowledgeDigest(read, session.PersonID, module.ID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Build(prompts.PromptExtraction, prompts.Input{
		ModuleID:        module.ID,
		ExtractionFocus: module.ExtractionFocus,
		Transcript:      formatTranscript(turns, true),
		ExistingSummary: digest,
	})
	if err != nil {
		return nil, err
	}
	raw, err := s.ai.Complete(ctx, []openai.Message{
		{Role: openai.RoleSystem, Content: prompt.System},
		{Role: openai.RoleUser, Content: prompt.User},
	}, openai.CompletionOptions{
		Model:           s.cfg.Model,
		Temperature:     extractionTemperature,
		MaxOutputTokens: extractionMaxTokens,
		JSONMode:        true,
		SessionTag:      sessionID.String(),
	})
	if err != nil {
		return nil, err
	}

	out, err := knowledge.ParseExtractionOutput(raw, s.catalog.Has)
	if err != nil {
		s.log.Warn("extraction output rejected", "session_id", sessionID, "error", err, "raw", raw)
		return nil, err
	}

	extracted, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode extraction: %w", err)
	}
	nFacts, nTimeline, nSkills := out.Counts()
	summary := &types.Summary{
		SessionID:     sessionID,
		Module:        session.Module,
		Text:          fmt.Sprintf("Extracted %d facts, %d timeline entries, %d skills", nFacts, nTimeline, nSkills),
		ExtractedJSON: datatypes.JSON(extracted),
		TurnCount:     len(turns),
		WatermarkAt:   nextWatermark(latest, turns),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := s.repos.Summary.GetLatest(inner, sessionID)
		if err != nil {
			return err
		}
		if summaryID(current) != summaryID(latest) {
			return pkgerrors.ErrConcurrentExtraction
		}
		return s.repos.Summary.Create(inner, summary)
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(turns))
	for _, t := range turns {
		ids = append(ids, t.ID)
	}
	s.log.Info("extraction complete",
		"session_id", sessionID,
		"module", session.Module,
		"turns", len(turns),
		"facts", nFacts,
		"timeline", nTimeline,
		"skills", nSkills,
	)
	return &ExtractionResult{Output: out, Summary: summary, TurnIDs: ids}, nil
}

func watermarkOf(s *types.Summary) *time.Time {
	if s == nil {
		return nil
	}
	w := s.WatermarkAt
	return &w
}

func summaryID(s *types.Summary) uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.ID
}

// nextWatermark is the newest extracted turn timestamp, never earlier than the
// previous watermark.
func nextWatermark(prev *types.Summary, turns []*types.Turn) time.Time {
	var w time.Time
	if prev != nil {
		w = prev.WatermarkAt
	}
	for _, t := range turns {
		if t.Timestamp.After(w) {
			w = t.Timestamp
		}
	}
	return w.UTC()
}

func speakerLabel(speaker string) string {
	if speaker == types.SpeakerAgent {
		return "Agent"
	}
	return "User"
}

// formatTranscript renders turns one per line. withIDs prefixes each line with
// its turn id so extraction output can cite sources.
func formatTranscript(turns []*types.Turn, withIDs bool) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t == nil {
			continue
		}
		line := speakerLabel(t.Speaker) + ": " + strings.TrimSpace(t.Transcript)
		if withIDs {
			line = "[Turn " + t.ID.String() + "] " + line
		}
		lines = append(lines, line)
	}
	sep := "\n"
	if withIDs {
		sep = "\n\n"
	}
	return strings.Join(lines, sep)
}

// knowledgeDigest summarizes what the knowledge base already holds so the
// provider can avoid repeating it.
func (s *extractorService) knowledgeDigest(dbc dbctx.Context, personID uuid.UUID, module string) (string, error) {
	var (
		nFacts, nTimeline, nSkills, nPrefs, nArtifacts int64
		timeline                                       []*types.TimelineEntry
		skills                                         []*types.Skill
	)
	g, gctx := errgroup.WithContext(dbc.Ctx)
	read := dbctx.Context{Ctx: gctx}
	g.Go(func() (err error) { nFacts, err = s.repos.Fact.CountCurrent(read, personID); return })
	g.Go(func() (err error) { nTimeline, err = s.repos.Timeline.Count(read, personID); return })
	g.Go(func() (err error) { nSkills, err = s.repos.Skill.Count(read, personID); return })
	g.Go(func() (err error) { nPrefs, err = s.repos.Preference.Count(read, personID); return })
	g.Go(func() (err error) { nArtifacts, err = s.repos.Artifact.Count(read, personID); return })
	switch module {
	case "timeline":
		g.Go(func() (err error) {
			timeline, err = s.repos.Timeline.ListByPerson(read, personID, digestTimelineLimit)
			return
		})
	case "skills":
		g.Go(func() (err error) {
			skills, err = s.repos.Skill.ListByPerson(read, personID, digestSkillLimit)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("build knowledge digest: %w", err)
	}

	var b strings.Builder
	b.WriteString("Existing KB entries for this person:\n")
	fmt.Fprintf(&b, "- Facts: %d\n", nFacts)
	fmt.Fprintf(&b, "- Timeline Entries: %d\n", nTimeline)
	fmt.Fprintf(&b, "- Skills: %d\n", nSkills)
	fmt.Fprintf(&b, "- Preferences: %d\n", nPrefs)
	fmt.Fprintf(&b, "- Artifacts: %d\n", nArtifacts)
	if len(timeline) > 0 {
		b.WriteString("\nExisting timeline entries (to avoid duplicates):\n")
		for _, e := range timeline {
			end := "current"
			if e.EndDate != nil && *e.EndDate != "" {
				end = *e.EndDate
			}
			fmt.Fprintf(&b, "- %s, %s (%s - %s)\n", e.Org, e.Role, e.StartDate, end)
		}
	}
	if len(skills) > 0 {
		b.WriteString("\nExisting skills (to avoid duplicates):\n")
		for _, sk := range skills {
			fmt.Fprintf(&b, "- %s (level %d)\n", sk.Name, sk.Level)
		}
	}
	return b.String(), nil
}
