package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/catalog"
	"github.com/yungbote/careerkb-backend/internal/data/repos"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/observability"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/openai"
	"github.com/yungbote/careerkb-backend/internal/prompts"
)

const (
	questionTemperature  = 0.7
	questionMaxTokens    = 200
	questionContextTurns = 20
	questionOpenLimit    = 5
)

type NextQuestion struct {
	Question string      `json:"question"`
	AudioURL string      `json:"audio_url,omitempty"`
	Turn     *types.Turn `json:"turn"`
}

type NextResult struct {
	Question      string       `json:"question,omitempty"`
	AudioURL      string       `json:"audio_url,omitempty"`
	ShouldExtract bool         `json:"should_extract"`
	Module        string       `json:"module"`
	Completed     bool         `json:"completed"`
	Stats         *ChangeStats `json:"stats,omitempty"`
}

type AgentService interface {
	// ShouldTriggerExtraction reports whether enough agent turns have passed
	// the watermark to fill the current module.
	ShouldTriggerExtraction(dbc dbctx.Context, sessionID uuid.UUID) (bool, error)
	// AdvanceModule moves to the next catalog module, or completes the session
	// after the last one.
	AdvanceModule(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error)
	GetNextQuestion(dbc dbctx.Context, sessionID uuid.UUID) (*NextQuestion, error)
	// Next runs one interviewer step for the session owner.
	Next(dbc dbctx.Context, personID, sessionID uuid.UUID) (*NextResult, error)
}

type AgentConfig struct {
	Model string
	Voice string
}

type agentService struct {
	db           *gorm.DB
	log          *logger.Logger
	repos        repos.Set
	ai           openai.Client
	audio        AudioStore
	catalog      *catalog.Catalog
	extractor    ExtractorService
	consolidator ConsolidatorService
	cfg          AgentConfig
}

func NewAgentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	rs repos.Set,
	ai openai.Client,
	audio AudioStore,
	cat *catalog.Catalog,
	extractor ExtractorService,
	consolidator ConsolidatorService,
	cfg AgentConfig,
) AgentService {
	if cat == nil {
		cat = catalog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Voice == "" {
		cfg.Voice = "nova"
	}
	return &agentService{
		db:           db,
		log:          baseLog.With("service", "AgentService"),
		repos:        rs,
		ai:           ai,
		audio:        audio,
		catalog:      cat,
		extractor:    extractor,
		consolidator: consolidator,
		cfg:          cfg,
	}
}

func (s *agentService) ShouldTriggerExtraction(dbc dbctx.Context, sessionID uuid.UUID) (bool, error) {
	session, err := s.repos.Session.GetByID(dbc, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, fmt.Errorf("session %s: %w", sessionID, pkgerrors.ErrNotFound)
	}
	if session.Completed() {
		return false, nil
	}
	module, ok := s.catalog.Get(session.Module)
	if !ok {
		return false, nil
	}
	n, err := s.agentTurnsSinceWatermark(dbc, sessionID)
	if err != nil {
		return false, err
	}
	return n >= int64(module.EstimatedTurns), nil
}

func (s *agentService) agentTurnsSinceWatermark(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	latest, err := s.repos.Summary.GetLatest(dbc, sessionID)
	if err != nil {
		return 0, err
	}
	return s.repos.Turn.CountAfter(dbc, sessionID, types.SpeakerAgent, watermarkOf(latest))
}

func (s *agentService) AdvanceModule(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error) {
	run := func(inner dbctx.Context) (*types.Session, error) {
		session, err := s.repos.Session.GetForUpdate(inner, sessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, pkgerrors.ErrNotFound)
		}
		if session.Completed() {
			return nil, pkgerrors.ErrSessionCompleted
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"updated_at": now}
		if next, ok := s.catalog.Next(session.Module); ok {
			updates["module"] = next.ID
			session.Module = next.ID
		} else {
			updates["status"] = types.SessionStatusCompleted
			updates["ended_at"] = now
			session.Status = types.SessionStatusCompleted
			session.EndedAt = &now
		}
		session.UpdatedAt = now
		if err := s.repos.Session.UpdateFields(inner, sessionID, updates); err != nil {
			return nil, err
		}
		return session, nil
	}

	if dbc.Tx != nil {
		return run(dbc)
	}
	var out *types.Session
	if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		session, err := run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		if err != nil {
			return err
		}
		out = session
		return nil
	}); err != nil {
		return nil, err
	}
	s.log.Info("session advanced", "session_id", sessionID, "module", out.Module, "status", out.Status)
	return out, nil
}

func (s *agentService) GetNextQuestion(dbc dbctx.Context, sessionID uuid.UUID) (res *NextQuestion, err error) {
	ctx, span := observability.StartSpan(dbc.Ctx, "interview.next_question",
		attribute.String("session_id", sessionID.String()))
	defer func() { observability.EndSpan(span, err) }()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	session, err := s.repos.Session.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, pkgerrors.ErrNotFound)
	}
	if session.Completed() {
		return nil, pkgerrors.ErrSessionCompleted
	}
	module, ok := s.catalog.Get(session.Module)
	if !ok {
		return nil, fmt.Errorf("unknown module %q: %w", session.Module, pkgerrors.ErrInvalidArgument)
	}

	person, err := s.repos.Person.GetByID(dbc, session.PersonID)
	if err != nil {
		return nil, err
	}
	name := "the candidate"
	if person != nil && strings.TrimSpace(person.DisplayName) != "" {
		name = person.DisplayName
	}
	recent, err := s.repos.Turn.ListRecent(dbc, sessionID, questionContextTurns)
	if err != nil {
		return nil, err
	}
	open, err := s.repos.OpenQuestion.ListTopOpen(dbc, session.PersonID, questionOpenLimit)
	if err != nil {
		return nil, err
	}
	asked, err := s.agentTurnsSinceWatermark(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Turn.CountAfter(dbc, sessionID, "", nil)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Build(prompts.PromptNextQuestion, prompts.Input{
		ModuleID:           module.ID,
		ModuleName:         module.Name,
		ModuleDescription:  module.Description,
		ModuleInstructions: module.Instructions,
		PersonName:         name,
		SessionID:          sessionID.String(),
		TurnCount:          int(total),
		ModuleProgress:     fmt.Sprintf("%d / %d questions", asked, module.EstimatedTurns),
		Transcript:         formatTranscript(recent, false),
		OpenQuestions:      formatOpenQuestions(open),
	})
	if err != nil {
		return nil, err
	}
	raw, err := s.ai.Complete(ctx, []openai.Message{
		{Role: openai.RoleSystem, Content: prompt.System},
		{Role: openai.RoleUser, Content: prompt.User},
	}, openai.CompletionOptions{
		Model:           s.cfg.Model,
		Temperature:     questionTemperature,
		MaxOutputTokens: questionMaxTokens,
		SessionTag:      sessionID.String(),
	})
	if err != nil {
		return nil, err
	}
	question := strings.TrimSpace(raw)
	if question == "" {
		return nil, pkgerrors.NewProviderError("openai", "chat.completions", errors.New("empty question"))
	}

	turn := &types.Turn{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Speaker:    types.SpeakerAgent,
		Transcript: question,
	}
	turn.AudioURL = s.synthesize(dbc, turn)
	if err := s.repos.Turn.Create(dbc, turn); err != nil {
		return nil, err
	}
	return &NextQuestion{Question: question, AudioURL: turn.AudioURL, Turn: turn}, nil
}

// synthesize voices the question and stores the audio. Any failure leaves the
// turn text-only.
func (s *agentService) synthesize(dbc dbctx.Context, turn *types.Turn) string {
	if s.audio == nil {
		return ""
	}
	audio, err := s.ai.Synthesize(dbc.Ctx, turn.Transcript, s.cfg.Voice, turn.SessionID.String())
	if err != nil {
		s.log.Warn("speech synthesis failed, returning text only (continuing)", "session_id", turn.SessionID, "error", err)
		return ""
	}
	key := fmt.Sprintf("tts/%s/%s.mp3", turn.SessionID, turn.ID)
	url, err := s.audio.Put(dbc.Ctx, key, audio, "audio/mpeg")
	if err != nil {
		s.log.Warn("storing synthesized audio failed (continuing)", "session_id", turn.SessionID, "error", err)
		return ""
	}
	return url
}

func formatOpenQuestions(qs []*types.OpenQuestion) string {
	lines := make([]string, 0, len(qs))
	for _, q := range qs {
		lines = append(lines, fmt.Sprintf("[%s] %s", q.Priority, q.Question))
	}
	return strings.Join(lines, "\n")
}

func (s *agentService) Next(dbc dbctx.Context, personID, sessionID uuid.UUID) (*NextResult, error) {
	session, err := loadOwnedSession(dbc, s.repos.Session, personID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return &NextResult{Module: session.Module, Completed: true}, nil
	}

	should, err := s.ShouldTriggerExtraction(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	res := &NextResult{ShouldExtract: should, Module: session.Module}
	if should {
		res.Stats = s.extractAndAdvance(dbc, personID, sessionID)
		if session, err = s.repos.Session.GetByID(dbc, sessionID); err != nil {
			return nil, err
		}
		res.Module = session.Module
		if session.Completed() {
			res.Completed = true
			return res, nil
		}
	}

	q, err := s.GetNextQuestion(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	res.Question = q.Question
	res.AudioURL = q.AudioURL
	return res, nil
}

// extractAndAdvance runs the extraction window. Failures are logged and leave
// the watermark where it was, so the next trigger retries the same turns.
func (s *agentService) extractAndAdvance(dbc dbctx.Context, personID, sessionID uuid.UUID) *ChangeStats {
	extracted, err := s.extractor.Extract(dbc, sessionID, nil)
	if err != nil {
		s.log.Warn("extraction failed (continuing)", "session_id", sessionID, "error", err)
		return nil
	}
	stats, err := s.consolidator.Consolidate(dbc, personID, extracted.Output)
	if err != nil {
		s.log.Warn("consolidation failed (continuing)", "session_id", sessionID, "error", err)
		return nil
	}
	if _, err := s.AdvanceModule(dbc, sessionID); err != nil {
		s.log.Warn("advance module failed (continuing)", "session_id", sessionID, "error", err)
	}
	return stats
}

func loadOwnedSession(dbc dbctx.Context, repo repos.SessionRepo, personID, sessionID uuid.UUID) (*types.Session, error) {
	session, err := repo.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.PersonID != personID {
		return nil, fmt.Errorf("session %s: %w", sessionID, pkgerrors.ErrNotFound)
	}
	return session, nil
}
