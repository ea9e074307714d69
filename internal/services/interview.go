package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/careerkb-backend/internal/catalog"
	"github.com/yungbote/careerkb-backend/internal/data/repos"
	types "github.com/yungbote/careerkb-backend/internal/domain"
	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/gcp"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

// AudioStore persists audio blobs and returns the URL they are served at.
type AudioStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*gcp.Transcription, error)
}

type AudioInput struct {
	Data     []byte
	MimeType string
	Filename string
}

type SessionListItem struct {
	*types.Session
	TurnCount int64 `json:"turn_count"`
}

type InterviewService interface {
	EnsurePerson(dbc dbctx.Context, personID uuid.UUID, email, name string) (*types.Person, error)
	CreateSession(dbc dbctx.Context, personID uuid.UUID, module string) (*types.Session, error)
	ListSessions(dbc dbctx.Context, personID uuid.UUID) ([]SessionListItem, error)
	// GetSession returns the session with its turns in order.
	GetSession(dbc dbctx.Context, personID, sessionID uuid.UUID) (*types.Session, error)
	AddTextTurn(dbc dbctx.Context, personID, sessionID uuid.UUID, speaker, transcript string, meta map[string]any) (*types.Turn, error)
	// AddAudioTurn transcribes audio into a user turn. Nothing is persisted when
	// transcription fails.
	AddAudioTurn(dbc dbctx.Context, personID, sessionID uuid.UUID, in AudioInput) (*types.Turn, error)
	TriggerExtraction(dbc dbctx.Context, personID, sessionID uuid.UUID, turnIDs []uuid.UUID) (*ExtractionResult, *ChangeStats, error)
	AdvanceSession(dbc dbctx.Context, personID, sessionID uuid.UUID) (*types.Session, error)
}

type InterviewConfig struct {
	StoreAudio bool
}

type interviewService struct {
	log          *logger.Logger
	repos        repos.Set
	catalog      *catalog.Catalog
	transcriber  Transcriber
	audio        AudioStore
	costs        CostTracker
	extractor    ExtractorService
	consolidator ConsolidatorService
	agent        AgentService
	cfg          InterviewConfig
}

func NewInterviewService(
	baseLog *logger.Logger,
	rs repos.Set,
	cat *catalog.Catalog,
	transcriber Transcriber,
	audio AudioStore,
	costs CostTracker,
	extractor ExtractorService,
	consolidator ConsolidatorService,
	agent AgentService,
	cfg InterviewConfig,
) InterviewService {
	if cat == nil {
		cat = catalog.Default()
	}
	return &interviewService{
		log:          baseLog.With("service", "InterviewService"),
		repos:        rs,
		catalog:      cat,
		transcriber:  transcriber,
		audio:        audio,
		costs:        costs,
		extractor:    extractor,
		consolidator: consolidator,
		agent:        agent,
		cfg:          cfg,
	}
}

func (s *interviewService) EnsurePerson(dbc dbctx.Context, personID uuid.UUID, email, name string) (*types.Person, error) {
	if personID == uuid.Nil {
		return nil, pkgerrors.ErrUnauthorized
	}
	return s.repos.Person.Ensure(dbc, &types.Person{ID: personID, Email: email, DisplayName: name})
}

func (s *interviewService) CreateSession(dbc dbctx.Context, personID uuid.UUID, module string) (*types.Session, error) {
	module = strings.TrimSpace(module)
	if module == "" {
		module = s.catalog.First().ID
	}
	if !s.catalog.Has(module) {
		return nil, &pkgerrors.ValidationError{Field: "module", Reason: fmt.Sprintf("unknown module %q", module)}
	}
	person, err := s.repos.Person.GetByID(dbc, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", personID, pkgerrors.ErrNotFound)
	}
	session := &types.Session{
		PersonID: personID,
		Module:   module,
		Status:   types.SessionStatusActive,
	}
	if err := s.repos.Session.Create(dbc, session); err != nil {
		return nil, err
	}
	s.log.Info("session created", "session_id", session.ID, "person_id", personID, "module", module)
	return session, nil
}

func (s *interviewService) ListSessions(dbc dbctx.Context, personID uuid.UUID) ([]SessionListItem, error) {
	sessions, err := s.repos.Session.ListByPerson(dbc, personID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	counts, err := s.repos.Turn.CountBySessions(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make([]SessionListItem, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionListItem{Session: sess, TurnCount: counts[sess.ID]})
	}
	return out, nil
}

func (s *interviewService) GetSession(dbc dbctx.Context, personID, sessionID uuid.UUID) (*types.Session, error) {
	session, err := loadOwnedSession(dbc, s.repos.Session, personID, sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.repos.Turn.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	session.Turns = turns
	return session, nil
}

func (s *interviewService) AddTextTurn(dbc dbctx.Context, personID, sessionID uuid.UUID, speaker, transcript string, meta map[string]any) (*types.Turn, error) {
	speaker = strings.ToLower(strings.TrimSpace(speaker))
	if speaker == "" {
		speaker = types.SpeakerUser
	}
	if speaker != types.SpeakerUser && speaker != types.SpeakerAgent {
		return nil, &pkgerrors.ValidationError{Field: "speaker", Reason: fmt.Sprintf("invalid value %q", speaker)}
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, &pkgerrors.ValidationError{Field: "transcript", Reason: "required"}
	}
	if _, err := s.activeSession(dbc, personID, sessionID); err != nil {
		return nil, err
	}
	turn := &types.Turn{
		SessionID:  sessionID,
		Speaker:    speaker,
		Transcript: transcript,
		Meta:       metaJSON(meta),
	}
	if err := s.repos.Turn.Create(dbc, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

func (s *interviewService) AddAudioTurn(dbc dbctx.Context, personID, sessionID uuid.UUID, in AudioInput) (*types.Turn, error) {
	if len(in.Data) == 0 {
		return nil, &pkgerrors.ValidationError{Field: "audio", Reason: "required"}
	}
	if s.transcriber == nil {
		return nil, pkgerrors.NewProviderError("gcp_speech", "transcribe", fmt.Errorf("transcription not configured"))
	}
	if _, err := s.activeSession(dbc, personID, sessionID); err != nil {
		return nil, err
	}

	tr, err := s.transcriber.Transcribe(dbc.Ctx, in.Data, in.MimeType)
	if err != nil {
		return nil, err
	}
	if s.costs != nil {
		s.costs.RecordTranscription(dbc.Ctx, sessionID.String(), tr.DurationSeconds)
	}

	turn := &types.Turn{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Speaker:    types.SpeakerUser,
		Transcript: strings.TrimSpace(tr.Text),
		Meta: metaJSON(map[string]any{
			"duration": tr.DurationSeconds,
			"filename": in.Filename,
		}),
	}
	if s.cfg.StoreAudio && s.audio != nil {
		key := fmt.Sprintf("audio/%s/%s%s", sessionID, turn.ID, audioExt(in))
		url, err := s.audio.Put(dbc.Ctx, key, in.Data, in.MimeType)
		if err != nil {
			s.log.Warn("storing user audio failed (continuing)", "session_id", sessionID, "error", err)
		} else {
			turn.AudioURL = url
		}
	}
	if err := s.repos.Turn.Create(dbc, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

func (s *interviewService) TriggerExtraction(dbc dbctx.Context, personID, sessionID uuid.UUID, turnIDs []uuid.UUID) (*ExtractionResult, *ChangeStats, error) {
	if _, err := loadOwnedSession(dbc, s.repos.Session, personID, sessionID); err != nil {
		return nil, nil, err
	}
	res, err := s.extractor.Extract(dbc, sessionID, turnIDs)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.consolidator.Consolidate(dbc, personID, res.Output)
	if err != nil {
		return res, nil, err
	}
	return res, stats, nil
}

func (s *interviewService) AdvanceSession(dbc dbctx.Context, personID, sessionID uuid.UUID) (*types.Session, error) {
	if _, err := loadOwnedSession(dbc, s.repos.Session, personID, sessionID); err != nil {
		return nil, err
	}
	return s.agent.AdvanceModule(dbc, sessionID)
}

func (s *interviewService) activeSession(dbc dbctx.Context, personID, sessionID uuid.UUID) (*types.Session, error) {
	session, err := loadOwnedSession(dbc, s.repos.Session, personID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, pkgerrors.ErrSessionCompleted
	}
	return session, nil
}

func metaJSON(meta map[string]any) datatypes.JSON {
	if len(meta) == 0 {
		return nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func audioExt(in AudioInput) string {
	if ext := path.Ext(in.Filename); ext != "" && len(ext) <= 6 {
		return strings.ToLower(ext)
	}
	m := strings.ToLower(in.MimeType)
	switch {
	case strings.Contains(m, "wav"):
		return ".wav"
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return ".mp3"
	case strings.Contains(m, "ogg"):
		return ".ogg"
	case strings.Contains(m, "flac"):
		return ".flac"
	default:
		return ".webm"
	}
}
