package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/catalog"
	"github.com/yungbote/careerkb-backend/internal/data/repos"
	"github.com/yungbote/careerkb-backend/internal/data/repos/testutil"
	"github.com/yungbote/careerkb-backend/internal/platform/gcp"
	"github.com/yungbote/careerkb-backend/internal/platform/locks"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/openai"
)

type fakeAI struct {
	mu        sync.Mutex
	replies   []string
	calls     []openai.CompletionOptions
	prompts   [][]openai.Message
	ttsErr    error
	ttsCalls  int
	completeE error
}

func (f *fakeAI) Complete(ctx context.Context, messages []openai.Message, opts openai.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	f.prompts = append(f.prompts, messages)
	if f.completeE != nil {
		return "", f.completeE
	}
	if len(f.replies) == 0 {
		return "", errors.New("fakeAI: no reply queued")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeAI) Synthesize(ctx context.Context, text string, voice string, sessionTag string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttsCalls++
	if f.ttsErr != nil {
		return nil, f.ttsErr
	}
	return []byte("mp3:" + text), nil
}

type fakeStore struct {
	mu   sync.Mutex
	objs map[string][]byte
	err  error
}

func (s *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.objs == nil {
		s.objs = map[string][]byte{}
	}
	s.objs[key] = data
	return "/uploads/" + key, nil
}

type fakeTranscriber struct {
	text    string
	seconds float64
	err     error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*gcp.Transcription, error) {
	if t.err != nil {
		return nil, t.err
	}
	return &gcp.Transcription{Text: t.text, DurationSeconds: t.seconds}, nil
}

type env struct {
	db           *gorm.DB
	log          *logger.Logger
	repos        repos.Set
	ai           *fakeAI
	store        *fakeStore
	extractor    ExtractorService
	consolidator ConsolidatorService
	agent        AgentService
	knowledge    KnowledgeService
}

// newEnv wires the services over a private SQLite database. Seed rows directly
// on env.db: the test database allows a single connection, so an open test
// transaction would block the services' own transactions.
func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	locker := locks.NewLocal()
	cat := catalog.Default()
	ai := &fakeAI{}
	store := &fakeStore{}

	e := &env{db: db, log: log, repos: rs, ai: ai, store: store}
	e.extractor = NewExtractorService(db, log, locker, rs, ai, cat, ExtractorConfig{})
	e.consolidator = NewConsolidatorService(db, log, locker, rs, nil)
	e.agent = NewAgentService(db, log, rs, ai, store, cat, e.extractor, e.consolidator, AgentConfig{})
	e.knowledge = NewKnowledgeService(log, rs)
	return e
}

func strPtr(s string) *string { return &s }
