package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/careerkb-backend/internal/platform/gcp"
	"github.com/yungbote/careerkb-backend/internal/platform/localstore"
	"github.com/yungbote/careerkb-backend/internal/platform/locks"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/platform/neo4jdb"
	"github.com/yungbote/careerkb-backend/internal/platform/openai"
	"github.com/yungbote/careerkb-backend/internal/services"
)

type Clients struct {
	AI     openai.Client
	Speech gcp.Transcriber
	Audio  services.AudioStore
	Locker locks.Locker
	Neo4j  *neo4jdb.Client

	bucket     *gcp.AudioBucket
	redisLocks *locks.Redis
}

// wireClients connects the external providers. Optional backends (Redis, Neo4j,
// GCS) are used only when configured.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config, usage openai.UsageRecorder) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{}

	ai, err := openai.NewClient(log, openai.Config{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		TTSModel:   cfg.TTSModel,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.ProviderRetries,
	}, usage)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	c.AI = ai

	speech, err := gcp.NewSpeech(log, gcp.SpeechConfig{
		LanguageCode: cfg.SpeechLanguage,
		Model:        cfg.SpeechModel,
		Timeout:      cfg.ProviderTimeout,
		MaxRetries:   cfg.ProviderRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("init speech client: %w", err)
	}
	c.Speech = speech

	if cfg.AudioBucket != "" {
		bucket, err := gcp.NewAudioBucket(ctx, log, cfg.AudioBucket, cfg.AudioCDNDomain)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init audio bucket: %w", err)
		}
		c.bucket = bucket
		c.Audio = bucket
	} else {
		dir, err := localstore.NewDir(log, cfg.UploadDir, "/uploads")
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init upload dir: %w", err)
		}
		c.Audio = dir
	}

	if cfg.RedisAddr != "" {
		rl, err := locks.NewRedis(log, locks.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "careerkb:lock:",
			TTL:      cfg.LockTTL,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init redis locks: %w", err)
		}
		c.redisLocks = rl
		c.Locker = rl
	} else {
		c.Locker = locks.NewLocal()
	}

	graph, err := neo4jdb.New(log, neo4jdb.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	})
	if err != nil {
		// the graph is a projection; run without it
		log.Warn("neo4j unavailable (continuing)", "error", err)
	}
	c.Neo4j = graph

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Speech != nil {
		_ = c.Speech.Close()
	}
	if c.bucket != nil {
		_ = c.bucket.Close()
	}
	if c.redisLocks != nil {
		_ = c.redisLocks.Close()
	}
	if c.Neo4j != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Neo4j.Close(ctx)
	}
}
