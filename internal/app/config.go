package app

import (
	"strings"
	"time"

	"github.com/yungbote/careerkb-backend/internal/data/db"
	"github.com/yungbote/careerkb-backend/internal/observability"
	"github.com/yungbote/careerkb-backend/internal/platform/envutil"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/services"
)

type Config struct {
	Port        string
	LogMode     string
	ServiceName string

	DBDriver   string // postgres|sqlite
	Postgres   db.PostgresConfig
	SQLitePath string

	JWTSecret   string
	CORSOrigins []string

	OpenAIKey       string
	OpenAIBaseURL   string
	OpenAIModel     string
	TTSModel        string
	TTSVoice        string
	ProviderTimeout time.Duration
	ProviderRetries int
	SpeechLanguage  string
	SpeechModel     string

	StoreAudio     bool
	UploadDir      string
	AudioBucket    string
	AudioCDNDomain string
	MaxAudioBytes  int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	ConnectorFileDir string

	Otel  observability.OtelConfig
	Costs services.CostRates
}

func LoadConfig(log *logger.Logger) Config {
	defaults := services.DefaultCostRates()
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "careerkb-backend"),

		DBDriver: strings.ToLower(envutil.String("DB_DRIVER", "postgres")),
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "careerkb"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		SQLitePath: envutil.String("SQLITE_PATH", "careerkb.db"),

		JWTSecret:   envutil.String("JWT_SECRET", ""),
		CORSOrigins: splitList(envutil.String("CORS_ORIGIN", "")),

		OpenAIKey:       envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:     envutil.String("OPENAI_MODEL", "gpt-4o"),
		TTSModel:        envutil.String("OPENAI_TTS_MODEL", "tts-1"),
		TTSVoice:        envutil.String("OPENAI_TTS_VOICE", "nova"),
		ProviderTimeout: envutil.Seconds("PROVIDER_TIMEOUT_SECONDS", 60*time.Second),
		ProviderRetries: envutil.Int("PROVIDER_MAX_RETRIES", 2),
		SpeechLanguage:  envutil.String("SPEECH_LANGUAGE", "en-US"),
		SpeechModel:     envutil.String("SPEECH_MODEL", ""),

		StoreAudio:     envutil.Bool("STORE_AUDIO", true),
		UploadDir:      envutil.String("UPLOAD_DIR", "./uploads"),
		AudioBucket:    envutil.String("AUDIO_BUCKET", ""),
		AudioCDNDomain: envutil.String("AUDIO_CDN_DOMAIN", ""),
		MaxAudioBytes:  int64(envutil.Int("MAX_AUDIO_BYTES", 25<<20)),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		LockTTL:       envutil.Seconds("LOCK_TTL_SECONDS", 2*time.Minute),

		Neo4jURI:      envutil.String("NEO4J_URI", ""),
		Neo4jUser:     envutil.String("NEO4J_USER", "neo4j"),
		Neo4jPassword: envutil.String("NEO4J_PASSWORD", ""),
		Neo4jDatabase: envutil.String("NEO4J_DATABASE", ""),

		ConnectorFileDir: envutil.String("CONNECTOR_FILE_DIR", "./storage"),

		Costs: services.CostRates{
			ChatInputPerMillion:    envutil.Float("COST_CHAT_INPUT_PER_MILLION", defaults.ChatInputPerMillion),
			ChatOutputPerMillion:   envutil.Float("COST_CHAT_OUTPUT_PER_MILLION", defaults.ChatOutputPerMillion),
			TTSPerMillionChars:     envutil.Float("COST_TTS_PER_MILLION_CHARS", defaults.TTSPerMillionChars),
			TranscriptionPerMinute: envutil.Float("COST_TRANSCRIPTION_PER_MINUTE", defaults.TranscriptionPerMinute),
		},
	}
	cfg.Otel = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false),
		ServiceName: cfg.ServiceName,
		Environment: envutil.String("OTEL_ENVIRONMENT", cfg.LogMode),
		Version:     envutil.String("OTEL_SERVICE_VERSION", ""),
		SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	if log != nil {
		if cfg.JWTSecret == "" {
			log.Warn("JWT_SECRET is not set; every API request will be rejected")
		}
		log.Info("Config loaded",
			"db_driver", cfg.DBDriver,
			"store_audio", cfg.StoreAudio,
			"audio_bucket", cfg.AudioBucket != "",
			"redis", cfg.RedisAddr != "",
			"neo4j", cfg.Neo4jURI != "",
			"otel", cfg.Otel.Enabled,
		)
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
