package app

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "CORS_ORIGIN", "STORE_AUDIO", "PROVIDER_TIMEOUT_SECONDS", "COST_TTS_PER_MILLION_CHARS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(nil)
	if cfg.Port != "8080" || cfg.DBDriver != "postgres" || !cfg.StoreAudio {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.ProviderTimeout != 60*time.Second || cfg.Costs.TTSPerMillionChars != 15 {
		t.Fatalf("timeouts/costs: %v %+v", cfg.ProviderTimeout, cfg.Costs)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CORS_ORIGIN", "https://a.example.com, https://b.example.com,")
	t.Setenv("STORE_AUDIO", "false")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "15")
	t.Setenv("COST_TTS_PER_MILLION_CHARS", "30")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := LoadConfig(nil)
	if cfg.DBDriver != "sqlite" || cfg.StoreAudio {
		t.Fatalf("driver/store: %q %v", cfg.DBDriver, cfg.StoreAudio)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
	if cfg.ProviderTimeout != 15*time.Second || cfg.Costs.TTSPerMillionChars != 30 {
		t.Fatalf("overrides: %v %+v", cfg.ProviderTimeout, cfg.Costs)
	}
	if !cfg.Otel.Enabled || cfg.Otel.ServiceName != cfg.ServiceName {
		t.Fatalf("otel: %+v", cfg.Otel)
	}
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	if _, err := openDatabase(nil, Config{DBDriver: "mysql"}); err == nil {
		t.Fatalf("expected error")
	}
}
