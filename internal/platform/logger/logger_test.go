package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	redactOnce.Do(func() {})
	redactionEnabled = true
	hashSalt = ""

	out := sanitizeKVs([]any{
		"Authorization", "Bearer abc",
		"transcript", "I earn 200k",
		"person_id", "6f1c",
		"audio", []byte("RIFF0000"),
		"module", "skills",
	})
	got := map[string]any{}
	for i := 0; i+1 < len(out); i += 2 {
		got[out[i].(string)] = out[i+1]
	}
	if got["Authorization"] != "[REDACTED]" || got["transcript"] != "[REDACTED]" {
		t.Fatalf("secrets leaked: %v", got)
	}
	if h, _ := got["person_id"].(string); !strings.HasPrefix(h, "hash:") || strings.Contains(h, "6f1c") {
		t.Fatalf("person id not hashed: %v", got["person_id"])
	}
	if got["audio"] != "[8 bytes]" || got["module"] != "skills" {
		t.Fatalf("values: %v", got)
	}
}

func TestSanitizeTruncatesLongText(t *testing.T) {
	redactOnce.Do(func() {})
	redactionEnabled = true

	long := strings.Repeat("x", maxLoggedString+10)
	out := sanitizeKVs([]any{"raw", long})
	s := out[1].(string)
	if !strings.HasPrefix(s, strings.Repeat("x", maxLoggedString)) || !strings.HasSuffix(s, "(10 bytes truncated)") {
		t.Fatalf("truncation: %q", s[len(s)-30:])
	}
}

func TestSanitizeOddKVs(t *testing.T) {
	redactOnce.Do(func() {})
	redactionEnabled = true
	out := sanitizeKVs([]any{"module", "goals", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kv: %v", out)
	}
}
