package promptstyle

import (
	"strings"
	"testing"
)

func TestApplySystem(t *testing.T) {
	out := ApplySystem("Extract things.", "json")
	if !strings.HasPrefix(out, marker) {
		t.Fatalf("missing marker: %q", out)
	}
	if !strings.Contains(out, "single JSON object") || !strings.HasSuffix(out, "Extract things.") {
		t.Fatalf("unexpected prompt: %q", out)
	}
	if again := ApplySystem(out, "json"); again != out {
		t.Fatalf("ApplySystem should be idempotent")
	}
	if ApplySystem("   ", "text") != "" {
		t.Fatalf("blank prompt should stay blank")
	}
}
