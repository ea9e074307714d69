package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

func TestDirPut(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(logger.Nop(), root, "uploads/")
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	url, err := d.Put(context.Background(), "audio/../audio/a.webm", []byte("abc"), "audio/webm")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/audio/a.webm" {
		t.Fatalf("url: got %q", url)
	}
	b, err := os.ReadFile(filepath.Join(root, "audio", "a.webm"))
	if err != nil || string(b) != "abc" {
		t.Fatalf("file content: %q err=%v", b, err)
	}

	// Keys cannot escape the root.
	url, err = d.Put(context.Background(), "../../etc/x", []byte("x"), "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/etc/x" {
		t.Fatalf("escaped key url: got %q", url)
	}
	if _, err := d.Put(context.Background(), "  ", nil, ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
