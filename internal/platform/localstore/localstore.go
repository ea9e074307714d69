package localstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

// Dir stores blobs under a local directory and serves them below URLPrefix.
type Dir struct {
	log       *logger.Logger
	root      string
	urlPrefix string
}

func NewDir(log *logger.Logger, root, urlPrefix string) (*Dir, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("missing upload dir")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &Dir{
		log:       log.With("service", "LocalStore"),
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

func (d *Dir) Root() string      { return d.root }
func (d *Dir) URLPrefix() string { return d.urlPrefix }

// Put writes data under key and returns the URL it is served at. contentType is
// implied by the key's extension.
func (d *Dir) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	full := filepath.Join(d.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return d.urlPrefix + clean, nil
}
