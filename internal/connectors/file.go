package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

// File stores each record as <base>/<entity>/<id>.json.
type File struct {
	log  *logger.Logger
	base string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFile(log *logger.Logger, base string) (*File, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "./storage"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create connector dir: %w", err)
	}
	return &File{log: log.With("connector", "file"), base: base, now: time.Now}, nil
}

func (f *File) ID() string   { return "file" }
func (f *File) Name() string { return "File Storage Connector" }
func (f *File) Capabilities() []Capability {
	return []Capability{CapRead, CapWrite, CapSearch}
}

func (f *File) path(entity, id string) (string, error) {
	if err := validName("entity", entity); err != nil {
		return "", err
	}
	if err := validName("id", id); err != nil {
		return "", err
	}
	return filepath.Join(f.base, entity, id+".json"), nil
}

func (f *File) Create(ctx context.Context, entity string, data Record) (Record, error) {
	id := uuid.NewString()
	p, err := f.path(entity, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create entity dir: %w", err)
	}
	rec := withMeta(data, id, f.now())
	if err := writeRecord(p, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (f *File) Read(ctx context.Context, entity, id string) (Record, error) {
	p, err := f.path(entity, id)
	if err != nil {
		return nil, err
	}
	return readRecord(p, entity, id)
}

func (f *File) Update(ctx context.Context, entity, id string, data Record) (Record, error) {
	p, err := f.path(entity, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, err := readRecord(p, entity, id)
	if err != nil {
		return nil, err
	}
	updated := mergeRecord(existing, data, f.now())
	if err := writeRecord(p, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (f *File) Delete(ctx context.Context, entity, id string) error {
	p, err := f.path(entity, id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(entity, id)
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (f *File) Search(ctx context.Context, entity, query string) ([]Record, error) {
	if err := validName("entity", entity); err != nil {
		return nil, err
	}
	dir := filepath.Join(f.base, entity)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	q := strings.ToLower(query)
	out := []Record{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := readRecord(filepath.Join(dir, name), entity, strings.TrimSuffix(name, ".json"))
		if err != nil {
			f.log.Warn("skipping unreadable record (continuing)", "entity", entity, "file", name, "error", err)
			continue
		}
		if matches(rec, q) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *File) HealthCheck(ctx context.Context) error {
	st, err := os.Stat(f.base)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", f.base)
	}
	return nil
}

func readRecord(p, entity, id string) (Record, error) {
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s/%s: %w", entity, id, err)
	}
	return rec, nil
}

// writeRecord replaces p atomically through a temp file in the same directory.
func writeRecord(p string, rec Record) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
