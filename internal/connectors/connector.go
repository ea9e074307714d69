package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
)

type Capability string

const (
	CapRead    Capability = "read"
	CapWrite   Capability = "write"
	CapSearch  Capability = "search"
	CapWebhook Capability = "webhook"
)

// Record is one stored document. Connectors own the "id", "created_at" and
// "updated_at" keys.
type Record map[string]any

// Connector is a pluggable external record store.
type Connector interface {
	ID() string
	Name() string
	Capabilities() []Capability

	Create(ctx context.Context, entity string, data Record) (Record, error)
	Read(ctx context.Context, entity, id string) (Record, error)
	Update(ctx context.Context, entity, id string, data Record) (Record, error)
	Delete(ctx context.Context, entity, id string) error
	// Search returns records whose JSON form contains query, case-insensitively.
	Search(ctx context.Context, entity, query string) ([]Record, error)
	HealthCheck(ctx context.Context) error
}

func Supports(c Connector, capability Capability) bool {
	for _, have := range c.Capabilities() {
		if have == capability {
			return true
		}
	}
	return false
}

func notFound(entity, id string) error {
	return fmt.Errorf("record %s/%s: %w", entity, id, pkgerrors.ErrNotFound)
}

// validName rejects entity and id values that could escape a namespace.
func validName(field, v string) error {
	if strings.TrimSpace(v) == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
		return &pkgerrors.ValidationError{Field: field, Reason: fmt.Sprintf("invalid value %q", v)}
	}
	return nil
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// withMeta copies data and sets the connector-owned keys.
func withMeta(data Record, id string, now time.Time) Record {
	out := make(Record, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	out["id"] = id
	out["created_at"] = stamp(now)
	return out
}

// mergeRecord overlays data onto existing, keeping id and created_at.
func mergeRecord(existing, data Record, now time.Time) Record {
	out := make(Record, len(existing)+len(data)+1)
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range data {
		if k == "id" || k == "created_at" {
			continue
		}
		out[k] = v
	}
	out["updated_at"] = stamp(now)
	return out
}

func matches(r Record, lowerQuery string) bool {
	b, err := json.Marshal(r)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(b)), lowerQuery)
}
