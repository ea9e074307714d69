package connectors

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mock keeps records in memory. It is safe for concurrent use.
type Mock struct {
	mu      sync.RWMutex
	records map[string]map[string]Record
	now     func() time.Time
}

func NewMock() *Mock {
	return &Mock{records: map[string]map[string]Record{}, now: time.Now}
}

func (m *Mock) ID() string   { return "mock" }
func (m *Mock) Name() string { return "Mock Connector" }
func (m *Mock) Capabilities() []Capability {
	return []Capability{CapRead, CapWrite, CapSearch}
}

func (m *Mock) Create(ctx context.Context, entity string, data Record) (Record, error) {
	if err := validName("entity", entity); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "mock_" + uuid.NewString()
	rec := withMeta(data, id, m.now())
	if m.records[entity] == nil {
		m.records[entity] = map[string]Record{}
	}
	m.records[entity][id] = rec
	return rec, nil
}

func (m *Mock) Read(ctx context.Context, entity, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[entity][id]
	if !ok {
		return nil, notFound(entity, id)
	}
	return rec, nil
}

func (m *Mock) Update(ctx context.Context, entity, id string, data Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[entity][id]
	if !ok {
		return nil, notFound(entity, id)
	}
	updated := mergeRecord(rec, data, m.now())
	m.records[entity][id] = updated
	return updated, nil
}

func (m *Mock) Delete(ctx context.Context, entity, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[entity][id]; !ok {
		return notFound(entity, id)
	}
	delete(m.records[entity], id)
	return nil
}

func (m *Mock) Search(ctx context.Context, entity, query string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	ids := make([]string, 0, len(m.records[entity]))
	for id := range m.records[entity] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := []Record{}
	for _, id := range ids {
		if rec := m.records[entity][id]; matches(rec, q) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Mock) HealthCheck(ctx context.Context) error { return nil }
