package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpSearch Operation = "search"
)

type Request struct {
	Entity string
	ID     string
	Query  string
	Data   Record
}

// Manager is the connector registry.
type Manager struct {
	log *logger.Logger
	mu  sync.RWMutex
	reg map[string]Connector
}

func NewManager(log *logger.Logger, conns ...Connector) *Manager {
	m := &Manager{log: log.With("service", "ConnectorManager"), reg: map[string]Connector{}}
	for _, c := range conns {
		m.Register(c)
	}
	return m
}

// Register adds c, replacing any connector with the same id.
func (m *Manager) Register(c Connector) {
	if c == nil {
		return
	}
	m.mu.Lock()
	m.reg[c.ID()] = c
	m.mu.Unlock()
	m.log.Info("registered connector", "id", c.ID(), "name", c.Name())
}

func (m *Manager) Get(id string) (Connector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.reg[id]
	return c, ok
}

// List returns connectors ordered by id.
func (m *Manager) List() []Connector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Connector, 0, len(m.reg))
	for _, c := range m.reg {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func required(op Operation) Capability {
	switch op {
	case OpRead:
		return CapRead
	case OpSearch:
		return CapSearch
	default:
		return CapWrite
	}
}

// Execute routes op to the connector after checking it has the capability.
// Delete returns no records.
func (m *Manager) Execute(ctx context.Context, connectorID string, op Operation, req Request) ([]Record, error) {
	c, ok := m.Get(connectorID)
	if !ok {
		return nil, fmt.Errorf("connector %q: %w", connectorID, pkgerrors.ErrNotFound)
	}
	switch op {
	case OpCreate, OpRead, OpUpdate, OpDelete, OpSearch:
	default:
		return nil, fmt.Errorf("operation %q: %w", op, pkgerrors.ErrInvalidArgument)
	}
	if !Supports(c, required(op)) {
		return nil, fmt.Errorf("connector %q does not support %s: %w", connectorID, op, pkgerrors.ErrInvalidArgument)
	}

	var (
		rec Record
		err error
	)
	switch op {
	case OpCreate:
		rec, err = c.Create(ctx, req.Entity, req.Data)
	case OpRead:
		rec, err = c.Read(ctx, req.Entity, req.ID)
	case OpUpdate:
		rec, err = c.Update(ctx, req.Entity, req.ID, req.Data)
	case OpDelete:
		err = c.Delete(ctx, req.Entity, req.ID)
	case OpSearch:
		return c.Search(ctx, req.Entity, req.Query)
	}
	if err != nil {
		m.log.Warn("connector operation failed", "connector", connectorID, "op", op, "entity", req.Entity, "error", err)
		return nil, err
	}
	if rec == nil {
		return []Record{}, nil
	}
	return []Record{rec}, nil
}

// HealthCheckAll reports each connector's health by id. Checks run
// concurrently.
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]bool {
	conns := m.List()
	out := make(map[string]bool, len(conns))
	var mu sync.Mutex
	var g errgroup.Group
	for _, c := range conns {
		c := c
		g.Go(func() error {
			err := c.HealthCheck(ctx)
			if err != nil {
				m.log.Warn("connector unhealthy", "connector", c.ID(), "error", err)
			}
			mu.Lock()
			out[c.ID()] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
