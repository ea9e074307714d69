package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed modules.yaml
var modulesYAML []byte

// Module is one interview phase.
type Module struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Description     string `yaml:"description" json:"description"`
	EstimatedTurns  int    `yaml:"estimated_turns" json:"estimated_turns"`
	ExtractionFocus string `yaml:"extraction_focus" json:"extraction_focus"`
	Instructions    string `yaml:"instructions" json:"instructions"`
}

// Catalog is the ordered, read-only set of modules.
type Catalog struct {
	modules []Module
	index   map[string]int
}

type file struct {
	Modules []Module `yaml:"modules"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog embedded in the binary. It panics if the
// embedded definition is invalid, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(modulesYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded modules invalid: %v", defaultErr))
	}
	return defaultCat
}

// Parse builds a catalog from YAML.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode modules: %w", err)
	}
	if len(f.Modules) == 0 {
		return nil, fmt.Errorf("no modules defined")
	}
	c := &Catalog{index: make(map[string]int, len(f.Modules))}
	for i, m := range f.Modules {
		m.ID = strings.TrimSpace(m.ID)
		m.Instructions = strings.TrimSpace(m.Instructions)
		if m.ID == "" {
			return nil, fmt.Errorf("module %d: missing id", i)
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, fmt.Errorf("module %q defined twice", m.ID)
		}
		if m.EstimatedTurns <= 0 {
			return nil, fmt.Errorf("module %q: estimated_turns must be positive", m.ID)
		}
		c.index[m.ID] = len(c.modules)
		c.modules = append(c.modules, m)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Module, bool) {
	i, ok := c.index[id]
	if !ok {
		return Module{}, false
	}
	return c.modules[i], true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// First is the module every new session starts in.
func (c *Catalog) First() Module { return c.modules[0] }

// Next returns the module after id. ok is false when id is the last module or
// unknown; both mean the interview is over.
func (c *Catalog) Next(id string) (next Module, ok bool) {
	i, known := c.index[id]
	if !known || i >= len(c.modules)-1 {
		return Module{}, false
	}
	return c.modules[i+1], true
}

func (c *Catalog) IDs() []string {
	out := make([]string, len(c.modules))
	for i, m := range c.modules {
		out[i] = m.ID
	}
	return out
}

func (c *Catalog) All() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}
