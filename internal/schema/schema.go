package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Parameter declares one input of an action: its name, a human-readable
// type label, whether it must be supplied, and an optional default used
// when it is absent.
type Parameter struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required" json:"required"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`
}

// Handler routes a validated action to its backend: the owning service
// name (resolved to a base URL by the dispatcher), the endpoint path and
// the per-action dispatch timeout.
type Handler struct {
	Service   string `yaml:"service" json:"service"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// ActionSchema is the declarative contract for one dispatchable action.
// Names are "<namespace>.<verb>"; the namespace prefix selects the
// normalization rules applied to the backend's response.
type ActionSchema struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Parameters  []Parameter `yaml:"parameters" json:"parameters"`
	Handler     Handler     `yaml:"handler" json:"handler"`
}

// Namespace returns the text before the first dot of the action name.
func (s *ActionSchema) Namespace() string {
	if i := strings.Index(s.Name, "."); i > 0 {
		return s.Name[:i]
	}
	return s.Name
}

// Registry maps action names to their schemas. The initial set is loaded
// at construction; Register allows new actions to be added at runtime
// without code changes.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*ActionSchema
}

func NewRegistry(schemas ...*ActionSchema) *Registry {
	r := &Registry{schemas: make(map[string]*ActionSchema)}
	for _, s := range schemas {
		r.schemas[s.Name] = s
	}
	return r
}

func (r *Registry) Register(s *ActionSchema) error {
	if s.Name == "" || !strings.Contains(s.Name, ".") {
		return fmt.Errorf("action name %q must be <namespace>.<verb>", s.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Name] = s
	return nil
}

func (r *Registry) Get(name string) (*ActionSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered action names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	return names
}
