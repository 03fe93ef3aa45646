package registry

import (
	"context"
	"sync"

	"github.com/kbukum/nodeflow/logger"
)

// Operation executes one node invocation. The returned value is the raw
// result that the executor maps onto output handles.
type Operation func(ctx context.Context, req Request) (any, error)

// ValidatorFunc checks a node config and returns human-readable problems.
type ValidatorFunc func(config map[string]any) []string

// Request is the input of one invocation.
type Request struct {
	NodeID    string
	NodeType  string
	Config    map[string]any
	Inputs    map[string]any
	Iteration int
	Exec      *ExecContext
}

// Input returns a named input value.
func (r Request) Input(name string) (any, bool) {
	v, ok := r.Inputs[name]
	return v, ok
}

// ConfigValue returns a named config value.
func (r Request) ConfigValue(name string) (any, bool) {
	v, ok := r.Config[name]
	return v, ok
}

// ExecContext carries the capabilities an operation may use.
type ExecContext struct {
	RunID     string
	Registry  Catalog
	Variables *Variables
	// Results returns the recorded outputs of another node in this run.
	Results func(nodeID string) (map[string]any, bool)
	// Adapters holds caller-supplied collaborators keyed by name.
	Adapters map[string]any
	// UpdateNodeConfig merges a patch into the invoking node's live config.
	UpdateNodeConfig func(patch map[string]any)
	Logger           *logger.Logger
}

// Adapter returns a named collaborator.
func (c *ExecContext) Adapter(name string) (any, bool) {
	if c == nil || c.Adapters == nil {
		return nil, false
	}
	a, ok := c.Adapters[name]
	return a, ok
}

// Variables is the global variable map shared by a run or session.
// It is guarded because an operation abandoned after a timeout may still
// write to it.
type Variables struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewVariables creates an empty variable map.
func NewVariables() *Variables {
	return &Variables{values: make(map[string]any)}
}

// Get returns a variable value.
func (v *Variables) Get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

// Set stores a variable value.
func (v *Variables) Set(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

// Delete removes a variable.
func (v *Variables) Delete(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.values, name)
}

// Reset removes every variable.
func (v *Variables) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values = make(map[string]any)
}

// Snapshot returns a copy of all variables.
func (v *Variables) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}
