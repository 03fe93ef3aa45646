package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/kbukum/nodeflow/errors"
)

// Catalog is the read side of a registry consumed by the engine.
type Catalog interface {
	Definition(nodeType string) (*Definition, error)
	Operation(nodeType string) (Operation, error)
	Validator(nodeType string) (ValidatorFunc, bool)
	List() []string
}

// Registry maps node types to their definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, replacing any previous one for the type.
func (r *Registry) Register(def Definition) error {
	if strings.TrimSpace(def.Type) == "" {
		return fmt.Errorf("registry: definition without type")
	}
	if def.OutputMapping != nil && def.OutputMapping.FieldSource == "" {
		return fmt.Errorf("registry: %s: output mapping needs a field source", def.Type)
	}
	if def.DynamicHandles != nil && def.DynamicHandles.ModeField == "" {
		return fmt.Errorf("registry: %s: dynamic handles need a mode field", def.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d := def
	r.defs[def.Type] = &d
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Definition returns the definition of a type.
func (r *Registry) Definition(nodeType string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[nodeType]
	if !ok {
		return nil, apperrors.UnknownNodeType("", nodeType)
	}
	return d, nil
}

// Operation returns the operation of a type.
func (r *Registry) Operation(nodeType string) (Operation, error) {
	d, err := r.Definition(nodeType)
	if err != nil {
		return nil, err
	}
	if d.Operation == nil {
		return nil, apperrors.MissingOperation("", nodeType)
	}
	return d.Operation, nil
}

// Validator returns the config validator of a type, if it has one.
func (r *Registry) Validator(nodeType string) (ValidatorFunc, bool) {
	d, err := r.Definition(nodeType)
	if err != nil || d.Validator == nil {
		return nil, false
	}
	return d.Validator, true
}

// List returns sorted names of all registered types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
