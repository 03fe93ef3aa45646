package nodes

import (
	"github.com/kbukum/nodeflow/registry"
)

// Categories group node types in the editor palette.
const (
	CategoryCore    = "core"
	CategoryLogic   = "logic"
	CategoryMath    = "math"
	CategoryArray   = "array"
	CategoryObject  = "object"
	CategoryText    = "text"
	CategoryStorage = "storage"
	CategoryNetwork = "network"
)

// Definitions returns every built-in node type.
func Definitions() []registry.Definition {
	var defs []registry.Definition
	defs = append(defs, coreDefinitions()...)
	defs = append(defs, mathDefinitions()...)
	defs = append(defs, arrayDefinitions()...)
	defs = append(defs, objectDefinitions()...)
	defs = append(defs, textDefinitions()...)
	defs = append(defs, storageDefinitions()...)
	defs = append(defs, httpDefinitions()...)
	return defs
}

// Register adds every built-in type to reg.
func Register(reg *registry.Registry) error {
	for _, d := range Definitions() {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(Definitions()...)
	return reg
}

// input returns the first present input among names, falling back to the
// config value of the first name.
func input(req registry.Request, names ...string) any {
	for _, n := range names {
		if v, ok := req.Inputs[n]; ok {
			return v
		}
	}
	if len(names) == 0 {
		return nil
	}
	return req.Config[names[0]]
}
