// Package registry holds node type definitions and their operations.
//
// A Definition describes a node type's handles, execution policy, config
// fields and output mapping; its Operation is the function the engine
// invokes. Operations receive everything they may touch through Request and
// ExecContext, so there is no package-level state.
//
//	reg := registry.New()
//	reg.MustRegister(registry.Definition{
//		Type:    "math/add",
//		Handles: registry.Handles{Inputs: []string{"a", "b"}, Outputs: []string{"result"}},
//		Operation: func(ctx context.Context, req registry.Request) (any, error) { ... },
//	})
package registry
