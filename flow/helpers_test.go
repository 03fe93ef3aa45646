package flow

import (
	"context"
	"testing"

	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/util"
)

// testCatalog registers a small set of node types mirroring the reference
// library, plus any extra definitions.
func testCatalog(t *testing.T, extra ...registry.Definition) *registry.Registry {
	t.Helper()
	valueOp := func(_ context.Context, req registry.Request) (any, error) {
		return req.Config["value"], nil
	}

	reg := registry.New()
	reg.MustRegister(
		registry.Definition{
			Type:      registry.TypeConstant,
			Handles:   registry.Handles{Outputs: []string{"value"}},
			Operation: valueOp,
		},
		registry.Definition{
			Type:          registry.TypeInput,
			Handles:       registry.Handles{Outputs: []string{"value"}},
			ExposedFields: []string{"value"},
			Operation:     valueOp,
		},
		registry.Definition{
			Type:          "math/add",
			Handles:       registry.Handles{Inputs: []string{"a", "b"}, Outputs: []string{"result"}},
			ExposedFields: []string{"a", "b"},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				a, _ := util.ToFloat(req.Config["a"])
				b, _ := util.ToFloat(req.Config["b"])
				return a + b, nil
			},
		},
		registry.Definition{
			Type:          registry.TypeIf,
			Handles:       registry.Handles{Inputs: []string{"value"}, Outputs: []string{"branch", "condition", "value"}},
			ExecInputs:    true,
			ExecOutputs:   []string{registry.BranchTrue, registry.BranchFalse},
			ExposedFields: []string{"condition"},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				cond := util.ToBool(req.Config["condition"])
				branch := registry.BranchFalse
				if cond {
					branch = registry.BranchTrue
				}
				return map[string]any{"branch": branch, "condition": cond, "value": req.Inputs["value"]}, nil
			},
		},
		registry.Definition{
			Type:    registry.TypeVariable,
			Handles: registry.Handles{Inputs: []string{"value"}, Outputs: []string{"value"}},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				name := util.ToString(req.Config["variableName"])
				if util.ToString(req.Config["mode"]) == registry.VariableSet {
					v, ok := req.Inputs["value"]
					if !ok {
						v = req.Config["value"]
					}
					req.Exec.Variables.Set(name, v)
					return v, nil
				}
				v, _ := req.Exec.Variables.Get(name)
				return v, nil
			},
		},
		registry.Definition{
			Type:       "mark",
			ExecInputs: true,
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				return req.NodeID, nil
			},
		},
		registry.Definition{
			Type:        registry.TypeRepeat,
			Handles:     registry.Handles{Outputs: []string{"index"}},
			ExecInputs:  true,
			ExecOutputs: []string{registry.LoopBody, registry.LoopDone},
			Operation: func(context.Context, registry.Request) (any, error) {
				return 0, nil
			},
		},
	)
	reg.MustRegister(extra...)
	return reg
}

func node(id, typ string, cfg map[string]any) graph.Node {
	return graph.Node{ID: id, Type: typ, Config: cfg}
}

func dataEdge(src, srcHandle, dst, dstHandle string) graph.Edge {
	return graph.Edge{
		ID:           src + "." + srcHandle + "->" + dst + "." + dstHandle,
		Source:       src,
		Target:       dst,
		SourceHandle: srcHandle,
		TargetHandle: dstHandle,
		Kind:         graph.EdgeData,
	}
}

func execEdge(src, srcHandle, dst string) graph.Edge {
	return graph.Edge{
		ID:           src + "." + srcHandle + "=>" + dst,
		Source:       src,
		Target:       dst,
		SourceHandle: srcHandle,
		TargetHandle: "exec",
		Kind:         graph.EdgeExec,
	}
}

func mustRun(t *testing.T, e *Engine, nodes []graph.Node, edges []graph.Edge, opts ...RunOption) *RunResult {
	t.Helper()
	res, err := e.RunFlow(context.Background(), nodes, edges, nil, nil, opts...)
	if err != nil {
		t.Fatalf("RunFlow failed: %v", err)
	}
	return res
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
