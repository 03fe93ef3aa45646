package flow

import (
	"testing"

	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
)

func TestCheckConnections_SkipsSignalAndVirtualEdges(t *testing.T) {
	reg := testCatalog(t)
	nodes := []graph.Node{
		node("c", registry.TypeConstant, nil),
		node("add", "math/add", nil),
		node("m", "mark", nil),
	}
	virtual := graph.Edge{ID: VirtualEdgeID("c", "add"), Source: "c", Target: "add", Virtual: true}
	edges := []graph.Edge{
		dataEdge("c", "value", "add", "a"),
		execEdge("add", "exec", "m"),
		virtual,
	}

	types := typesys.NewCache()
	types.Record("c", map[string]any{"value": []any{1, 2}})

	checks := CheckConnections(reg, nodes, edges, types)
	if len(checks) != 1 {
		t.Fatalf("expected one data edge check, got %v", checks)
	}
	c := checks[0]
	if c.SourceType == typesys.Any || c.TargetType != typesys.Any || !c.Compatible {
		t.Fatalf("expected detected source and untyped target, got %+v", c)
	}

	unknown := CheckConnections(reg, nodes, edges, nil)
	if unknown[0].SourceType != typesys.Any {
		t.Fatalf("expected any without a type cache, got %s", unknown[0].SourceType)
	}
}
