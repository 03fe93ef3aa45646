package flow

import (
	"testing"

	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
)

func TestResolveVariableEdges(t *testing.T) {
	nodes := []graph.Node{
		node("s1", registry.TypeVariable, map[string]any{"variableName": "x", "mode": "set"}),
		node("s2", registry.TypeVariable, map[string]any{"variableName": " x ", "mode": "SET"}),
		node("g1", registry.TypeVariable, map[string]any{"variableName": "x"}),
		node("g2", registry.TypeVariable, map[string]any{"variableName": "y", "mode": "get"}),
		node("blank", registry.TypeVariable, map[string]any{"variableName": "  ", "mode": "set"}),
		node("c", registry.TypeConstant, map[string]any{"variableName": "x", "mode": "set"}),
	}
	edges := []graph.Edge{dataEdge("c", "value", "s1", "value")}

	out := ResolveVariableEdges(nodes, edges, nil)
	if len(edges) != 1 {
		t.Fatal("expected the input slice to stay untouched")
	}
	if len(out) != 3 {
		t.Fatalf("expected 1 caller edge and 2 virtual edges, got %d: %v", len(out), out)
	}
	if out[0].ID != edges[0].ID || out[0].Virtual {
		t.Fatalf("expected caller edge first, got %+v", out[0])
	}

	wantIDs := []string{VirtualEdgeID("s1", "g1"), VirtualEdgeID("s2", "g1")}
	for i, want := range wantIDs {
		e := out[i+1]
		if e.ID != want {
			t.Errorf("edge %d: expected id %q, got %q", i, want, e.ID)
		}
		if !e.Virtual || e.Kind != graph.EdgeData {
			t.Errorf("edge %d: expected virtual data edge, got %+v", i, e)
		}
		if e.SourceHandle != VirtualSourceHandle || e.TargetHandle != VirtualTargetHandle {
			t.Errorf("edge %d: unexpected handles %s -> %s", i, e.SourceHandle, e.TargetHandle)
		}
	}

	again := ResolveVariableEdges(nodes, edges, nil)
	for i := range out {
		if out[i] != again[i] {
			t.Fatalf("expected deterministic output, got %v vs %v", out, again)
		}
	}
}

func TestResolveVariableEdges_UsesLiveConfig(t *testing.T) {
	nodes := []graph.Node{
		node("a", registry.TypeVariable, map[string]any{"variableName": "x"}),
		node("b", registry.TypeVariable, map[string]any{"variableName": "x"}),
	}
	live := func(n graph.Node) map[string]any {
		if n.ID == "a" {
			return map[string]any{"variableName": "x", "mode": "set"}
		}
		return n.Config
	}

	out := ResolveVariableEdges(nodes, nil, live)
	if len(out) != 1 || out[0].ID != VirtualEdgeID("a", "b") {
		t.Fatalf("expected a->b, got %v", out)
	}
	if len(ResolveVariableEdges(nodes, nil, nil)) != 0 {
		t.Fatal("expected no edges between two getters")
	}
}

func TestVariableEdgeID(t *testing.T) {
	if got := VirtualEdgeID("s", "g"); got != "virtual:s->g" {
		t.Fatalf("expected virtual:s->g, got %s", got)
	}
}
