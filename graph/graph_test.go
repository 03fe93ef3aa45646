package graph

import (
	"encoding/json"
	"testing"

	apperrors "github.com/kbukum/nodeflow/errors"
)

func sampleGraph() ([]Node, []Edge) {
	nodes := []Node{
		{ID: "a", Type: "constant"},
		{ID: "b", Type: "constant"},
		{ID: "add", Type: "math/add"},
		{ID: "out", Type: "output"},
	}
	edges := []Edge{
		{ID: "e1", Source: "a", Target: "add", SourceHandle: "output", TargetHandle: "a", Kind: EdgeData},
		{ID: "e2", Source: "b", Target: "add", SourceHandle: "output", TargetHandle: "b"},
		{ID: "e3", Source: "add", Target: "out", SourceHandle: "exec-out", TargetHandle: "exec-in", Kind: EdgeExec},
		{ID: "v1", Source: "a", Target: "out", Kind: EdgeData, Virtual: true},
	}
	return nodes, edges
}

func TestNewIndex_Lookup(t *testing.T) {
	nodes, edges := sampleGraph()
	idx, err := NewIndex(nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, ok := idx.Node("add")
	if !ok || n.Type != "math/add" {
		t.Fatalf("expected add node, got %+v (ok=%v)", n, ok)
	}
	if _, ok := idx.Node("missing"); ok {
		t.Fatal("expected missing node lookup to fail")
	}
	if idx.Position("b") != 1 || idx.Position("zzz") != -1 {
		t.Errorf("unexpected positions: b=%d zzz=%d", idx.Position("b"), idx.Position("zzz"))
	}

	in := idx.Incoming("add", EdgeData)
	if len(in) != 2 || in[0].ID != "e1" || in[1].ID != "e2" {
		t.Fatalf("expected e1,e2 in caller order, got %+v", in)
	}
	if got := idx.Outgoing("add", EdgeExec); len(got) != 1 || got[0].ID != "e3" {
		t.Fatalf("expected exec edge e3, got %+v", got)
	}
}

func TestIndex_IncomingFlags(t *testing.T) {
	nodes, edges := sampleGraph()
	idx, _ := NewIndex(nodes, edges)

	tests := []struct {
		id       string
		wantExec bool
		wantData bool
	}{
		{"a", false, false},
		{"add", false, true},
		{"out", true, false}, // only a virtual data edge
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			if got := idx.HasIncomingExec(tc.id); got != tc.wantExec {
				t.Errorf("HasIncomingExec = %v, want %v", got, tc.wantExec)
			}
			if got := idx.HasIncomingData(tc.id); got != tc.wantData {
				t.Errorf("HasIncomingData = %v, want %v", got, tc.wantData)
			}
		})
	}
}

func TestNewIndex_UnknownEndpoint(t *testing.T) {
	nodes := []Node{{ID: "a", Type: "constant"}}
	edges := []Edge{{ID: "bad", Source: "a", Target: "ghost"}}

	_, err := NewIndex(nodes, edges)
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidGraph) {
		t.Fatalf("expected INVALID_GRAPH, got %v", err)
	}
}

func TestEdge_VirtualNotEncoded(t *testing.T) {
	data, err := json.Marshal(Edge{ID: "v", Source: "a", Target: "b", Virtual: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if _, ok := m["Virtual"]; ok {
		t.Errorf("virtual flag must not be encoded: %s", data)
	}
}

func TestWithoutVirtual(t *testing.T) {
	_, edges := sampleGraph()
	out := WithoutVirtual(edges)
	if len(out) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(out))
	}
	if len(edges) != 4 {
		t.Fatal("input slice must not be modified")
	}
}

// --- Flow tests ---

func TestFlow_Normalize(t *testing.T) {
	f := &Flow{Edges: []Edge{
		{Source: "a", Target: "b"},
		{ID: "x", Source: "b", Target: "c", Kind: EdgeExec},
	}}
	f.Normalize()

	if f.Edges[0].Kind != EdgeData || f.Edges[0].SourceHandle != "output" || f.Edges[0].TargetHandle != "input" {
		t.Errorf("unexpected data edge defaults: %+v", f.Edges[0])
	}
	if f.Edges[0].ID == "" {
		t.Error("expected generated edge id")
	}
	if f.Edges[1].SourceHandle != "" || f.Edges[1].ID != "x" {
		t.Errorf("exec edge must keep its handles and id: %+v", f.Edges[1])
	}
}

func TestFlow_Check(t *testing.T) {
	tests := []struct {
		name    string
		flow    Flow
		wantErr bool
	}{
		{"valid", Flow{Nodes: []Node{{ID: "a", Type: "constant"}}}, false},
		{"missing id", Flow{Nodes: []Node{{Type: "constant"}}}, true},
		{"missing type", Flow{Nodes: []Node{{ID: "a"}}}, true},
		{"duplicate", Flow{Nodes: []Node{{ID: "a", Type: "x"}, {ID: "a", Type: "y"}}}, true},
		{"dangling edge", Flow{Nodes: []Node{{ID: "a", Type: "x"}}, Edges: []Edge{{Source: "a", Target: "b"}}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.flow.Check()
			if (err != nil) != tc.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
