package graph

import (
	apperrors "github.com/kbukum/nodeflow/errors"
)

// EdgeKind distinguishes value-carrying edges from signal-only edges.
type EdgeKind string

const (
	// EdgeData carries a value from a source handle to a target handle.
	EdgeData EdgeKind = "data"
	// EdgeExec carries an activation signal only.
	EdgeExec EdgeKind = "exec"
)

// Node is a typed computation unit. Config is owned by the caller; the
// engine only reads a snapshot of it per invocation.
type Node struct {
	ID     string         `yaml:"id" json:"id"`
	Type   string         `yaml:"type" json:"type"`
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// Edge connects two nodes. Virtual edges are synthesized by the engine and
// are never encoded back to the caller.
type Edge struct {
	ID           string   `yaml:"id,omitempty" json:"id,omitempty"`
	Source       string   `yaml:"source" json:"source"`
	Target       string   `yaml:"target" json:"target"`
	SourceHandle string   `yaml:"sourceHandle,omitempty" json:"sourceHandle,omitempty"`
	TargetHandle string   `yaml:"targetHandle,omitempty" json:"targetHandle,omitempty"`
	Kind         EdgeKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Virtual      bool     `yaml:"-" json:"-"`
}

// IsExec reports whether the edge carries a signal. An empty kind is data.
func (e Edge) IsExec() bool { return e.Kind == EdgeExec }

// IsData reports whether the edge carries a value.
func (e Edge) IsData() bool { return e.Kind != EdgeExec }

// Index is a read-only lookup structure over one run's nodes and edges.
type Index struct {
	nodes    []Node
	edges    []Edge
	byID     map[string]int
	incoming map[string][]Edge
	outgoing map[string][]Edge
}

// NewIndex builds an Index. Every edge must reference existing node ids.
func NewIndex(nodes []Node, edges []Edge) (*Index, error) {
	idx := &Index{
		nodes:    nodes,
		edges:    edges,
		byID:     make(map[string]int, len(nodes)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
	}
	for i, n := range nodes {
		idx.byID[n.ID] = i
	}
	for _, e := range edges {
		if _, ok := idx.byID[e.Source]; !ok {
			return nil, apperrors.InvalidGraph(e.ID, e.Source)
		}
		if _, ok := idx.byID[e.Target]; !ok {
			return nil, apperrors.InvalidGraph(e.ID, e.Target)
		}
		idx.outgoing[e.Source] = append(idx.outgoing[e.Source], e)
		idx.incoming[e.Target] = append(idx.incoming[e.Target], e)
	}
	return idx, nil
}

// Nodes returns the nodes in caller order.
func (x *Index) Nodes() []Node { return x.nodes }

// Edges returns every edge, virtual ones included.
func (x *Index) Edges() []Edge { return x.edges }

// Node looks up a node by id.
func (x *Index) Node(id string) (Node, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Node{}, false
	}
	return x.nodes[i], true
}

// Position returns the node's index in caller order, or -1.
func (x *Index) Position(id string) int {
	if i, ok := x.byID[id]; ok {
		return i
	}
	return -1
}

// Incoming returns the edges of the given kind that end at id.
func (x *Index) Incoming(id string, kind EdgeKind) []Edge {
	return filterKind(x.incoming[id], kind)
}

// Outgoing returns the edges of the given kind that start at id.
func (x *Index) Outgoing(id string, kind EdgeKind) []Edge {
	return filterKind(x.outgoing[id], kind)
}

// HasIncomingExec reports whether id has at least one incoming exec edge.
func (x *Index) HasIncomingExec(id string) bool {
	for _, e := range x.incoming[id] {
		if e.IsExec() {
			return true
		}
	}
	return false
}

// HasIncomingData reports whether id has a non-virtual incoming data edge.
func (x *Index) HasIncomingData(id string) bool {
	for _, e := range x.incoming[id] {
		if e.IsData() && !e.Virtual {
			return true
		}
	}
	return false
}

func filterKind(edges []Edge, kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range edges {
		if (kind == EdgeExec) == e.IsExec() {
			out = append(out, e)
		}
	}
	return out
}

// WithoutVirtual returns a copy of edges with synthesized edges removed.
func WithoutVirtual(edges []Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Virtual {
			out = append(out, e)
		}
	}
	return out
}
