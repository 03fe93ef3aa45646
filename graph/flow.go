package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Flow is a composable, YAML-defined graph definition.
type Flow struct {
	// Name is the flow identifier used by includes.
	Name string `yaml:"name" json:"name"`
	// Description is free text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Includes lists sub-flow names to compose (recursive).
	Includes []string `yaml:"includes,omitempty" json:"includes,omitempty"`
	// Inputs maps input node ids to default external values.
	Inputs map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Nodes  []Node         `yaml:"nodes" json:"nodes"`
	Edges  []Edge         `yaml:"edges,omitempty" json:"edges,omitempty"`
}

// Normalize fills in defaults: edge kinds default to data, data handles
// default to "output"/"input", and edges without an id get a generated one.
func (f *Flow) Normalize() {
	for i := range f.Edges {
		e := &f.Edges[i]
		if e.Kind == "" {
			e.Kind = EdgeData
		}
		if e.IsData() {
			if e.SourceHandle == "" {
				e.SourceHandle = "output"
			}
			if e.TargetHandle == "" {
				e.TargetHandle = "input"
			}
		}
		if e.ID == "" {
			e.ID = "e-" + uuid.NewString()
		}
	}
}

// Check verifies that node ids are unique and non-empty and that every edge
// references an existing node.
func (f *Flow) Check() error {
	seen := make(map[string]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		if n.ID == "" {
			return fmt.Errorf("graph: flow %q has a node without id", f.Name)
		}
		if n.Type == "" {
			return fmt.Errorf("graph: node %q has no type", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("graph: duplicate node id %q in flow %q", n.ID, f.Name)
		}
		seen[n.ID] = true
	}
	_, err := NewIndex(f.Nodes, f.Edges)
	return err
}
