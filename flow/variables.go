package flow

import (
	"strings"

	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
)

// Handles used by synthesized variable edges.
const (
	VirtualSourceHandle = "data-out"
	VirtualTargetHandle = "data-in"
)

// VirtualEdgeID returns the deterministic id of a setter-to-getter edge.
func VirtualEdgeID(setter, getter string) string {
	return "virtual:" + setter + "->" + getter
}

// ResolveVariableEdges returns edges plus one virtual data edge from every
// variable setter to every getter of the same name. Nodes with a blank
// variable name are inert. The input slice is never modified.
func ResolveVariableEdges(nodes []graph.Node, edges []graph.Edge, configOf func(graph.Node) map[string]any) []graph.Edge {
	type group struct{ setters, getters []string }
	groups := make(map[string]*group)
	var names []string

	for _, n := range nodes {
		if n.Type != registry.TypeVariable {
			continue
		}
		cfg := n.Config
		if configOf != nil {
			cfg = configOf(n)
		}
		name, _ := cfg["variableName"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		g, ok := groups[name]
		if !ok {
			g = &group{}
			groups[name] = g
			names = append(names, name)
		}
		switch variableMode(cfg) {
		case registry.VariableSet:
			g.setters = append(g.setters, n.ID)
		case registry.VariableGet:
			g.getters = append(g.getters, n.ID)
		}
	}

	out := make([]graph.Edge, len(edges), len(edges)+len(nodes))
	copy(out, edges)
	for _, name := range names {
		g := groups[name]
		for _, s := range g.setters {
			for _, t := range g.getters {
				out = append(out, graph.Edge{
					ID:           VirtualEdgeID(s, t),
					Source:       s,
					Target:       t,
					SourceHandle: VirtualSourceHandle,
					TargetHandle: VirtualTargetHandle,
					Kind:         graph.EdgeData,
					Virtual:      true,
				})
			}
		}
	}
	return out
}

func variableMode(cfg map[string]any) string {
	mode, _ := cfg["mode"].(string)
	if strings.EqualFold(mode, registry.VariableSet) {
		return registry.VariableSet
	}
	return registry.VariableGet
}

func isVariableGetter(n graph.Node, cfg map[string]any) bool {
	return n.Type == registry.TypeVariable && variableMode(cfg) == registry.VariableGet
}
