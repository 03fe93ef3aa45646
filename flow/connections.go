package flow

import (
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
)

// ConnectionCheck labels one data edge with the types on both ends.
type ConnectionCheck struct {
	EdgeID     string      `json:"edgeId"`
	SourceType typesys.Tag `json:"sourceType"`
	TargetType typesys.Tag `json:"targetType"`
	Compatible bool        `json:"compatible"`
}

// CheckConnections labels non-virtual data edges. Source tags come from the
// values detected in the last run, target tags from the declared input
// types; anything unknown is "any".
func CheckConnections(catalog registry.Catalog, nodes []graph.Node, edges []graph.Edge, types *typesys.Cache) []ConnectionCheck {
	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var out []ConnectionCheck
	for _, e := range edges {
		if e.Virtual || !e.IsData() {
			continue
		}
		src := typesys.Any
		if types != nil {
			if t, ok := types.Get(e.Source, e.SourceHandle); ok {
				src = t
			}
		}
		dst := typesys.Any
		if n, ok := byID[e.Target]; ok {
			if def, err := catalog.Definition(n.Type); err == nil {
				if t, ok := def.InputTypes[e.TargetHandle]; ok {
					dst = t
				}
			}
		}
		out = append(out, ConnectionCheck{
			EdgeID:     e.ID,
			SourceType: src,
			TargetType: dst,
			Compatible: typesys.Compatible(src, dst),
		})
	}
	return out
}
