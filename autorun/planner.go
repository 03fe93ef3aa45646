package autorun

import (
	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/graph"
)

// Planner computes auto-run plans against a policy.
type Planner struct {
	policy Policy
}

// NewPlanner creates a Planner.
func NewPlanner(policy Policy) *Planner {
	return &Planner{policy: policy}
}

// Policy returns the planner's policy.
func (p *Planner) Policy() Policy { return p.policy }

// Plan returns the ids of the nodes to execute after trigger fired on
// nodeID. The plan is never nil.
func (p *Planner) Plan(nodes []graph.Node, edges []graph.Edge, nodeID string, trigger Trigger) ([]string, error) {
	if _, err := ParseTrigger(string(trigger)); err != nil {
		return nil, apperrors.InvalidInput("trigger", err.Error())
	}
	idx, err := graph.NewIndex(nodes, edges)
	if err != nil {
		return nil, err
	}
	if _, ok := idx.Node(nodeID); !ok {
		return nil, apperrors.NotFound("node", nodeID)
	}
	return p.PlanIndex(idx, nodeID, trigger), nil
}

// PlanIndex is Plan over a prebuilt index. nodeID must exist.
func (p *Planner) PlanIndex(idx *graph.Index, nodeID string, trigger Trigger) []string {
	plan := []string{}
	switch trigger {
	case TriggerCreate, TriggerConfigChange:
		if p.autoRuns(idx, nodeID, trigger) {
			plan = append(plan, nodeID)
		}
	case TriggerDataReceived:
		visited := map[string]bool{nodeID: true}
		plan = p.downstream(idx, nodeID, visited, plan)
	}
	return plan
}

// downstream walks outgoing data edges depth first, keeping targets that
// auto-run on new data and recursing only through them.
func (p *Planner) downstream(idx *graph.Index, id string, visited map[string]bool, plan []string) []string {
	for _, e := range idx.Outgoing(id, graph.EdgeData) {
		if visited[e.Target] {
			continue
		}
		if !p.autoRuns(idx, e.Target, TriggerDataReceived) {
			continue
		}
		visited[e.Target] = true
		plan = append(plan, e.Target)
		plan = p.downstream(idx, e.Target, visited, plan)
	}
	return plan
}

func (p *Planner) autoRuns(idx *graph.Index, id string, trigger Trigger) bool {
	if idx.HasIncomingExec(id) {
		return false
	}
	n, ok := idx.Node(id)
	return ok && p.policy.Allows(trigger, n.Type)
}
