package flow

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/util"
)

// propagate activates exec edges after a node executed.
func (r *run) propagate(ctx context.Context, id string, depth int) error {
	n, _ := r.idx.Node(id)
	switch {
	case n.Type == registry.TypeIf:
		branch := r.branchOf(id)
		for _, e := range r.idx.Outgoing(id, graph.EdgeExec) {
			if e.SourceHandle == branch {
				r.signal(e.Target)
			}
		}
	case registry.IsLoopType(n.Type):
		return r.runLoop(ctx, n, depth)
	default:
		for _, e := range r.idx.Outgoing(id, graph.EdgeExec) {
			r.signal(e.Target)
		}
	}
	return nil
}

// branchOf returns the branch tag chosen by a conditional node.
func (r *run) branchOf(id string) string {
	if v, ok := r.state.handleValue(id, "branch"); ok {
		return util.ToString(v)
	}
	if res, ok := r.state.results[id]; ok {
		if rec, ok := res.Raw.(map[string]any); ok {
			return util.ToString(rec["branch"])
		}
	}
	return ""
}

func (r *run) signal(id string) {
	if !r.state.isExecuted(id) {
		r.state.signaled[id] = true
	}
}

// runLoop iterates the body subgraph of a loop node, then fires its done
// edges once.
func (r *run) runLoop(ctx context.Context, n graph.Node, depth int) error {
	if depth+1 > r.cfg.MaxSignalDepth {
		return apperrors.DidNotConverge(fmt.Sprintf("signal depth limit of %d exceeded", r.cfg.MaxSignalDepth), []string{n.ID})
	}
	maxIter, err := registry.LoopIterations(r.used[n.ID], r.cfg.MaxLoopIterations)
	if err != nil {
		appErr := apperrors.ConfigValidation(n.ID, n.Type, err.Error())
		failed := &NodeResult{NodeID: n.ID, Type: n.Type, Iteration: r.iteration[n.ID]}
		if prev, ok := r.state.results[n.ID]; ok {
			failed = prev.clone()
		}
		failed.Status = StatusFailed
		failed.Error = appErr
		r.state.record(failed)
		r.emit(Event{Type: EventNodeFailed, NodeID: n.ID, Result: failed, Err: appErr})
		return appErr
	}

	body := r.bodyOf(n.ID)
	scope := make(map[string]bool, len(body))
	for _, id := range body {
		scope[id] = true
	}
	log := r.log.WithNode(n.ID, n.Type)

	iterations := 0
	for i := 0; i < maxIter; i++ {
		if n.Type == registry.TypeWhile {
			if i > 0 {
				r.iteration[n.ID] = i
				if err := r.invokeNode(ctx, n.ID); err != nil {
					return err
				}
			}
			if cond, _ := r.state.handleValue(n.ID, "condition"); !util.ToBool(cond) {
				break
			}
		}
		r.setIndex(n.ID, i)

		r.state.reset(body)
		for _, id := range body {
			r.iteration[id] = i
		}
		for _, e := range r.idx.Outgoing(n.ID, graph.EdgeExec) {
			if e.SourceHandle == registry.LoopBody {
				r.signal(e.Target)
			}
		}
		if err := r.pass(ctx, r.scan(nil, scope), scope, depth+1); err != nil {
			return err
		}
		iterations++
	}
	log.Debug("loop finished", map[string]interface{}{"iterations": iterations, "max_iterations": maxIter})

	for _, e := range r.idx.Outgoing(n.ID, graph.EdgeExec) {
		if e.SourceHandle == registry.LoopDone {
			r.signal(e.Target)
		}
	}
	return nil
}

// setIndex publishes the current iteration on the loop's index output.
// Recorded results are replaced, not modified, since session queries may
// hold them.
func (r *run) setIndex(id string, i int) {
	out := util.CloneMap(r.state.outputs[id])
	out["index"] = i
	r.state.outputs[id] = out
	if res, ok := r.state.results[id]; ok {
		next := *res
		next.Outputs = out
		r.state.results[id] = &next
	}
}

// bodyOf returns the nodes reachable from a loop's body edges but not from
// its done edges, in graph order. Virtual edges are not followed.
func (r *run) bodyOf(loopID string) []string {
	if b, ok := r.bodies[loopID]; ok {
		return b
	}
	var bodyStart, doneStart []string
	for _, e := range r.idx.Outgoing(loopID, graph.EdgeExec) {
		switch e.SourceHandle {
		case registry.LoopBody:
			bodyStart = append(bodyStart, e.Target)
		case registry.LoopDone:
			doneStart = append(doneStart, e.Target)
		}
	}
	inBody := r.reach(loopID, bodyStart)
	inDone := r.reach(loopID, doneStart)

	var body []string
	for _, n := range r.idx.Nodes() {
		if inBody[n.ID] && !inDone[n.ID] {
			body = append(body, n.ID)
		}
	}
	r.bodies[loopID] = body
	return body
}

func (r *run) reach(loopID string, start []string) map[string]bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), start...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == loopID || seen[id] {
			continue
		}
		seen[id] = true
		for _, kind := range []graph.EdgeKind{graph.EdgeData, graph.EdgeExec} {
			for _, e := range r.idx.Outgoing(id, kind) {
				if !e.Virtual {
					stack = append(stack, e.Target)
				}
			}
		}
	}
	return seen
}
