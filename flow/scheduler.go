package flow

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// run is one scheduling of a graph. It is used by a single goroutine.
type run struct {
	id       string
	cfg      Config
	exec     *executor
	idx      *graph.Index
	state    *runState
	configs  map[string]map[string]any
	overlay  *configOverlay
	external map[string]any
	vars     *registry.Variables
	adapters map[string]any
	types    *typesys.Cache
	log      *logger.Logger

	observers []Observer

	iteration map[string]int
	used      map[string]map[string]any
	bodies    map[string][]string
}

// baseConfig is the caller's config for a node: the per-run override if
// supplied, else the node's own config.
func (r *run) baseConfig(n graph.Node) map[string]any {
	if c, ok := r.configs[n.ID]; ok {
		return c
	}
	return n.Config
}

// liveConfig is the base config with live patches applied.
func (r *run) liveConfig(n graph.Node) map[string]any {
	return util.Merge(r.baseConfig(n), r.overlay.get(n.ID))
}

// isEntry reports whether a node seeds the ready queue.
func (r *run) isEntry(n graph.Node) bool {
	if registry.IsSourceType(n.Type) || isVariableGetter(n, r.liveConfig(n)) {
		return true
	}
	return !r.idx.HasIncomingExec(n.ID) && !r.idx.HasIncomingData(n.ID)
}

// execute drives the main pass and reports nodes left waiting forever.
func (r *run) execute(ctx context.Context) error {
	var seed []string
	for _, n := range r.idx.Nodes() {
		if r.isEntry(n) {
			seed = append(seed, n.ID)
		}
	}
	if err := r.pass(ctx, seed, nil, 0); err != nil {
		return err
	}

	var stuck []string
	for _, n := range r.idx.Nodes() {
		if r.state.deferred[n.ID] && !r.state.isExecuted(n.ID) && !r.state.neverSignaled(n.ID, nil) {
			stuck = append(stuck, n.ID)
		}
	}
	if len(stuck) > 0 {
		return apperrors.DidNotConverge("nodes remained unready after the queue drained", stuck)
	}
	return nil
}

// pass runs the dequeue/execute/propagate/scan loop. A nil scope covers
// the whole graph; loop bodies run nested passes over their own nodes.
func (r *run) pass(ctx context.Context, seed []string, scope map[string]bool, depth int) error {
	size := len(r.idx.Nodes())
	if scope != nil {
		size = len(scope)
	}
	limit := r.cfg.IterationFactor * size

	var queue []string
	seen := make(map[string]bool, len(seed))
	for _, id := range seed {
		if !seen[id] {
			seen[id] = true
			r.state.queued[id] = true
			queue = append(queue, id)
		}
	}

	dequeues := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if dequeues >= limit {
			return apperrors.DidNotConverge(fmt.Sprintf("iteration cap of %d reached", limit), queue)
		}
		id := queue[0]
		queue = queue[1:]
		dequeues++
		delete(r.state.queued, id)

		if r.state.isExecuted(id) {
			continue
		}
		if !r.state.isReady(id) {
			// re-admitted by scan once its preconditions hold
			r.state.deferred[id] = true
			continue
		}
		if err := r.invokeNode(ctx, id); err != nil {
			return err
		}
		if err := r.propagate(ctx, id, depth); err != nil {
			return err
		}
		queue = r.scan(queue, scope)
	}
	return nil
}

// scan appends newly ready nodes in graph order.
func (r *run) scan(queue []string, scope map[string]bool) []string {
	for _, n := range r.idx.Nodes() {
		id := n.ID
		if scope != nil && !scope[id] {
			continue
		}
		if r.state.queued[id] || r.state.isExecuted(id) || r.state.isFailed(id) {
			continue
		}
		if r.state.isReady(id) {
			r.state.queued[id] = true
			queue = append(queue, id)
		}
	}
	return queue
}

// gatherInputs collects values along non-virtual incoming data edges.
func (r *run) gatherInputs(n graph.Node) map[string]any {
	inputs := make(map[string]any)
	for _, e := range r.idx.Incoming(n.ID, graph.EdgeData) {
		if e.Virtual {
			continue
		}
		if v, ok := r.state.handleValue(e.Source, e.SourceHandle); ok {
			inputs[e.TargetHandle] = v
		}
	}
	if n.Type == registry.TypeInput {
		if v, ok := r.external[n.ID]; ok {
			inputs[ExternalInputHandle] = v
		}
	}
	return inputs
}

// invokeNode executes one node and records its result. The returned error
// is the node failure, already recorded.
func (r *run) invokeNode(ctx context.Context, id string) error {
	n, _ := r.idx.Node(id)
	log := r.log.WithNode(n.ID, n.Type)

	def, op, err := r.exec.resolve(n)
	if err != nil {
		r.fail(n, err, log)
		return err
	}

	inputs := r.gatherInputs(n)
	cfg := mergeConfig(def, r.baseConfig(n), r.overlay.get(id), inputs)
	r.used[id] = cfg

	r.state.status[id] = StatusExecuting
	r.emit(Event{Type: EventNodeExecuting, NodeID: id})

	res := r.exec.invoke(ctx, invocation{
		node:      n,
		def:       def,
		config:    cfg,
		inputs:    inputs,
		iteration: r.iteration[id],
		exec:      r.execContext(n),
	}, op)

	r.state.record(res)
	if res.Status == StatusFailed {
		r.emit(Event{Type: EventNodeFailed, NodeID: id, Result: res, Err: res.Error})
		log.WithError(res.Error).Error("node failed", logger.DurationFields("execute", res.Duration))
		return res.Error
	}
	r.types.Record(id, res.Outputs)
	r.emit(Event{Type: EventNodeExecuted, NodeID: id, Result: res})
	log.Debug("node executed", logger.Fields(logger.FieldIteration, res.Iteration, logger.FieldDuration, res.Duration.Milliseconds()))
	return nil
}

func (r *run) fail(n graph.Node, err error, log *logger.Logger) {
	res := &NodeResult{NodeID: n.ID, Type: n.Type, Status: StatusFailed, Error: err}
	r.state.record(res)
	r.emit(Event{Type: EventNodeFailed, NodeID: n.ID, Result: res, Err: err})
	log.WithError(err).Error("node failed")
}

func (r *run) execContext(n graph.Node) *registry.ExecContext {
	return &registry.ExecContext{
		RunID:     r.id,
		Registry:  r.exec.catalog,
		Variables: r.vars,
		Results: func(nodeID string) (map[string]any, bool) {
			out, ok := r.state.outputs[nodeID]
			return out, ok
		},
		Adapters: r.adapters,
		UpdateNodeConfig: func(patch map[string]any) {
			r.overlay.apply(n.ID, patch)
		},
		Logger: r.log.WithNode(n.ID, n.Type),
	}
}

func (r *run) emit(ev Event) {
	ev.RunID = r.id
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, obs := range r.observers {
		if obs != nil {
			obs(ev)
		}
	}
}
