package flow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/nodeflow/graph"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/storage"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// RunNamespace is the storage namespace node results of a run are
// persisted under.
func RunNamespace(runID string) string {
	return "run:" + runID
}

// Session is the stateful surface an editor binds to. It keeps the results
// of the last ExecuteFlow, the global variables and live config patches
// across runs, and notifies subscribers after every state change.
//
// ExecuteFlow calls are serialized; queries may run concurrently with a run
// in progress and observe its partial state. Results handed out by queries
// are never modified afterwards.
type Session struct {
	engine   *Engine
	store    storage.Adapter
	adapters map[string]any
	log      *logger.Logger

	vars    *registry.Variables
	overlay *configOverlay
	types   *typesys.Cache

	runMu sync.Mutex

	mu       sync.RWMutex
	runID    string
	inputs   map[string]any
	results  map[string]*NodeResult
	executed []string
	runErr   error
	last     *RunResult
	nodes    []graph.Node
	edges    []graph.Edge

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStorage persists every recorded node result to a.
func WithStorage(a storage.Adapter) SessionOption {
	return func(s *Session) { s.store = a }
}

// WithSessionAdapters hands named collaborators to node operations.
func WithSessionAdapters(adapters map[string]any) SessionOption {
	return func(s *Session) { s.adapters = adapters }
}

// NewSession creates a Session over engine.
func NewSession(engine *Engine, opts ...SessionOption) *Session {
	s := &Session{
		engine:  engine,
		log:     engine.log.WithComponent("session"),
		vars:    registry.NewVariables(),
		overlay: newConfigOverlay(),
		types:   typesys.NewCache(),
		results: make(map[string]*NodeResult),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetInputs sets the external values fed to input nodes on later runs.
func (s *Session) SetInputs(inputs map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = util.CloneMap(inputs)
}

// ExecuteFlow runs the graph once, replacing the previous results. The
// returned error is the run failure, also available from RunError.
func (s *Session) ExecuteFlow(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	s.results = make(map[string]*NodeResult)
	s.executed = nil
	s.runErr = nil
	s.last = nil
	s.nodes = nodes
	s.edges = edges
	inputs := s.inputs
	s.mu.Unlock()

	res, err := s.engine.RunFlow(ctx, nodes, edges, nil, inputs,
		WithVariables(s.vars),
		WithAdapters(s.adapters),
		WithObserver(func(ev Event) { s.observe(ctx, ev) }),
		withOverlay(s.overlay),
		withTypeCache(s.types),
	)

	s.mu.Lock()
	s.last = res
	s.runID = res.RunID
	s.runErr = err
	s.results = res.Results
	s.executed = res.ExecutedNodes
	s.mu.Unlock()
	return err
}

// observe mirrors run events into the session view, persists node results
// and notifies subscribers.
func (s *Session) observe(ctx context.Context, ev Event) {
	s.mu.Lock()
	switch ev.Type {
	case EventRunStarted:
		s.runID = ev.RunID
	case EventNodeExecuting:
		res := &NodeResult{NodeID: ev.NodeID, Status: StatusExecuting}
		if prev, ok := s.results[ev.NodeID]; ok {
			res = prev.clone()
			res.Status = StatusExecuting
		}
		s.results[ev.NodeID] = res
	case EventNodeExecuted, EventNodeFailed:
		if ev.Result != nil {
			s.results[ev.NodeID] = ev.Result.clone()
		}
		if ev.Type == EventNodeExecuted && !util.Contains(s.executed, ev.NodeID) {
			s.executed = append(s.executed, ev.NodeID)
		}
	case EventRunFinished:
		s.runErr = ev.Err
	}
	s.mu.Unlock()

	if s.store != nil && ev.Result != nil {
		if err := storage.SetJSON(ctx, s.store, RunNamespace(ev.RunID), ev.NodeID, ev.Result); err != nil {
			s.log.WithError(err).Warn("persisting node result failed",
				logger.Fields(logger.FieldRunID, ev.RunID, logger.FieldNodeID, ev.NodeID))
		}
	}
	s.notify(ev)
}

// Subscribe registers fn for every state change and returns a function
// that removes it.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) notify(ev Event) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Result returns the result of one node.
func (s *Session) Result(nodeID string) (*NodeResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[nodeID]
	return r, ok
}

// Outputs returns the extracted outputs of an executed node.
func (s *Session) Outputs(nodeID string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[nodeID]
	if !ok || r.Status != StatusExecuted {
		return nil, false
	}
	return r.Outputs, true
}

// AllResults returns a copy of the result map.
func (s *Session) AllResults() map[string]*NodeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*NodeResult, len(s.results))
	for id, r := range s.results {
		out[id] = r
	}
	return out
}

// HasExecuted reports whether a node completed successfully.
func (s *Session) HasExecuted(nodeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[nodeID]
	return ok && r.Status == StatusExecuted
}

// HasError reports whether a node failed.
func (s *Session) HasError(nodeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[nodeID]
	return ok && r.Status == StatusFailed
}

// Error returns the failure of one node, or nil.
func (s *Session) Error(nodeID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[nodeID]; ok {
		return r.Error
	}
	return nil
}

// RunError returns the failure of the last run, or nil.
func (s *Session) RunError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runErr
}

// ExecutedNodes lists executed node ids in first-execution order.
func (s *Session) ExecutedNodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.executed...)
}

// LastRun returns the full result of the last completed run.
func (s *Session) LastRun() (*RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// ClearExecutionResults resets all run state: results, errors, variables
// and detected types. Live config patches are kept. Persisted results of
// the last run are removed from storage.
func (s *Session) ClearExecutionResults(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	runID := s.runID
	s.results = make(map[string]*NodeResult)
	s.executed = nil
	s.runErr = nil
	s.last = nil
	s.mu.Unlock()

	s.vars.Reset()
	s.types.Reset()

	var err error
	if s.store != nil && runID != "" {
		if err = s.store.ClearNamespace(ctx, RunNamespace(runID)); err != nil {
			s.log.WithError(err).Warn("clearing persisted results failed", logger.Fields(logger.FieldRunID, runID))
		}
	}
	s.notify(Event{Type: EventResultsCleared, RunID: runID, Time: time.Now()})
	return err
}

// UpdateNodeConfig merges patch over a node's config for later runs.
func (s *Session) UpdateNodeConfig(nodeID string, patch map[string]any) {
	s.overlay.apply(nodeID, patch)
	s.mu.RLock()
	runID := s.runID
	s.mu.RUnlock()
	s.notify(Event{Type: EventConfigUpdated, RunID: runID, NodeID: nodeID, Time: time.Now()})
}

// NodeConfig returns the live patches recorded for a node.
func (s *Session) NodeConfig(nodeID string) map[string]any {
	return s.overlay.get(nodeID)
}

// Variables returns the session's global variable map.
func (s *Session) Variables() *registry.Variables {
	return s.vars
}

// CheckConnections labels the data edges of the last executed graph with
// the types detected during that run.
func (s *Session) CheckConnections() []ConnectionCheck {
	s.mu.RLock()
	nodes, edges := s.nodes, s.edges
	s.mu.RUnlock()
	return CheckConnections(s.engine.catalog, nodes, edges, s.types)
}
