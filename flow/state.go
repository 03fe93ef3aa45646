package flow

import (
	"github.com/kbukum/nodeflow/graph"
)

// runState is the per-run bookkeeping owned by the scheduler.
type runState struct {
	idx      *graph.Index
	status   map[string]Status
	results  map[string]*NodeResult
	outputs  map[string]map[string]any
	signaled map[string]bool
	queued   map[string]bool
	deferred map[string]bool
	// executed lists node ids in first-execution order, each once.
	executed []string
	seen     map[string]bool
}

func newRunState(idx *graph.Index) *runState {
	return &runState{
		idx:      idx,
		status:   make(map[string]Status),
		results:  make(map[string]*NodeResult),
		outputs:  make(map[string]map[string]any),
		signaled: make(map[string]bool),
		queued:   make(map[string]bool),
		deferred: make(map[string]bool),
		seen:     make(map[string]bool),
	}
}

func (s *runState) isExecuted(id string) bool { return s.status[id] == StatusExecuted }

func (s *runState) isFailed(id string) bool { return s.status[id] == StatusFailed }

func (s *runState) record(r *NodeResult) {
	s.status[r.NodeID] = r.Status
	s.results[r.NodeID] = r
	if r.Status == StatusExecuted {
		s.outputs[r.NodeID] = r.Outputs
		delete(s.deferred, r.NodeID)
		if !s.seen[r.NodeID] {
			s.seen[r.NodeID] = true
			s.executed = append(s.executed, r.NodeID)
		}
	}
}

// reset returns nodes to pending so a loop body can run again. Previous
// outputs stay visible in results until overwritten.
func (s *runState) reset(ids []string) {
	for _, id := range ids {
		s.status[id] = StatusPending
		delete(s.outputs, id)
		delete(s.signaled, id)
		delete(s.queued, id)
	}
}

// handleValue returns a recorded output value. A present key counts as
// defined even when its value is nil.
func (s *runState) handleValue(nodeID, handle string) (any, bool) {
	out, ok := s.outputs[nodeID]
	if !ok {
		return nil, false
	}
	v, ok := out[handle]
	return v, ok
}
