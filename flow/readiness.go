package flow

import "github.com/kbukum/nodeflow/graph"

// isReady reports whether a node's data and signal preconditions hold.
func (s *runState) isReady(id string) bool {
	if s.idx.HasIncomingExec(id) && !s.signaled[id] {
		return false
	}

	var virtual []graph.Edge
	direct := 0
	for _, e := range s.idx.Incoming(id, graph.EdgeData) {
		if e.Virtual {
			virtual = append(virtual, e)
			continue
		}
		direct++
		if !s.isExecuted(e.Source) {
			return false
		}
		if _, ok := s.handleValue(e.Source, e.SourceHandle); !ok {
			return false
		}
	}
	if len(virtual) == 0 {
		return true
	}

	// Fed only by setters: one executed setter is enough.
	if direct == 0 {
		anyExecuted, allSettled := false, true
		for _, e := range virtual {
			switch {
			case s.isExecuted(e.Source):
				anyExecuted = true
			case !s.neverSignaled(e.Source, nil):
				allSettled = false
			}
		}
		return anyExecuted || allSettled
	}

	for _, e := range virtual {
		if !s.isExecuted(e.Source) && !s.neverSignaled(e.Source, nil) {
			return false
		}
	}
	return true
}

// neverSignaled reports whether id waits for a signal it can no longer
// receive: it needs one, has none, and every exec predecessor has already
// finished or is itself in that state. Such a node does not block others.
func (s *runState) neverSignaled(id string, visiting map[string]bool) bool {
	if s.isExecuted(id) || s.signaled[id] {
		return false
	}
	preds := s.idx.Incoming(id, graph.EdgeExec)
	if len(preds) == 0 {
		return false
	}
	if visiting == nil {
		visiting = make(map[string]bool)
	}
	if visiting[id] {
		// a cycle with no outside activation never fires
		return true
	}
	visiting[id] = true
	defer delete(visiting, id)

	for _, e := range preds {
		src := e.Source
		if s.isExecuted(src) || s.isFailed(src) {
			continue
		}
		if !s.neverSignaled(src, visiting) {
			return false
		}
	}
	return true
}
