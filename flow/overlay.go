package flow

import (
	"sync"

	"github.com/kbukum/nodeflow/util"
)

// configOverlay holds live config patches per node. Patches are merged over
// the caller's config for later invocations; the caller's nodes are never
// modified.
type configOverlay struct {
	mu      sync.RWMutex
	patches map[string]map[string]any
}

func newConfigOverlay() *configOverlay {
	return &configOverlay{patches: make(map[string]map[string]any)}
}

func (o *configOverlay) apply(nodeID string, patch map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cur, ok := o.patches[nodeID]
	if !ok {
		cur = make(map[string]any, len(patch))
		o.patches[nodeID] = cur
	}
	for k, v := range patch {
		cur[k] = v
	}
}

func (o *configOverlay) get(nodeID string) map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return util.CloneMap(o.patches[nodeID])
}
