package typesys

import "sync"

// Cache holds detected tags per node and handle for one run.
type Cache struct {
	mu    sync.RWMutex
	types map[string]map[string]Tag
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{types: make(map[string]map[string]Tag)}
}

// Reset drops everything detected so far.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = make(map[string]map[string]Tag)
}

// Record detects and stores the tag of every handle value, replacing any
// previous entry for the node.
func (c *Cache) Record(nodeID string, outputs map[string]any) {
	handles := make(map[string]Tag, len(outputs))
	for h, v := range outputs {
		handles[h] = Detect(v)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[nodeID] = handles
}

// Get returns the tag recorded for a node handle.
func (c *Cache) Get(nodeID, handle string) (Tag, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[nodeID][handle]
	return t, ok
}

// Node returns a copy of every tag recorded for a node.
func (c *Cache) Node(nodeID string) map[string]Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Tag, len(c.types[nodeID]))
	for h, t := range c.types[nodeID] {
		out[h] = t
	}
	return out
}
