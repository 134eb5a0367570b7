package job

import (
	"sync"

	"github.com/grailbio/gani/sketch"
)

// RefCache is the "keep_refs" lazily-populated full-sketch cache, keyed by
// reference file name, grounded on original_source/src/search.rs's
// ref_sketches_used: RwLock<FxHashMap<_,_>>. Reads vastly outnumber misses
// once a reference has been loaded once, so the common path only takes a
// read lock.
type RefCache struct {
	mu sync.RWMutex
	m  map[string]*sketch.Sketch
}

// NewRefCache returns an empty cache.
func NewRefCache() *RefCache {
	return &RefCache{m: make(map[string]*sketch.Sketch)}
}

// GetOrLoad returns the cached sketch for path, calling load to populate it
// on a miss. Two workers racing on the same miss may both call load; per
// spec.md §5 ("duplicate loads on race are acceptable; last-writer-wins;
// value is idempotent") this is intentionally not serialized further.
func (c *RefCache) GetOrLoad(path string, load func(path string) (*sketch.Sketch, error)) (*sketch.Sketch, error) {
	c.mu.RLock()
	s, ok := c.m[path]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}
	loaded, err := load(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.m[path] = loaded
	c.mu.Unlock()
	return loaded, nil
}

// Evict drops path's cached entry, if any. Search calls this right after
// every pair's comparison when keep_refs is disabled, so a reference hit by
// several queries is loaded again for each of them.
func (c *RefCache) Evict(path string) {
	c.mu.Lock()
	delete(c.m, path)
	c.mu.Unlock()
}

// Len returns the number of sketches currently cached.
func (c *RefCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
