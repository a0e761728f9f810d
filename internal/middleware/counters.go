package middleware

import "sync"

// rejectionCounters tracks guard rejections for operational tooling.
// Constructed eagerly; the mutex guards only the brief increment.
type rejectionCounters struct {
	mu      sync.Mutex
	total   int64
	perPath map[string]int64
}

func newRejectionCounters() *rejectionCounters {
	return &rejectionCounters{perPath: make(map[string]int64)}
}

func (r *rejectionCounters) inc(path string) {
	r.mu.Lock()
	r.total++
	r.perPath[path]++
	r.mu.Unlock()
}

// snapshot returns copies so callers never observe the live map.
func (r *rejectionCounters) snapshot() (int64, map[string]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	perPath := make(map[string]int64, len(r.perPath))
	for k, v := range r.perPath {
		perPath[k] = v
	}
	return r.total, perPath
}
