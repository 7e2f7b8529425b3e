package telemetry

import "sync"

// Counters is a concurrency-safe named counter set implementing Metrics.
// Writers are hot-path simulation and transport code; readers are the
// /metrics HTTP handler.
type Counters struct {
	mu     sync.RWMutex
	values map[string]uint64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

// Add increments the named counter by delta.
func (c *Counters) Add(key string, delta uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[key] += delta
	c.mu.Unlock()
}

// Store overwrites the named value (used for gauges such as occupancy).
func (c *Counters) Store(key string, value uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Load returns the current value for key.
func (c *Counters) Load(key string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// Snapshot returns a read-only copy suitable for JSON output.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

var _ Metrics = (*Counters)(nil)
