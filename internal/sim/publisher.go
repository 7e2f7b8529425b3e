package sim

import "sync"

// Publisher is the double-buffered latest-snapshot slot shared between
// the simulation writer and any number of transport readers. The writer
// swaps in a freshly built buffer each tick; readers always observe
// either the previous or the newest complete snapshot, never a partial
// one. No history is retained.
type Publisher struct {
	mu   sync.RWMutex
	tick uint32
	buf  []byte
}

// NewPublisher returns an empty slot.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish swaps in the newest complete snapshot. The caller hands over
// ownership of buf and must not touch it afterwards.
func (p *Publisher) Publish(tick uint32, buf []byte) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.tick = tick
	p.buf = buf
	p.mu.Unlock()
}

// Latest returns the most recent snapshot. The returned slice is owned
// by the publisher; readers must not mutate it. Returns nil before the
// first publish.
func (p *Publisher) Latest() (uint32, []byte) {
	if p == nil {
		return 0, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tick, p.buf
}
