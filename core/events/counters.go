package events

import "sync/atomic"

// Counters keeps a monotonically increasing sequence per event type.
// It is safe for concurrent use
type Counters struct {
	counts map[Type]*atomic.Uint64
}

// NewCounters returns counters for all known event types
func NewCounters() *Counters {
	c := &Counters{
		counts: make(map[Type]*atomic.Uint64, len(Types)),
	}

	for _, t := range Types {
		c.counts[t] = new(atomic.Uint64)
	}

	return c
}

// Next increments the counter for t and returns the new value
func (c *Counters) Next(t Type) uint64 {
	cnt, ok := c.counts[t]
	if !ok {
		panic("events: unknown event type " + string(t))
	}

	return cnt.Add(1)
}

// Get returns the current value for t
func (c *Counters) Get(t Type) uint64 {
	cnt, ok := c.counts[t]
	if !ok {
		return 0
	}

	return cnt.Load()
}

// Snapshot returns the current value of all counters
func (c *Counters) Snapshot() map[Type]uint64 {
	res := make(map[Type]uint64, len(c.counts))
	for t, cnt := range c.counts {
		res[t] = cnt.Load()
	}

	return res
}
