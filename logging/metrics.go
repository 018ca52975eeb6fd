package logging

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics is a set of named counters shared by the router and the
// simulation. The zero value is ready to use.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Uint64
}

func (m *Metrics) counter(key string) *atomic.Uint64 {
	m.mu.RLock()
	c, ok := m.counters[key]
	m.mu.RUnlock()
	if ok {
		return c
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]*atomic.Uint64)
	}
	if c, ok = m.counters[key]; !ok {
		c = &atomic.Uint64{}
		m.counters[key] = c
	}
	return c
}

// TelemetryAdd increments key by delta.
func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.counter(key).Add(delta)
}

// TelemetryStore overwrites key with value.
func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.counter(key).Store(value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]uint64, len(m.counters))
	for key, c := range m.counters {
		out[key] = c.Load()
	}
	return out
}

// Keys returns the counter names in sorted order.
func (m *Metrics) Keys() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	keys := make([]string, 0, len(m.counters))
	for key := range m.counters {
		keys = append(keys, key)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
