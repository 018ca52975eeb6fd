package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

// NewOTelMetrics adapts an OpenTelemetry meter into the Metrics interface.
// Add keys become monotonic counters and Store keys become gauges. Instruments
// are created on first use and cached by key.
func NewOTelMetrics(meter metric.Meter) Metrics {
	return &otelMetrics{
		meter:    meter,
		counters: make(map[string]metric.Int64Counter),
		gauges:   make(map[string]metric.Int64Gauge),
	}
}

type otelMetrics struct {
	meter metric.Meter

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
	gauges   map[string]metric.Int64Gauge
}

func (m *otelMetrics) Add(key string, delta uint64) {
	if m == nil || m.meter == nil {
		return
	}
	counter := m.counter(key)
	if counter == nil {
		return
	}
	counter.Add(context.Background(), int64(delta))
}

func (m *otelMetrics) Store(key string, value uint64) {
	if m == nil || m.meter == nil {
		return
	}
	gauge := m.gauge(key)
	if gauge == nil {
		return
	}
	gauge.Record(context.Background(), int64(value))
}

func (m *otelMetrics) counter(key string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if counter, ok := m.counters[key]; ok {
		return counter
	}
	counter, err := m.meter.Int64Counter(key)
	if err != nil {
		m.counters[key] = nil
		return nil
	}
	m.counters[key] = counter
	return counter
}

func (m *otelMetrics) gauge(key string) metric.Int64Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gauge, ok := m.gauges[key]; ok {
		return gauge
	}
	gauge, err := m.meter.Int64Gauge(key)
	if err != nil {
		m.gauges[key] = nil
		return nil
	}
	m.gauges[key] = gauge
	return gauge
}

// Tee fans every update out to each non-nil Metrics.
func Tee(metrics ...Metrics) Metrics {
	out := make(teeMetrics, 0, len(metrics))
	for _, m := range metrics {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

type teeMetrics []Metrics

func (t teeMetrics) Add(key string, delta uint64) {
	for _, m := range t {
		m.Add(key, delta)
	}
}

func (t teeMetrics) Store(key string, value uint64) {
	for _, m := range t {
		m.Store(key, value)
	}
}
