package telemetry

import (
	"log"

	"ordnance/logging"
)

// Logger is the printf-style sink for operator diagnostics: rejected catalog
// entries, launch failures and shutdown errors. Event traffic goes through
// logging.Publisher instead.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a function to Logger. A nil LoggerFunc discards.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// Discard drops every message.
var Discard Logger = LoggerFunc(nil)

// WrapLogger adapts a standard library logger. A nil logger discards.
func WrapLogger(logger *log.Logger) Logger {
	if logger == nil {
		return Discard
	}
	return LoggerFunc(logger.Printf)
}

// Metrics receives weapon and skirmish counters keyed by name.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics feeds counters into the in-process snapshot served on
// /diagnostics. A nil target discards.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	return snapshotMetrics{metrics: metrics}
}

type snapshotMetrics struct {
	metrics *logging.Metrics
}

func (m snapshotMetrics) Add(key string, delta uint64) {
	if m.metrics != nil {
		m.metrics.TelemetryAdd(key, delta)
	}
}

func (m snapshotMetrics) Store(key string, value uint64) {
	if m.metrics != nil {
		m.metrics.TelemetryStore(key, value)
	}
}
