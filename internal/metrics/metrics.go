package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var initOnce sync.Once

// Init initializes all metrics and registers them with Prometheus
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initOperationMetrics()
		registerOperationMetrics()

		// present in the textfile before the first operation runs
		LastRunTimestamp.Set(0)
	})
}

// Enabled reports whether Init has run. Recording helpers are no-ops until then.
func Enabled() bool {
	return OperationsTotal != nil
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for pickup by the node_exporter textfile collector.
// The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
