package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values for OperationsTotal
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Guarded operation metrics
var (
	// OperationsTotal counts guarded calls by operation and result
	OperationsTotal *prometheus.CounterVec

	// ItemsTotal counts individual paths mutated successfully
	ItemsTotal *prometheus.CounterVec

	// ValidationFailuresTotal counts calls rejected before any mutation
	ValidationFailuresTotal *prometheus.CounterVec

	// OperationDuration tracks how long a guarded call takes end to end
	OperationDuration *prometheus.HistogramVec

	// LastRunTimestamp records Unix timestamp of the last guarded call
	LastRunTimestamp prometheus.Gauge

	// ErrorsTotal counts side-channel failures (journal writes, textfile export)
	ErrorsTotal prometheus.Counter
)

// initOperationMetrics initializes all operation metrics
func initOperationMetrics() {
	OperationsTotal = NewCounterVec(
		"pathguard_operations_total",
		"Total number of guarded operations by result.",
		[]string{"operation", "result"},
	)

	ItemsTotal = NewCounterVec(
		"pathguard_items_total",
		"Total number of paths mutated by guarded operations.",
		[]string{"operation"},
	)

	ValidationFailuresTotal = NewCounterVec(
		"pathguard_validation_failures_total",
		"Total number of guarded operations rejected during validation.",
		[]string{"operation"},
	)

	OperationDuration = NewDurationHistogramVec(
		"pathguard_operation_duration_seconds",
		"Duration of guarded operations in seconds.",
		[]string{"operation"},
	)

	LastRunTimestamp = NewGauge(
		"pathguard_last_run_timestamp",
		"Timestamp of the last guarded operation (Unix epoch seconds).",
	)

	ErrorsTotal = NewCounter(
		"pathguard_errors_total",
		"Total number of internal errors that did not fail an operation.",
	)
}

// registerOperationMetrics registers all operation metrics with Prometheus
func registerOperationMetrics() {
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(ItemsTotal)
	prometheus.MustRegister(ValidationFailuresTotal)
	prometheus.MustRegister(OperationDuration)
	prometheus.MustRegister(LastRunTimestamp)
	prometheus.MustRegister(ErrorsTotal)
}

// RecordOperation records the outcome and duration of one guarded call
func RecordOperation(operation, result string, started time.Time) {
	if !Enabled() {
		return
	}
	OperationsTotal.WithLabelValues(operation, result).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	if result == ResultRejected {
		ValidationFailuresTotal.WithLabelValues(operation).Inc()
	}
}

// RecordItem counts one successfully mutated path
func RecordItem(operation string) {
	if !Enabled() {
		return
	}
	ItemsTotal.WithLabelValues(operation).Inc()
}

// RecordError counts an internal error
func RecordError() {
	if !Enabled() {
		return
	}
	ErrorsTotal.Inc()
}
