// Package metrics provides Prometheus metrics for crmpulse.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BulkRunsTotal tracks finished bulk operation runs by terminal status
	BulkRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmpulse",
			Subsystem: "bulk",
			Name:      "runs_total",
			Help:      "Total number of bulk operation runs by status",
		},
		[]string{"entity_type", "operation", "status"},
	)

	// BulkItemsTotal tracks individual bulk items by result
	BulkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmpulse",
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Total number of bulk operation items by result",
		},
		[]string{"entity_type", "operation", "result"},
	)

	// BulkRunDuration tracks how long a bulk run takes end to end
	BulkRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crmpulse",
			Subsystem: "bulk",
			Name:      "run_duration_seconds",
			Help:      "Duration of bulk operation runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"entity_type", "operation"},
	)

	// HealthCalculationsTotal tracks health score calculations by outcome
	HealthCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crmpulse",
			Subsystem: "health",
			Name:      "calculations_total",
			Help:      "Total number of health score calculations by status tier or error",
		},
		[]string{"status"},
	)

	// HealthOverallScore tracks the distribution of overall health scores
	HealthOverallScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crmpulse",
			Subsystem: "health",
			Name:      "overall_score",
			Help:      "Distribution of computed overall health scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)
)

// Item results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// RecordBulkItem increments the per-item counter.
func RecordBulkItem(entityType, operation string, ok bool) {
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	BulkItemsTotal.WithLabelValues(entityType, operation, result).Inc()
}

// RecordHealthScore records one successful calculation.
func RecordHealthScore(status string, overall int) {
	HealthCalculationsTotal.WithLabelValues(status).Inc()
	HealthOverallScore.Observe(float64(overall))
}

// RecordHealthError records one failed calculation.
func RecordHealthError() {
	HealthCalculationsTotal.WithLabelValues("error").Inc()
}
