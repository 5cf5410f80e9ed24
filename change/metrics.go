package change

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts executed change requests by outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowedit_change_requests_total",
			Help: "Total number of change requests processed",
		},
		[]string{"outcome"},
	)

	// RequestDuration tracks the time spent executing a request, lock wait
	// included.
	RequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowedit_change_request_duration_seconds",
			Help:    "Time spent executing change requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	// UndoDepth tracks the depth of the most recently updated undo stack.
	UndoDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowedit_undo_depth",
			Help: "Number of entries on the undo stack",
		},
	)
)

const (
	outcomeExecuted = "executed"
	outcomeFailed   = "failed"
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(UndoDepth)
}
