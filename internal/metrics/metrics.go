package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeInvalid   = "invalid"
)

// Dispatch Metrics
var (
	// DispatchTotal tracks action requests by endpoint, action and outcome
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbridge_dispatch_total",
			Help: "Total action requests by endpoint, action and outcome",
		},
		[]string{"endpoint", "action", "outcome"},
	)

	// DispatchDuration tracks action request latency in seconds
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "touchbridge_dispatch_duration_seconds",
			Help:    "Action request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"endpoint"},
	)

	// ServerClassifications tracks the server's classification of touch samples
	ServerClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbridge_server_classifications_total",
			Help: "Touch samples by server classification",
		},
		[]string{"classification"},
	)
)

// Front End Metrics
var (
	// TouchSessionsTotal tracks opened touch sessions
	TouchSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "touchbridge_touch_sessions_total",
			Help: "Total touch sessions opened",
		},
	)

	// DroppedEventsTotal tracks touch events that produced no action, by reason
	DroppedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbridge_dropped_events_total",
			Help: "Touch events that produced no action, by reason",
		},
		[]string{"reason"},
	)

	// PageConnectionsCurrent tracks connected touchpad pages
	PageConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "touchbridge_page_connections_current",
			Help: "Current number of connected touchpad pages",
		},
	)

	// DroppedNoticesTotal tracks notices not delivered to touchpad pages
	DroppedNoticesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "touchbridge_dropped_notices_total",
			Help: "Feedback notices dropped before reaching the touchpad pages",
		},
	)
)
