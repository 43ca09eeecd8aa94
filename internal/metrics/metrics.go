package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels computes that produced a committed result.
	OutcomeSuccess = "success"
	// OutcomeError labels computes that failed transport or validation.
	OutcomeError = "error"
	// OutcomeSuperseded labels computes replaced by a newer request before
	// finishing.
	OutcomeSuperseded = "superseded"
)

var (
	computesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hazview",
			Name:      "computes_total",
			Help:      "Total number of compute actions handled, partitioned by capability and outcome.",
		},
		[]string{"capability", "outcome"},
	)

	computeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hazview",
			Name:      "compute_seconds",
			Help:      "Compute latency in seconds, partitioned by capability.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 30},
		},
		[]string{"capability"},
	)

	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hazview",
			Name:      "downloads_total",
			Help:      "Total number of download streams served, partitioned by capability.",
		},
		[]string{"capability"},
	)

	coreResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hazview",
			Name:      "core_responses_total",
			Help:      "Core API responses, partitioned by HTTP status code.",
		},
		[]string{"status"},
	)

	reshapeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hazview",
			Name:      "reshape_failures_total",
			Help:      "Payloads that failed fail-soft reshaping, partitioned by capability.",
		},
		[]string{"capability"},
	)
)

// Register attaches hazview collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		computesTotal,
		computeDurationSeconds,
		downloadsTotal,
		coreResponsesTotal,
		reshapeFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCompute records one compute action's duration and outcome. Superseded
// computes count but never contribute latency samples.
func ObserveCompute(capability string, duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeError, OutcomeSuperseded:
	default:
		outcome = OutcomeSuccess
	}
	computesTotal.WithLabelValues(capability, outcome).Inc()
	if outcome == OutcomeSuperseded {
		return
	}
	if duration < 0 {
		duration = 0
	}
	computeDurationSeconds.WithLabelValues(capability).Observe(duration.Seconds())
}

// ObserveDownload counts a served download stream.
func ObserveDownload(capability string) {
	downloadsTotal.WithLabelValues(capability).Inc()
}

// ObserveCoreStatus counts a core API response by HTTP status.
func ObserveCoreStatus(status int) {
	coreResponsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveReshapeFailure counts a payload the fail-soft reshaper rejected.
func ObserveReshapeFailure(capability string) {
	reshapeFailuresTotal.WithLabelValues(capability).Inc()
}
