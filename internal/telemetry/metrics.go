// Package telemetry exposes the service's own Prometheus collectors.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quantum_brain"

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Analysis cycles published, partitioned by event type.",
		},
		[]string{"type"},
	)

	anomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Anomalous metric readings, partitioned by metric and level.",
		},
		[]string{"metric", "level"},
	)

	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Confirmation probes run, partitioned by cause and verdict.",
		},
		[]string{"cause", "confirmed"},
	)

	probeSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_seconds",
			Help:      "Confirmation probe latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
		},
		[]string{"cause"},
	)

	remediationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remediations_total",
			Help:      "Remediation actions executed, partitioned by action and status.",
		},
		[]string{"action", "status"},
	)

	remediationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remediation_seconds",
			Help:      "Remediation action latency in seconds.",
			Buckets:   []float64{0.5, 1, 1.5, 2, 2.5, 3, 4, 6, 10},
		},
		[]string{"action"},
	)
)

// Register attaches the collectors to reg. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		cyclesTotal,
		anomaliesTotal,
		probesTotal,
		probeSeconds,
		remediationsTotal,
		remediationSeconds,
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

// ObserveCycle counts one published event.
func ObserveCycle(eventType string) {
	cyclesTotal.WithLabelValues(eventType).Inc()
}

// ObserveAnomaly counts one anomalous reading.
func ObserveAnomaly(metric, level string) {
	anomaliesTotal.WithLabelValues(metric, level).Inc()
}

// ObserveProbe records the verdict and latency of one confirmation probe.
func ObserveProbe(cause string, confirmed bool, duration time.Duration) {
	probesTotal.WithLabelValues(cause, strconv.FormatBool(confirmed)).Inc()
	if duration < 0 {
		duration = 0
	}
	probeSeconds.WithLabelValues(cause).Observe(duration.Seconds())
}

// ObserveRemediation records the outcome and latency of one action.
func ObserveRemediation(action, status string, duration time.Duration) {
	remediationsTotal.WithLabelValues(action, status).Inc()
	if duration < 0 {
		duration = 0
	}
	remediationSeconds.WithLabelValues(action).Observe(duration.Seconds())
}
