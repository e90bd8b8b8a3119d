// Package entanglement holds the static causal graph between system metrics
// and the threshold table used to flag anomalous values.
package entanglement

import (
	"sort"
)

// Snapshot is one flat reading of system metrics, keyed by metric name.
type Snapshot map[string]float64

// Level is the anomaly level of a single metric reading.
type Level string

const (
	LevelNone     Level = ""
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Direction tells which side of a threshold is the bad one.
type Direction int

const (
	// HigherIsWorse flags values at or above the threshold.
	HigherIsWorse Direction = iota
	// LowerIsWorse flags values at or below the threshold.
	LowerIsWorse
)

// Threshold is the warning/critical pair configured for one metric.
type Threshold struct {
	Warning   float64
	Critical  float64
	Direction Direction
}

func (t Threshold) breached(value, limit float64) bool {
	if t.Direction == LowerIsWorse {
		return value <= limit
	}
	return value >= limit
}

// For returns the threshold value configured for the given level.
func (t Threshold) For(level Level) float64 {
	if level == LevelCritical {
		return t.Critical
	}
	return t.Warning
}

// Anomaly describes one metric that crossed a threshold.
type Anomaly struct {
	Level     Level   `json:"level"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Analysis is the result of scanning a full snapshot.
type Analysis struct {
	Anomalies           map[string]Anomaly `json:"anomalies"`
	EntangledMetrics    []string           `json:"entangled_metrics"`
	HasAnomalies        bool               `json:"has_anomalies"`
	PrimaryAnomaly      string             `json:"primary_anomaly,omitempty"`
	PrimaryAnomalyLevel Level              `json:"primary_anomaly_level,omitempty"`
}

// Map is a read-only view over the entanglement graph and threshold table.
// It is safe for concurrent use once constructed.
type Map struct {
	links      map[string][]string
	thresholds map[string]Threshold
}

// NewMap copies the supplied tables so later mutation by the caller cannot
// leak into a running pipeline.
func NewMap(links map[string][]string, thresholds map[string]Threshold) *Map {
	m := &Map{
		links:      make(map[string][]string, len(links)),
		thresholds: make(map[string]Threshold, len(thresholds)),
	}
	for metric, linked := range links {
		m.links[metric] = append([]string(nil), linked...)
	}
	for metric, t := range thresholds {
		m.thresholds[metric] = t
	}
	return m
}

// EntangledMetrics returns the metrics causally linked to metric, or an empty
// slice when the metric is not in the graph.
func (m *Map) EntangledMetrics(metric string) []string {
	linked, ok := m.links[metric]
	if !ok {
		return []string{}
	}
	return append([]string(nil), linked...)
}

// Threshold returns the configured threshold for metric.
func (m *Map) Threshold(metric string) (Threshold, bool) {
	t, ok := m.thresholds[metric]
	return t, ok
}

// DetectAnomaly compares value against the metric's thresholds, honouring the
// metric's direction. Unknown metrics are never anomalous.
func (m *Map) DetectAnomaly(metric string, value float64) Level {
	t, ok := m.thresholds[metric]
	if !ok {
		return LevelNone
	}
	if t.breached(value, t.Critical) {
		return LevelCritical
	}
	if t.breached(value, t.Warning) {
		return LevelWarning
	}
	return LevelNone
}

// AnalyzeEntanglement flags every anomalous metric in the snapshot and collects
// the union of their entangled metrics.
//
// PrimaryAnomaly is the lexicographically greatest anomalous metric name, not
// the most severe one. Downstream consumers depend on this ordering; it is
// pending product clarification.
func (m *Map) AnalyzeEntanglement(snapshot Snapshot) Analysis {
	analysis := Analysis{
		Anomalies:        make(map[string]Anomaly),
		EntangledMetrics: []string{},
	}

	entangled := make(map[string]struct{})
	for metric, value := range snapshot {
		level := m.DetectAnomaly(metric, value)
		if level == LevelNone {
			continue
		}
		analysis.Anomalies[metric] = Anomaly{
			Level:     level,
			Value:     value,
			Threshold: m.thresholds[metric].For(level),
		}
		for _, linked := range m.links[metric] {
			entangled[linked] = struct{}{}
		}
		if metric > analysis.PrimaryAnomaly {
			analysis.PrimaryAnomaly = metric
		}
	}

	for metric := range entangled {
		analysis.EntangledMetrics = append(analysis.EntangledMetrics, metric)
	}
	sort.Strings(analysis.EntangledMetrics)

	analysis.HasAnomalies = len(analysis.Anomalies) > 0
	if analysis.HasAnomalies {
		analysis.PrimaryAnomalyLevel = analysis.Anomalies[analysis.PrimaryAnomaly].Level
	}
	return analysis
}

// Importance buckets a metric for display purposes.
func (m *Map) Importance(metric string) string {
	switch metric {
	case "cpu_usage", "memory_usage", "disk_usage", "network_io":
		return "primary"
	case "database_connections", "cache_hit_rate", "active_users", "api_latency_p99":
		return "secondary"
	default:
		return "tertiary"
	}
}
