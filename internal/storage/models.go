package storage

import (
	"encoding/json"
	"time"
)

// Metric is one sample of one metric taken during an analysis cycle.
type Metric struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	ServiceName string          `json:"service_name"`
	MetricName  string          `json:"metric_name"`
	MetricValue float64         `json:"metric_value"`
	Labels      json.RawMessage `json:"labels,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MetricStats summarises a metric over a time window.
type MetricStats struct {
	ServiceName string        `json:"service_name"`
	MetricName  string        `json:"metric_name"`
	Count       int64         `json:"count"`
	Avg         float64       `json:"avg"`
	Min         float64       `json:"min"`
	Max         float64       `json:"max"`
	StdDev      float64       `json:"stddev"`
	Duration    time.Duration `json:"duration"`
}

// AnalysisRecord is one anomalous cycle as persisted.
type AnalysisRecord struct {
	ID                      int64           `json:"id"`
	CycleID                 string          `json:"cycle_id"`
	Timestamp               time.Time       `json:"timestamp"`
	PrimaryAnomaly          string          `json:"primary_anomaly"`
	AnomalyLevel            string          `json:"anomaly_level"`
	TopCause                string          `json:"top_cause"`
	SuperpositionConfidence float64         `json:"superposition_confidence"`
	ConfirmedCause          string          `json:"confirmed_cause,omitempty"`
	ConfirmedSeverity       string          `json:"confirmed_severity,omitempty"`
	InvestigationConfidence float64         `json:"investigation_confidence"`
	RecommendedAction       string          `json:"recommended_action,omitempty"`
	UtilityScore            float64         `json:"utility_score"`
	Event                   json.RawMessage `json:"event"`
	CreatedAt               time.Time       `json:"created_at"`
}

// RemediationRecord is one dispatcher execution as persisted.
type RemediationRecord struct {
	ID              int64           `json:"id"`
	Action          string          `json:"action"`
	Function        string          `json:"function"`
	Target          string          `json:"target"`
	Status          string          `json:"status"`
	Details         string          `json:"details"`
	DurationSeconds float64         `json:"duration_seconds"`
	Parameters      json.RawMessage `json:"parameters,omitempty"`
	ExecutedAt      time.Time       `json:"executed_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RemediationStats aggregates executions over a time window.
type RemediationStats struct {
	Total           int64   `json:"total"`
	Succeeded       int64   `json:"succeeded"`
	Failed          int64   `json:"failed"`
	AvgDurationSecs float64 `json:"avg_duration_seconds"`
}

type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}
