package entanglement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomaly(t *testing.T) {
	m := DefaultMap()

	tests := []struct {
		name   string
		metric string
		value  float64
		want   Level
	}{
		{"cpu normal", "cpu_usage", 40, LevelNone},
		{"cpu warning boundary", "cpu_usage", 75, LevelWarning},
		{"cpu critical", "cpu_usage", 95, LevelCritical},
		{"cache hit rate inverted critical", "cache_hit_rate", 40, LevelCritical},
		{"cache hit rate inverted warning", "cache_hit_rate", 70, LevelWarning},
		{"cache hit rate healthy", "cache_hit_rate", 90, LevelNone},
		{"unknown metric", "queue_depth", 1e9, LevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.DetectAnomaly(tt.metric, tt.value))
		})
	}
}

func TestEntangledMetrics(t *testing.T) {
	m := DefaultMap()

	assert.Equal(t, []string{"active_users", "api_latency_p99", "request_rate"}, m.EntangledMetrics("cpu_usage"))
	assert.Empty(t, m.EntangledMetrics("unknown"))
	assert.NotNil(t, m.EntangledMetrics("unknown"))

	linked := m.EntangledMetrics("cpu_usage")
	linked[0] = "mutated"
	assert.Equal(t, "active_users", m.EntangledMetrics("cpu_usage")[0])
}

func TestAnalyzeEntanglement(t *testing.T) {
	m := DefaultMap()

	analysis := m.AnalyzeEntanglement(Snapshot{
		"cpu_usage":      95,
		"cache_hit_rate": 70,
		"memory_usage":   30,
		"unknown_metric": 1000,
	})

	require.True(t, analysis.HasAnomalies)
	require.Len(t, analysis.Anomalies, 2)
	assert.Equal(t, Anomaly{Level: LevelCritical, Value: 95, Threshold: 90}, analysis.Anomalies["cpu_usage"])
	assert.Equal(t, Anomaly{Level: LevelWarning, Value: 70, Threshold: 75}, analysis.Anomalies["cache_hit_rate"])

	// naming order, not severity order
	assert.Equal(t, "cpu_usage", analysis.PrimaryAnomaly)
	assert.Equal(t, LevelCritical, analysis.PrimaryAnomalyLevel)

	assert.Equal(t, []string{
		"active_users",
		"api_latency_p99",
		"page_load_time",
		"request_rate",
		"user_session_duration",
	}, analysis.EntangledMetrics)
}

func TestAnalyzeEntanglementPrimaryIsLexicographic(t *testing.T) {
	m := DefaultMap()

	analysis := m.AnalyzeEntanglement(Snapshot{
		"cpu_usage":  99,
		"error_rate": 2.5,
	})

	assert.Equal(t, "error_rate", analysis.PrimaryAnomaly)
	assert.Equal(t, LevelWarning, analysis.PrimaryAnomalyLevel)
}

func TestAnalyzeEntanglementNoAnomalies(t *testing.T) {
	analysis := DefaultMap().AnalyzeEntanglement(Snapshot{"cpu_usage": 10})

	assert.False(t, analysis.HasAnomalies)
	assert.Empty(t, analysis.Anomalies)
	assert.Empty(t, analysis.EntangledMetrics)
	assert.Equal(t, "", analysis.PrimaryAnomaly)
	assert.Equal(t, LevelNone, analysis.PrimaryAnomalyLevel)
}

func TestImportance(t *testing.T) {
	m := DefaultMap()
	assert.Equal(t, "primary", m.Importance("cpu_usage"))
	assert.Equal(t, "secondary", m.Importance("cache_hit_rate"))
	assert.Equal(t, "tertiary", m.Importance("error_rate"))
}

func TestNewMapCopiesTables(t *testing.T) {
	links := map[string][]string{"a": {"b"}}
	thresholds := map[string]Threshold{"a": {Warning: 1, Critical: 2}}
	m := NewMap(links, thresholds)

	links["a"][0] = "changed"
	thresholds["a"] = Threshold{Warning: 100, Critical: 200}

	assert.Equal(t, []string{"b"}, m.EntangledMetrics("a"))
	assert.Equal(t, LevelCritical, m.DetectAnomaly("a", 2))
}
