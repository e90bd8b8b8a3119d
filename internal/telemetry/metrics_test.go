package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsRepeatable(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveProbe(t *testing.T) {
	before := testutil.ToFloat64(probesTotal.WithLabelValues("test_cause", "true"))

	ObserveProbe("test_cause", true, 1500*time.Millisecond)
	ObserveProbe("test_cause", false, -time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(probesTotal.WithLabelValues("test_cause", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(probesTotal.WithLabelValues("test_cause", "false")))
}

func TestObserveRemediationAndCycle(t *testing.T) {
	ObserveRemediation("TEST_ACTION", "error", 0)
	ObserveCycle("test_event")
	ObserveAnomaly("test_metric", "critical")

	assert.Equal(t, 1.0, testutil.ToFloat64(remediationsTotal.WithLabelValues("TEST_ACTION", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cyclesTotal.WithLabelValues("test_event")))
	assert.Equal(t, 1.0, testutil.ToFloat64(anomaliesTotal.WithLabelValues("test_metric", "critical")))
}
