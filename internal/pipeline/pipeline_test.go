package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/namansh70747/quantum-brain/internal/analyzer"
	"github.com/namansh70747/quantum-brain/internal/cognition"
	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
	"github.com/namansh70747/quantum-brain/internal/storage"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (c *capturePublisher) Publish(ctx context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v)
	return c.err
}

type captureRecorder struct {
	records []*storage.AnalysisRecord
	err     error
}

func (c *captureRecorder) SaveAnalysis(ctx context.Context, rec *storage.AnalysisRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

func confirm(severity cognition.Severity, details string) cognition.Probe {
	return cognition.ProbeFunc(func(ctx context.Context) (cognition.Finding, error) {
		return cognition.Finding{Confirmed: true, Details: details, Severity: severity}, nil
	})
}

func cleared() cognition.Probe {
	return cognition.ProbeFunc(func(ctx context.Context) (cognition.Finding, error) {
		return cognition.Finding{Details: "all good", Severity: cognition.SeverityLow}, nil
	})
}

func newTestPipeline(t *testing.T, probes map[string]cognition.Probe, pub Publisher, rec Recorder) *Pipeline {
	t.Helper()
	log := zaptest.NewLogger(t)
	return New(Deps{
		Map:       entanglement.DefaultMap(),
		Analyzer:  analyzer.NewDefault(),
		Engine:    cognition.NewEngine(probes, log),
		Model:     optimizer.NewModel(optimizer.DefaultCatalogue(), log),
		Publisher: pub,
		Recorder:  rec,
		Logger:    log,
	})
}

func TestRunCycleAnomaly(t *testing.T) {
	pub := &capturePublisher{}
	rec := &captureRecorder{}
	p := newTestPipeline(t, map[string]cognition.Probe{
		analyzer.CauseDatabaseLoad:       confirm(cognition.SeverityHigh, "pool saturated"),
		analyzer.CauseInefficientQuery:   cleared(),
		analyzer.CauseResourceExhaustion: cleared(),
	}, pub, rec)

	event := p.RunCycle(context.Background(), entanglement.Snapshot{"cpu_usage": 95})

	assert.Equal(t, TypeAnomaly, event.Type)
	assert.NotEmpty(t, event.CycleID)
	assert.Equal(t, entanglement.Snapshot{"cpu_usage": 95}, event.Payload)

	state := event.State
	assert.Equal(t, []string{
		analyzer.CauseDatabaseLoad, analyzer.CauseInefficientQuery, analyzer.CauseResourceExhaustion,
	}, state.Probabilities.Causes())
	require.NotNil(t, state.PrimaryAnomaly)
	assert.Equal(t, "cpu_usage", *state.PrimaryAnomaly)
	require.NotNil(t, state.AnomalyLevel)
	assert.Equal(t, entanglement.LevelCritical, *state.AnomalyLevel)
	assert.Equal(t, []string{"active_users", "api_latency_p99", "request_rate"}, state.EntangledMetrics)
	assert.Len(t, state.Recommendations, 1)

	require.NotNil(t, state.ConfirmedRootCause)
	assert.Equal(t, analyzer.CauseDatabaseLoad, *state.ConfirmedRootCause)
	assert.Equal(t, "pool saturated", *state.ConfirmedDetails)
	assert.Equal(t, cognition.SeverityHigh, *state.ConfirmedSeverity)
	require.Len(t, state.AllConfirmedCauses, 1)
	assert.InDelta(t, 1-1.0/3*0.5, state.InvestigationConfidence, 1e-9)

	require.NotNil(t, state.OptimalSolution)
	assert.Equal(t, "ENABLE_DB_CONNECTION_POOLING", state.OptimalSolution.Action)

	require.Len(t, pub.events, 1)
	assert.Equal(t, event, pub.events[0])

	require.Len(t, rec.records, 1)
	saved := rec.records[0]
	assert.Equal(t, event.CycleID, saved.CycleID)
	assert.Equal(t, "cpu_usage", saved.PrimaryAnomaly)
	assert.Equal(t, "critical", saved.AnomalyLevel)
	assert.Equal(t, analyzer.CauseDatabaseLoad, saved.TopCause)
	assert.Equal(t, analyzer.CauseDatabaseLoad, saved.ConfirmedCause)
	assert.Equal(t, "high", saved.ConfirmedSeverity)
	assert.Equal(t, "ENABLE_DB_CONNECTION_POOLING", saved.RecommendedAction)
	assert.True(t, json.Valid(saved.Event))
}

func TestRunCycleNothingConfirmed(t *testing.T) {
	rec := &captureRecorder{}
	p := newTestPipeline(t, map[string]cognition.Probe{
		analyzer.CauseDatabaseLoad: cleared(),
	}, nil, rec)

	event := p.RunCycle(context.Background(), entanglement.Snapshot{"cpu_usage": 95})

	assert.Equal(t, TypeAnomaly, event.Type)
	assert.Nil(t, event.State.ConfirmedRootCause)
	assert.Nil(t, event.State.ConfirmedSeverity)
	assert.Nil(t, event.State.OptimalSolution)
	assert.Empty(t, event.State.AllConfirmedCauses)
	assert.Equal(t, 1.0, event.State.InvestigationConfidence)
	require.Len(t, rec.records, 1)
	assert.Empty(t, rec.records[0].RecommendedAction)
}

func TestRunCycleHealthySnapshot(t *testing.T) {
	pub := &capturePublisher{}
	rec := &captureRecorder{}
	called := false
	probe := cognition.ProbeFunc(func(ctx context.Context) (cognition.Finding, error) {
		called = true
		return cognition.Finding{}, nil
	})
	p := newTestPipeline(t, map[string]cognition.Probe{analyzer.CauseDatabaseLoad: probe}, pub, rec)

	event := p.RunCycle(context.Background(), entanglement.Snapshot{"cpu_usage": 40, "memory_usage": 50})

	assert.Equal(t, TypeSystemStatus, event.Type)
	assert.False(t, called)
	assert.Empty(t, rec.records)
	require.Len(t, pub.events, 1)

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	state := decoded["superposition_state"].(map[string]any)
	for _, key := range []string{
		"probabilities", "confidence", "recommendations", "primaryAnomaly", "anomalyLevel",
		"entangledMetrics", "confirmed_root_cause", "confirmed_details", "confirmed_severity",
		"all_confirmed_causes", "investigation_confidence", "total_investigation_time",
		"investigation_timestamp", "optimal_solution",
	} {
		assert.Contains(t, state, key)
	}
	assert.Nil(t, state["primaryAnomaly"])
	assert.Nil(t, state["optimal_solution"])
	assert.Equal(t, map[string]any{}, state["probabilities"])
	assert.Equal(t, []any{}, state["recommendations"])
}

func TestRunCycleSwallowsBoundaryFailures(t *testing.T) {
	pub := &capturePublisher{err: errors.New("socket gone")}
	rec := &captureRecorder{err: errors.New("db down")}
	p := newTestPipeline(t, map[string]cognition.Probe{
		analyzer.CauseDatabaseLoad: confirm(cognition.SeverityCritical, "down"),
	}, pub, rec)

	event := p.RunCycle(context.Background(), entanglement.Snapshot{"cpu_usage": 95})

	assert.Equal(t, TypeAnomaly, event.Type)
	assert.Len(t, pub.events, 1)
	assert.Len(t, rec.records, 1)
}

func TestAnalyzeDoesNotTouchBoundaries(t *testing.T) {
	pub := &capturePublisher{}
	rec := &captureRecorder{}
	p := newTestPipeline(t, map[string]cognition.Probe{
		analyzer.CauseDatabaseLoad: confirm(cognition.SeverityHigh, "x"),
	}, pub, rec)

	input := entanglement.Snapshot{"cpu_usage": 95}
	event := p.Analyze(context.Background(), input)
	event.Payload["cpu_usage"] = 1

	assert.Equal(t, 95.0, input["cpu_usage"])
	assert.Empty(t, pub.events)
	assert.Empty(t, rec.records)
}
