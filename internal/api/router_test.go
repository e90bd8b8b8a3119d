package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/namansh70747/quantum-brain/internal/analyzer"
	"github.com/namansh70747/quantum-brain/internal/broadcast"
	"github.com/namansh70747/quantum-brain/internal/cognition"
	"github.com/namansh70747/quantum-brain/internal/core"
	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
	"github.com/namansh70747/quantum-brain/internal/pipeline"
	"github.com/namansh70747/quantum-brain/internal/remediation"
	"github.com/namansh70747/quantum-brain/internal/storage"
	"github.com/namansh70747/quantum-brain/internal/telemetry"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeHistory struct {
	healthErr error
	queryErr  error
	lastLimit int
	lastDur   time.Duration
	service   string
}

func (f *fakeHistory) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeHistory) PoolStats() storage.PoolStats {
	return storage.PoolStats{TotalConns: 3, IdleConns: 2, AcquiredConns: 1, MaxConns: 10}
}

func (f *fakeHistory) GetRecentAnalyses(ctx context.Context, limit int) ([]*storage.AnalysisRecord, error) {
	f.lastLimit = limit
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []*storage.AnalysisRecord{{ID: 1, CycleID: "c-1", PrimaryAnomaly: "cpu_usage"}}, nil
}

func (f *fakeHistory) GetRecentRemediations(ctx context.Context, limit int) ([]*storage.RemediationRecord, error) {
	f.lastLimit = limit
	return []*storage.RemediationRecord{{ID: 7, Action: "CLEANUP_LOG_FILES", Status: "success"}}, nil
}

func (f *fakeHistory) GetRemediationStats(ctx context.Context, d time.Duration) (*storage.RemediationStats, error) {
	f.lastDur = d
	return &storage.RemediationStats{Total: 4, Succeeded: 3, Failed: 1}, nil
}

func (f *fakeHistory) GetMetricStatistics(ctx context.Context, service, metric string, d time.Duration) (*storage.MetricStats, error) {
	f.service = service
	f.lastDur = d
	return &storage.MetricStats{ServiceName: service, MetricName: metric, Count: 12}, nil
}

func (f *fakeHistory) GetRecentMetrics(ctx context.Context, service, metric string, d time.Duration) ([]*storage.Metric, error) {
	f.service = service
	f.lastDur = d
	return []*storage.Metric{
		{ServiceName: service, MetricName: metric, MetricValue: 91.5},
		{ServiceName: service, MetricName: metric, MetricValue: 88.2},
	}, nil
}

type testServer struct {
	router *gin.Engine
	hub    *broadcast.Hub
}

func newTestServer(t *testing.T, history History) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)

	cfg := &core.Config{}
	cfg.App.Name = "quantum-brain"
	cfg.App.Version = "1.2.3"
	cfg.Observer.ServiceName = "checkout"

	hub := broadcast.NewHub(broadcast.DefaultConfig(), log)
	probe := cognition.ProbeFunc(func(ctx context.Context) (cognition.Finding, error) {
		return cognition.Finding{Confirmed: true, Details: "pool saturated", Severity: cognition.SeverityHigh}, nil
	})
	model := optimizer.NewModel(optimizer.DefaultCatalogue(), log)
	p := pipeline.New(pipeline.Deps{
		Map:       entanglement.DefaultMap(),
		Analyzer:  analyzer.NewDefault(),
		Engine:    cognition.NewEngine(map[string]cognition.Probe{analyzer.CauseDatabaseLoad: probe}, log),
		Model:     model,
		Publisher: hub,
		Logger:    log,
	})
	dispatcher := remediation.NewDispatcher(map[string]remediation.Registration{
		"CLEANUP_LOG_FILES": {
			Function:    "cleanup_log_files",
			Description: "Clean up old log files",
			Action: remediation.ActionFunc(func(ctx context.Context, req remediation.Request) (remediation.Outcome, error) {
				return remediation.Outcome{Target: "log-storage", Details: "Freed 4GB"}, nil
			}),
		},
	}, nil, log)

	reg := prometheus.NewRegistry()
	require.NoError(t, telemetry.Register(reg))

	deps := Deps{
		Config:     cfg,
		Hub:        hub,
		Pipeline:   p,
		Model:      model,
		Dispatcher: dispatcher,
		Gatherer:   reg,
		Logger:     log,
	}
	if history != nil {
		deps.History = history
	}
	return &testServer{router: NewRouter(deps), hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Quantum Brain is online", body["status"])

	rec, body = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.NotContains(t, body, "database")

	rec, body = s.do(t, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operational", body["status"])
}

func TestHealthReportsDatabase(t *testing.T) {
	s := newTestServer(t, &fakeHistory{healthErr: errors.New("connection refused")})

	rec, body := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "connection refused", body["error"])

	s = newTestServer(t, &fakeHistory{})
	rec, body = s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["database"])
	pool, ok := body["pool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), pool["max_conns"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	s.do(t, http.MethodPost, "/remediation/execute", `{"action":"CLEANUP_LOG_FILES"}`)

	rec, _ := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantum_brain_remediations_total")
}

func TestRemediationEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodPost, "/remediation/execute", `{"action":"CLEANUP_LOG_FILES","target":"node-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "log-storage", body["target"])
	assert.Equal(t, "Freed 4GB", body["details"])

	rec, body = s.do(t, http.MethodPost, "/remediation/execute", `{"action":"REBOOT_UNIVERSE"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Unknown remediation action: REBOOT_UNIVERSE", body["details"])

	rec, _ = s.do(t, http.MethodPost, "/remediation/execute", `{"target":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/remediation/actions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_count"])
	action := body["available_actions"].([]any)[0].(map[string]any)
	assert.Equal(t, "cleanup_log_files", action["function"])

	rec, body = s.do(t, http.MethodGet, "/remediation/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remediation", body["service"])
	assert.Equal(t, false, body["dry_run"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/analyze", `{"cpu_usage":95}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.TypeAnomaly, body["type"])
	state := body["superposition_state"].(map[string]any)
	assert.Equal(t, analyzer.CauseDatabaseLoad, state["confirmed_root_cause"])
	solution := state["optimal_solution"].(map[string]any)
	assert.Equal(t, "ENABLE_DB_CONNECTION_POOLING", solution["action"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/analyze", `{"cpu_usage":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.TypeSystemStatus, body["type"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/analyze", `{"cpu_usage":"hot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolutionEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodGet, "/api/v1/solutions/database_load?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	first := body["solutions"].([]any)[0].(map[string]any)
	assert.Equal(t, "ENABLE_DB_CONNECTION_POOLING", first["action"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/solutions/database_load/optimal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ENABLE_DB_CONNECTION_POOLING", body["action"])
	assert.Equal(t, 18.75, body["utility_score"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/solutions/sunspots", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/solutions/sunspots/optimal", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/solutions/database_load?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{
		"/api/v1/analyses",
		"/api/v1/remediations",
		"/api/v1/remediations/stats",
		"/api/v1/metrics/cpu_usage/stats",
		"/api/v1/metrics/cpu_usage/samples",
	} {
		rec, _ := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	history := &fakeHistory{}
	s := newTestServer(t, history)

	rec, body := s.do(t, http.MethodGet, "/api/v1/analyses?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 5, history.lastLimit)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/analyses?limit=100000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxLimit, history.lastLimit)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/analyses?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/v1/remediations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, history.lastLimit)
	assert.Len(t, body["remediations"], 1)

	rec, body = s.do(t, http.MethodGet, "/api/v1/remediations/stats?duration=2h", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2*time.Hour, history.lastDur)
	assert.Equal(t, float64(4), body["total"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/remediations/stats?duration=eventually", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/v1/metrics/cpu_usage/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checkout", history.service)
	assert.Equal(t, time.Hour, history.lastDur)
	assert.Equal(t, "cpu_usage", body["metric_name"])
}

func TestMetricSamples(t *testing.T) {
	history := &fakeHistory{}
	s := newTestServer(t, history)

	rec, body := s.do(t, http.MethodGet, "/api/v1/metrics/cpu_usage/samples?service=api&duration=15m", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api", history.service)
	assert.Equal(t, 15*time.Minute, history.lastDur)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "cpu_usage", body["metric_name"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/metrics/cpu_usage/samples?duration=-1m", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryQueryError(t *testing.T) {
	s := newTestServer(t, &fakeHistory{queryErr: errors.New("relation does not exist")})

	rec, body := s.do(t, http.MethodGet, "/api/v1/analyses", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "relation does not exist", body["error"])
}

func TestMonitoringEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/monitoring/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	read := func() map[string]any {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	assert.Equal(t, "connection_established", read()["type"])
	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	rec, body := s.do(t, http.MethodGet, "/monitoring/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["active_connections"])

	rec, body = s.do(t, http.MethodPost, "/monitoring/broadcast", `{"note":"deploy at noon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["recipients"])
	msg := read()
	assert.Equal(t, "admin_broadcast", msg["type"])
	assert.Equal(t, map[string]any{"note": "deploy at noon"}, msg["message"])

	rec, _ = s.do(t, http.MethodPost, "/monitoring/broadcast", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/monitoring/system-status?status=maintenance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "System status updated to: maintenance", body["message"])
	status := read()
	assert.Equal(t, "system_status", status["type"])
	assert.Equal(t, "maintenance", status["status"])

	rec, _ = s.do(t, http.MethodPost, "/monitoring/system-status", `{"status":"degraded","details":{"region":"eu"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	status = read()
	assert.Equal(t, "degraded", status["status"])
	assert.Equal(t, map[string]any{"region": "eu"}, status["details"])

	rec, _ = s.do(t, http.MethodPost, "/monitoring/system-status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// analyses published by the pipeline reach the socket too
	s.do(t, http.MethodPost, "/api/v1/analyze", `{"cpu_usage":95}`)
	assert.Equal(t, pipeline.TypeAnomaly, read()["type"])
}
