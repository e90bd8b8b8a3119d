// Package api exposes the HTTP and WebSocket surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/broadcast"
	"github.com/namansh70747/quantum-brain/internal/core"
	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
	"github.com/namansh70747/quantum-brain/internal/pipeline"
	"github.com/namansh70747/quantum-brain/internal/remediation"
	"github.com/namansh70747/quantum-brain/internal/storage"
)

// Cycler runs one analysis cycle.
type Cycler interface {
	RunCycle(ctx context.Context, snapshot entanglement.Snapshot) pipeline.Event
}

// History is the read side of the Postgres store.
type History interface {
	Health(ctx context.Context) error
	PoolStats() storage.PoolStats
	GetRecentAnalyses(ctx context.Context, limit int) ([]*storage.AnalysisRecord, error)
	GetRecentRemediations(ctx context.Context, limit int) ([]*storage.RemediationRecord, error)
	GetRemediationStats(ctx context.Context, duration time.Duration) (*storage.RemediationStats, error)
	GetMetricStatistics(ctx context.Context, serviceName, metricName string, duration time.Duration) (*storage.MetricStats, error)
	GetRecentMetrics(ctx context.Context, serviceName, metricName string, duration time.Duration) ([]*storage.Metric, error)
}

// Deps wires the router. History is nil when storage is disabled; Gatherer
// defaults to the global registry.
type Deps struct {
	Config     *core.Config
	Hub        *broadcast.Hub
	Pipeline   Cycler
	Model      *optimizer.Model
	Dispatcher *remediation.Dispatcher
	History    History
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery(), ginLogger(d.Logger))

	router.GET("/", rootHandler())
	router.GET("/health", healthHandler(d.Config, d.History))
	router.GET("/api/status", apiStatusHandler())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	monitoring := router.Group("/monitoring")
	{
		monitoring.GET("/ws", gin.WrapH(d.Hub))
		monitoring.GET("/status", monitoringStatusHandler(d.Hub))
		monitoring.POST("/broadcast", broadcastHandler(d.Hub))
		monitoring.POST("/system-status", systemStatusHandler(d.Hub))
	}

	rem := router.Group("/remediation")
	{
		rem.POST("/execute", executeHandler(d.Dispatcher, d.Logger))
		rem.GET("/actions", actionsHandler(d.Dispatcher))
		rem.GET("/status", remediationStatusHandler(d.Config))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", analyzeHandler(d.Pipeline))
		v1.GET("/solutions/:cause", solutionsHandler(d.Model))
		v1.GET("/solutions/:cause/optimal", optimalSolutionHandler(d.Model))

		// History endpoints
		v1.GET("/analyses", recentAnalysesHandler(d.History))
		v1.GET("/remediations", recentRemediationsHandler(d.History))
		v1.GET("/remediations/stats", remediationStatsHandler(d.History))
		v1.GET("/metrics/:metric/stats", metricStatsHandler(d.History, serviceName(d.Config)))
		v1.GET("/metrics/:metric/samples", metricSamplesHandler(d.History, serviceName(d.Config)))
	}

	return router
}

func serviceName(cfg *core.Config) string {
	if cfg == nil || cfg.Observer.ServiceName == "" {
		return "quantum-brain"
	}
	return cfg.Observer.ServiceName
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"error": msg,
	})
}

func storageDisabled(c *gin.Context) {
	errorJSON(c, http.StatusServiceUnavailable, "history storage is disabled")
}
