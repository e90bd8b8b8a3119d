package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/entanglement"
)

const queryTimeout = 10 * time.Second

// PrometheusSource builds snapshots from instant PromQL queries, one per
// monitored metric.
type PrometheusSource struct {
	api     promv1.API
	url     string
	queries map[string]string
	logger  *zap.Logger

	mu     sync.Mutex
	labels map[string]model.Metric // last sample per metric
}

// NewPrometheusSource maps metric names to PromQL expressions.
func NewPrometheusSource(prometheusURL string, queries map[string]string, logger *zap.Logger) (*PrometheusSource, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no prometheus queries configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := promapi.NewClient(promapi.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}

	q := make(map[string]string, len(queries))
	for metric, expr := range queries {
		q[metric] = expr
	}

	return &PrometheusSource{
		api:     promv1.NewAPI(client),
		url:     prometheusURL,
		queries: q,
		logger:  logger,
		labels:  make(map[string]model.Metric),
	}, nil
}

// Collect takes the first sample of every query. Metrics whose query fails
// or returns nothing are left out; an empty snapshot is an error.
func (p *PrometheusSource) Collect(ctx context.Context) (entanglement.Snapshot, error) {
	snapshot := make(entanglement.Snapshot, len(p.queries))

	for metric, query := range p.queries {
		vector, err := p.queryMetric(ctx, query)
		if err != nil {
			p.logger.Warn("Failed to query metric",
				zap.String("metric", metric),
				zap.Error(err),
			)
			continue
		}
		if len(vector) == 0 {
			p.logger.Debug("Query returned no samples", zap.String("metric", metric))
			continue
		}

		sample := vector[0]
		snapshot[metric] = float64(sample.Value)
		p.mu.Lock()
		p.labels[metric] = sample.Metric
		p.mu.Unlock()
	}

	if len(snapshot) == 0 {
		return nil, fmt.Errorf("no metrics collected from %s", p.url)
	}
	return snapshot, nil
}

// Labels returns the JSON-encoded labels of the last sample of metric.
func (p *PrometheusSource) Labels(metric string) []byte {
	p.mu.Lock()
	m, ok := p.labels[metric]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return marshalPromLabels(m)
}

func (p *PrometheusSource) queryMetric(ctx context.Context, query string) (model.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, warnings, err := p.api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("prometheus query failed: %w", err)
	}
	if len(warnings) > 0 {
		p.logger.Warn("Prometheus query warnings",
			zap.String("query", query),
			zap.Strings("warnings", warnings),
		)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	return vector, nil
}

func (p *PrometheusSource) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, _, err := p.api.Query(ctx, "up", time.Now()); err != nil {
		return fmt.Errorf("prometheus health check failed: %w", err)
	}
	return nil
}

func marshalPromLabels(metric model.Metric) []byte {
	labels := make(map[string]string, len(metric))
	for k, v := range metric {
		labels[string(k)] = string(v)
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return []byte("{}")
	}
	return data
}
