package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresClient struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresClient opens and pings a pool. maxConns <= 0 keeps the default
// of 25.
func NewPostgresClient(connectionURL string, maxConns int, logger *zap.Logger) (*PostgresClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 25
	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to Postgres",
		zap.String("database", config.ConnConfig.Database),
		zap.Int32("max_conns", config.MaxConns))

	return &PostgresClient{
		pool:   pool,
		logger: logger,
	}, nil
}

func (c *PostgresClient) Close() {
	c.pool.Close()
}

func (c *PostgresClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.pool.Ping(ctx)
}

func (c *PostgresClient) PoolStats() PoolStats {
	stat := c.pool.Stat()
	return PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

// BatchSaveMetrics writes samples with COPY.
func (c *PostgresClient) BatchSaveMetrics(ctx context.Context, metrics []*Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows := make([][]any, 0, len(metrics))
	for _, metric := range metrics {
		rows = append(rows, []any{
			metric.Timestamp,
			metric.ServiceName,
			metric.MetricName,
			metric.MetricValue,
			metric.Labels,
		})
	}

	copyCount, err := c.pool.CopyFrom(
		ctx,
		pgx.Identifier{"metrics"},
		[]string{"timestamp", "service_name", "metric_name", "metric_value", "labels"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		c.logger.Error("Failed to batch save metrics",
			zap.Error(err),
			zap.Int("attempted_count", len(metrics)))
		return fmt.Errorf("failed to copy metrics: %w", err)
	}

	c.logger.Debug("Batch saved metrics",
		zap.Int64("saved_count", copyCount),
		zap.Int("metrics_count", len(metrics)))

	return nil
}

// GetRecentMetrics returns up to 1000 samples, newest first.
func (c *PostgresClient) GetRecentMetrics(
	ctx context.Context,
	serviceName string,
	metricName string,
	duration time.Duration,
) ([]*Metric, error) {
	query := `
		SELECT id, timestamp, service_name, metric_name, metric_value, labels, created_at
		FROM metrics
		WHERE service_name = $1
		  AND metric_name = $2
		  AND timestamp > $3
		ORDER BY timestamp DESC
		LIMIT 1000
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	since := time.Now().Add(-duration)
	rows, err := c.pool.Query(ctx, query, serviceName, metricName, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	metrics := []*Metric{}
	for rows.Next() {
		var m Metric
		if err := rows.Scan(
			&m.ID,
			&m.Timestamp,
			&m.ServiceName,
			&m.MetricName,
			&m.MetricValue,
			&m.Labels,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		metrics = append(metrics, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}

	return metrics, nil
}

func (c *PostgresClient) GetMetricStatistics(
	ctx context.Context,
	serviceName string,
	metricName string,
	duration time.Duration,
) (*MetricStats, error) {
	query := `
		SELECT
			COUNT(*) as count,
			COALESCE(AVG(metric_value), 0) as avg,
			COALESCE(MIN(metric_value), 0) as min,
			COALESCE(MAX(metric_value), 0) as max,
			STDDEV(metric_value) as stddev
		FROM metrics
		WHERE service_name = $1
		  AND metric_name = $2
		  AND timestamp > $3
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	since := time.Now().Add(-duration)
	var stats MetricStats
	var stddev *float64

	err := c.pool.QueryRow(ctx, query, serviceName, metricName, since).Scan(
		&stats.Count,
		&stats.Avg,
		&stats.Min,
		&stats.Max,
		&stddev,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric statistics: %w", err)
	}

	if stddev != nil {
		stats.StdDev = *stddev
	}

	stats.ServiceName = serviceName
	stats.MetricName = metricName
	stats.Duration = duration

	return &stats, nil
}

// DeleteOldMetrics enforces sample retention.
func (c *PostgresClient) DeleteOldMetrics(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM metrics
		WHERE timestamp < $1
	`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-olderThan)
	result, err := c.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old metrics: %w", err)
	}

	return result.RowsAffected(), nil
}
