package storage

import (
	"context"
	"fmt"
	"time"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS metrics (
		id           BIGSERIAL PRIMARY KEY,
		timestamp    TIMESTAMPTZ NOT NULL,
		service_name TEXT NOT NULL,
		metric_name  TEXT NOT NULL,
		metric_value DOUBLE PRECISION NOT NULL,
		labels       JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_metrics_lookup ON metrics (service_name, metric_name, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id                       BIGSERIAL PRIMARY KEY,
		cycle_id                 TEXT NOT NULL,
		timestamp                TIMESTAMPTZ NOT NULL,
		primary_anomaly          TEXT NOT NULL,
		anomaly_level            TEXT NOT NULL,
		top_cause                TEXT NOT NULL DEFAULT '',
		superposition_confidence DOUBLE PRECISION NOT NULL,
		confirmed_cause          TEXT NOT NULL DEFAULT '',
		confirmed_severity       TEXT NOT NULL DEFAULT '',
		investigation_confidence DOUBLE PRECISION NOT NULL,
		recommended_action       TEXT NOT NULL DEFAULT '',
		utility_score            DOUBLE PRECISION NOT NULL DEFAULT 0,
		event                    JSONB NOT NULL,
		created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses (timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS remediations (
		id               BIGSERIAL PRIMARY KEY,
		action           TEXT NOT NULL,
		function         TEXT NOT NULL DEFAULT '',
		target           TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		details          TEXT NOT NULL DEFAULT '',
		duration_seconds DOUBLE PRECISION NOT NULL,
		parameters       JSONB,
		executed_at      TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_remediations_executed_at ON remediations (executed_at DESC)`,
}

// Migrate creates the tables and indexes when they do not exist yet.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
