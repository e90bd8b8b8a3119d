package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

func (c *PostgresClient) SaveAnalysis(ctx context.Context, a *AnalysisRecord) error {
	query := `
		INSERT INTO analyses (
			cycle_id, timestamp, primary_anomaly, anomaly_level, top_cause,
			superposition_confidence, confirmed_cause, confirmed_severity,
			investigation_confidence, recommended_action, utility_score, event
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.pool.QueryRow(
		ctx,
		query,
		a.CycleID,
		a.Timestamp,
		a.PrimaryAnomaly,
		a.AnomalyLevel,
		a.TopCause,
		a.SuperpositionConfidence,
		a.ConfirmedCause,
		a.ConfirmedSeverity,
		a.InvestigationConfidence,
		a.RecommendedAction,
		a.UtilityScore,
		a.Event,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		c.logger.Error("Failed to save analysis",
			zap.String("cycle_id", a.CycleID),
			zap.Error(err))
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

func (c *PostgresClient) GetRecentAnalyses(ctx context.Context, limit int) ([]*AnalysisRecord, error) {
	query := `
		SELECT id, cycle_id, timestamp, primary_anomaly, anomaly_level, top_cause,
		       superposition_confidence, confirmed_cause, confirmed_severity,
		       investigation_confidence, recommended_action, utility_score, event, created_at
		FROM analyses
		ORDER BY timestamp DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*AnalysisRecord{}
	for rows.Next() {
		var a AnalysisRecord
		if err := rows.Scan(
			&a.ID,
			&a.CycleID,
			&a.Timestamp,
			&a.PrimaryAnomaly,
			&a.AnomalyLevel,
			&a.TopCause,
			&a.SuperpositionConfidence,
			&a.ConfirmedCause,
			&a.ConfirmedSeverity,
			&a.InvestigationConfidence,
			&a.RecommendedAction,
			&a.UtilityScore,
			&a.Event,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, &a)
	}

	return analyses, rows.Err()
}

func (c *PostgresClient) SaveRemediation(ctx context.Context, r *RemediationRecord) error {
	query := `
		INSERT INTO remediations (action, function, target, status, details, duration_seconds, parameters, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.pool.QueryRow(
		ctx,
		query,
		r.Action,
		r.Function,
		r.Target,
		r.Status,
		r.Details,
		r.DurationSeconds,
		r.Parameters,
		r.ExecutedAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		c.logger.Error("Failed to save remediation",
			zap.String("action", r.Action),
			zap.Error(err))
		return fmt.Errorf("failed to save remediation: %w", err)
	}

	return nil
}

func (c *PostgresClient) GetRecentRemediations(ctx context.Context, limit int) ([]*RemediationRecord, error) {
	query := `
		SELECT id, action, function, target, status, details, duration_seconds, parameters, executed_at, created_at
		FROM remediations
		ORDER BY executed_at DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query remediations: %w", err)
	}
	defer rows.Close()

	remediations := []*RemediationRecord{}
	for rows.Next() {
		var r RemediationRecord
		if err := rows.Scan(
			&r.ID,
			&r.Action,
			&r.Function,
			&r.Target,
			&r.Status,
			&r.Details,
			&r.DurationSeconds,
			&r.Parameters,
			&r.ExecutedAt,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan remediation: %w", err)
		}
		remediations = append(remediations, &r)
	}

	return remediations, rows.Err()
}

func (c *PostgresClient) GetRemediationStats(ctx context.Context, duration time.Duration) (*RemediationStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE status = 'success') as succeeded,
			COUNT(*) FILTER (WHERE status <> 'success') as failed,
			COALESCE(AVG(duration_seconds), 0) as avg_duration
		FROM remediations
		WHERE executed_at > $1
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	since := time.Now().Add(-duration)
	var stats RemediationStats

	err := c.pool.QueryRow(ctx, query, since).Scan(
		&stats.Total,
		&stats.Succeeded,
		&stats.Failed,
		&stats.AvgDurationSecs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get remediation stats: %w", err)
	}

	return &stats, nil
}
