// Package cognition confirms suspected root causes by running one probe per
// cause concurrently and reducing the results to a single verdict.
package cognition

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namansh70747/quantum-brain/internal/analyzer"
	"github.com/namansh70747/quantum-brain/internal/telemetry"
)

// ProbabilityFloor is the strict lower bound a cause must exceed to be probed.
const ProbabilityFloor = 0.1

// Engine fans out confirmation probes. The probe registry is read-only after
// construction, so one Engine can serve concurrent investigations.
type Engine struct {
	probes map[string]Probe
	log    *zap.Logger
}

// NewEngine copies the probe registry.
func NewEngine(probes map[string]Probe, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	registry := make(map[string]Probe, len(probes))
	for cause, p := range probes {
		registry[cause] = p
	}
	return &Engine{probes: registry, log: log}
}

// HasProbe reports whether cause has a registered probe.
func (e *Engine) HasProbe(cause string) bool {
	_, ok := e.probes[cause]
	return ok
}

type scheduled struct {
	cause string
	probe Probe
}

// Investigate probes every cause above ProbabilityFloor that has a registered
// probe and waits for all of them. Probe errors and panics become unconfirmed
// results; they never cancel sibling probes.
func (e *Engine) Investigate(ctx context.Context, dist analyzer.Distribution) *Batch {
	batch := newBatch()
	if len(dist) == 0 {
		e.log.Warn("No probabilities provided for investigation")
		return batch
	}

	var jobs []scheduled
	for _, cp := range dist {
		probe, ok := e.probes[cp.Cause]
		if !ok {
			e.log.Warn("No probe registered for cause", zap.String("cause", cp.Cause))
			continue
		}
		if cp.Probability > ProbabilityFloor {
			jobs = append(jobs, scheduled{cause: cp.Cause, probe: probe})
		}
	}

	if len(jobs) == 0 {
		e.log.Warn("No causes qualified for investigation")
		return batch
	}

	e.log.Info("Starting parallel investigation", zap.Int("probes", len(jobs)))

	results := make([]Result, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = e.run(ctx, job)
			return nil
		})
	}
	_ = g.Wait() // failures are carried in results

	for _, r := range results {
		batch.add(r)
	}
	batch.finalize()

	primary := "none"
	if batch.Primary != nil {
		primary = batch.Primary.Cause
	}
	e.log.Info("Investigation completed",
		zap.Duration("total_duration", batch.TotalDuration),
		zap.Int("confirmed", len(batch.Confirmed)),
		zap.String("primary_cause", primary),
	)
	return batch
}

func (e *Engine) run(ctx context.Context, job scheduled) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = e.failed(job.cause, fmt.Errorf("panic: %v", r), time.Since(start))
		}
		telemetry.ObserveProbe(result.Cause, result.Confirmed, result.Duration)
	}()

	finding, err := job.probe.Check(ctx)
	duration := time.Since(start)
	if err != nil {
		return e.failed(job.cause, err, duration)
	}

	e.log.Debug("Probe finished",
		zap.String("cause", job.cause),
		zap.Bool("confirmed", finding.Confirmed),
		zap.String("severity", string(finding.Severity)),
		zap.Duration("duration", duration),
	)

	return Result{
		Cause:     job.cause,
		Confirmed: finding.Confirmed,
		Details:   finding.Details,
		Severity:  finding.Severity,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

func (e *Engine) failed(cause string, err error, duration time.Duration) Result {
	e.log.Error("Probe failed", zap.String("cause", cause), zap.Error(err))
	return Result{
		Cause:     cause,
		Confirmed: false,
		Details:   fmt.Sprintf("Investigation error: %v", err),
		Severity:  SeverityLow,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}
