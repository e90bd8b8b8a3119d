// Package pipeline runs one diagnostic cycle end to end: anomaly detection,
// root-cause scoring, concurrent confirmation and remediation selection.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/analyzer"
	"github.com/namansh70747/quantum-brain/internal/cognition"
	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
	"github.com/namansh70747/quantum-brain/internal/storage"
	"github.com/namansh70747/quantum-brain/internal/telemetry"
)

// Publisher delivers cycle events to clients.
type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// Recorder persists anomalous cycles.
type Recorder interface {
	SaveAnalysis(ctx context.Context, rec *storage.AnalysisRecord) error
}

// Deps wires a Pipeline. Publisher and Recorder are optional.
type Deps struct {
	Map       *entanglement.Map
	Analyzer  *analyzer.Analyzer
	Engine    *cognition.Engine
	Model     *optimizer.Model
	Publisher Publisher
	Recorder  Recorder
	Logger    *zap.Logger
}

// Pipeline holds no per-cycle state; concurrent RunCycle calls are
// independent.
type Pipeline struct {
	entanglement *entanglement.Map
	analyzer     *analyzer.Analyzer
	engine       *cognition.Engine
	model        *optimizer.Model
	publisher    Publisher
	recorder     Recorder
	log          *zap.Logger
}

func New(deps Deps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		entanglement: deps.Map,
		analyzer:     deps.Analyzer,
		engine:       deps.Engine,
		model:        deps.Model,
		publisher:    deps.Publisher,
		recorder:     deps.Recorder,
		log:          log,
	}
}

// NewDefault wires the production tables around the given boundaries.
func NewDefault(publisher Publisher, recorder Recorder, log *zap.Logger) *Pipeline {
	return New(Deps{
		Map:       entanglement.DefaultMap(),
		Analyzer:  analyzer.NewDefault(),
		Engine:    cognition.NewEngine(cognition.DefaultProbes(), log),
		Model:     optimizer.NewModel(optimizer.DefaultCatalogue(), log),
		Publisher: publisher,
		Recorder:  recorder,
		Logger:    log,
	})
}

// RunCycle analyses one snapshot, publishes the resulting event and returns
// it. Publishing and persistence failures are logged, never returned.
func (p *Pipeline) RunCycle(ctx context.Context, snapshot entanglement.Snapshot) Event {
	event := p.Analyze(ctx, snapshot)

	telemetry.ObserveCycle(event.Type)

	if event.Type == TypeAnomaly {
		p.persist(ctx, event)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, event); err != nil {
			p.log.Error("Failed to publish cycle event",
				zap.String("cycle_id", event.CycleID),
				zap.Error(err))
		}
	}

	optimal := "none"
	if event.State.OptimalSolution != nil {
		optimal = event.State.OptimalSolution.Action
	}
	p.log.Info("Cycle completed",
		zap.String("cycle_id", event.CycleID),
		zap.String("type", event.Type),
		zap.Int("potential_causes", len(event.State.Probabilities)),
		zap.String("optimal_solution", optimal))

	return event
}

// Analyze builds the cycle event without side effects on the publish and
// persistence boundaries.
func (p *Pipeline) Analyze(ctx context.Context, snapshot entanglement.Snapshot) Event {
	now := time.Now()
	payload := make(entanglement.Snapshot, len(snapshot))
	for k, v := range snapshot {
		payload[k] = v
	}

	event := Event{
		CycleID:   uuid.NewString(),
		Type:      TypeSystemStatus,
		Payload:   payload,
		State:     emptyState(now),
		Timestamp: now.Format(time.RFC3339Nano),
	}

	analysis := p.entanglement.AnalyzeEntanglement(payload)
	if !analysis.HasAnomalies {
		return event
	}

	for metric, anomaly := range analysis.Anomalies {
		telemetry.ObserveAnomaly(metric, string(anomaly.Level))
	}

	dist := p.analyzer.AnalyzeRootCause(payload)
	batch := p.engine.Investigate(ctx, dist)

	state := State{
		Probabilities:           dist,
		Confidence:              analyzer.SuperpositionConfidence(dist),
		Recommendations:         p.analyzer.Recommendations(dist),
		PrimaryAnomaly:          ptr(analysis.PrimaryAnomaly),
		AnomalyLevel:            ptr(analysis.PrimaryAnomalyLevel),
		EntangledMetrics:        analysis.EntangledMetrics,
		AllConfirmedCauses:      make([]ConfirmedCause, 0, len(batch.Confirmed)),
		InvestigationConfidence: batch.Confidence,
		TotalInvestigationTime:  batch.TotalDuration.Seconds(),
		InvestigationTimestamp:  batch.Timestamp.Format(time.RFC3339Nano),
	}

	for _, r := range batch.Confirmed {
		state.AllConfirmedCauses = append(state.AllConfirmedCauses, ConfirmedCause{
			Cause:    r.Cause,
			Details:  r.Details,
			Severity: r.Severity,
			Duration: r.Duration.Seconds(),
		})
	}

	if batch.Primary != nil {
		state.ConfirmedRootCause = ptr(batch.Primary.Cause)
		state.ConfirmedDetails = ptr(batch.Primary.Details)
		state.ConfirmedSeverity = ptr(batch.Primary.Severity)
		state.OptimalSolution = p.model.FindOptimalSolution(batch.Primary.Cause)
	}

	event.Type = TypeAnomaly
	event.State = state
	event.Timestamp = time.Now().Format(time.RFC3339Nano)
	return event
}

func (p *Pipeline) persist(ctx context.Context, event Event) {
	if p.recorder == nil {
		return
	}

	raw, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to encode cycle event", zap.Error(err))
		return
	}

	state := event.State
	rec := &storage.AnalysisRecord{
		CycleID:                 event.CycleID,
		Timestamp:               time.Now(),
		SuperpositionConfidence: state.Confidence,
		InvestigationConfidence: state.InvestigationConfidence,
		Event:                   raw,
	}
	if state.PrimaryAnomaly != nil {
		rec.PrimaryAnomaly = *state.PrimaryAnomaly
	}
	if state.AnomalyLevel != nil {
		rec.AnomalyLevel = string(*state.AnomalyLevel)
	}
	if len(state.Probabilities) > 0 {
		rec.TopCause = state.Probabilities[0].Cause
	}
	if state.ConfirmedRootCause != nil {
		rec.ConfirmedCause = *state.ConfirmedRootCause
	}
	if state.ConfirmedSeverity != nil {
		rec.ConfirmedSeverity = string(*state.ConfirmedSeverity)
	}
	if state.OptimalSolution != nil {
		rec.RecommendedAction = state.OptimalSolution.Action
		rec.UtilityScore = state.OptimalSolution.UtilityScore
	}

	if err := p.recorder.SaveAnalysis(ctx, rec); err != nil {
		p.log.Warn("Failed to persist analysis",
			zap.String("cycle_id", event.CycleID),
			zap.Error(err))
	}
}
