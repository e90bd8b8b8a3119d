package pipeline

import (
	"time"

	"github.com/namansh70747/quantum-brain/internal/analyzer"
	"github.com/namansh70747/quantum-brain/internal/cognition"
	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
)

// Event types published once per cycle.
const (
	TypeAnomaly      = "superposition_anomaly"
	TypeSystemStatus = "system_status"
)

// ConfirmedCause is the client-facing view of one confirmed probe result.
type ConfirmedCause struct {
	Cause    string             `json:"cause"`
	Details  string             `json:"details"`
	Severity cognition.Severity `json:"severity"`
	Duration float64            `json:"duration"`
}

// State carries the analysis results. Every key is always present; fields
// that do not apply are null or empty.
type State struct {
	Probabilities           analyzer.Distribution `json:"probabilities"`
	Confidence              float64               `json:"confidence"`
	Recommendations         []string              `json:"recommendations"`
	PrimaryAnomaly          *string               `json:"primaryAnomaly"`
	AnomalyLevel            *entanglement.Level   `json:"anomalyLevel"`
	EntangledMetrics        []string              `json:"entangledMetrics"`
	ConfirmedRootCause      *string               `json:"confirmed_root_cause"`
	ConfirmedDetails        *string               `json:"confirmed_details"`
	ConfirmedSeverity       *cognition.Severity   `json:"confirmed_severity"`
	AllConfirmedCauses      []ConfirmedCause      `json:"all_confirmed_causes"`
	InvestigationConfidence float64               `json:"investigation_confidence"`
	TotalInvestigationTime  float64               `json:"total_investigation_time"`
	InvestigationTimestamp  string                `json:"investigation_timestamp"`
	OptimalSolution         *optimizer.Solution   `json:"optimal_solution"`
}

// Event is the single message published per analysis cycle.
type Event struct {
	CycleID   string                `json:"cycle_id"`
	Type      string                `json:"type"`
	Payload   entanglement.Snapshot `json:"payload"`
	State     State                 `json:"superposition_state"`
	Timestamp string                `json:"timestamp"`
}

func emptyState(at time.Time) State {
	return State{
		Probabilities:          analyzer.Distribution{},
		Recommendations:        []string{},
		EntangledMetrics:       []string{},
		AllConfirmedCauses:     []ConfirmedCause{},
		InvestigationTimestamp: at.Format(time.RFC3339Nano),
	}
}

func ptr[T any](v T) *T {
	return &v
}
