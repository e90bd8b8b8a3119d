package cognition

import (
	"context"
	"encoding/json"
	"time"
)

// Severity grades a confirmed cause.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Finding is what a probe reports back.
type Finding struct {
	Confirmed bool
	Details   string
	Severity  Severity
}

// Probe checks whether one candidate cause is actually present.
type Probe interface {
	Check(ctx context.Context) (Finding, error)
}

// ProbeFunc adapts a plain function to the Probe interface.
type ProbeFunc func(ctx context.Context) (Finding, error)

func (f ProbeFunc) Check(ctx context.Context) (Finding, error) {
	return f(ctx)
}

// Result is the timed outcome of investigating one cause.
type Result struct {
	Cause     string
	Confirmed bool
	Details   string
	Severity  Severity
	Duration  time.Duration
	Timestamp time.Time
}

type resultJSON struct {
	Cause     string   `json:"cause"`
	Confirmed bool     `json:"confirmed"`
	Details   string   `json:"details"`
	Severity  Severity `json:"severity"`
	Duration  float64  `json:"duration"`
}

// MarshalJSON reports the duration in seconds.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Cause:     r.Cause,
		Confirmed: r.Confirmed,
		Details:   r.Details,
		Severity:  r.Severity,
		Duration:  r.Duration.Seconds(),
	})
}

// Batch collects every result of one investigation.
type Batch struct {
	Results       []Result
	Confirmed     []Result
	Primary       *Result
	Confidence    float64
	TotalDuration time.Duration
	Timestamp     time.Time
}

func newBatch() *Batch {
	return &Batch{
		Results:   []Result{},
		Confirmed: []Result{},
		Timestamp: time.Now(),
	}
}

func (b *Batch) add(r Result) {
	b.Results = append(b.Results, r)
	if r.Confirmed {
		b.Confirmed = append(b.Confirmed, r)
	}
}

// finalize derives the primary cause, confidence and wall-clock duration.
// The first confirmed result wins a severity tie.
func (b *Batch) finalize() {
	if len(b.Results) == 0 {
		return
	}

	for _, r := range b.Results {
		if r.Duration > b.TotalDuration {
			b.TotalDuration = r.Duration
		}
	}

	for i := range b.Confirmed {
		if b.Primary == nil || b.Confirmed[i].Severity.Rank() > b.Primary.Severity.Rank() {
			b.Primary = &b.Confirmed[i]
		}
	}

	confidence := 1.0 - float64(len(b.Confirmed))/float64(len(b.Results))*0.5
	b.Confidence = clamp(confidence, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
