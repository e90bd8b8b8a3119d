// Package remediation maps remediation action ids to executable actions and
// normalises every execution into a Result.
package remediation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/storage"
	"github.com/namansh70747/quantum-brain/internal/telemetry"
)

// Status is the outcome of one execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Request asks for one action to be executed.
type Request struct {
	Action     string         `json:"action" binding:"required"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters"`
}

// Outcome is what an action reports when it completes.
type Outcome struct {
	Target  string
	Details string
}

// Action performs one remediation.
type Action interface {
	Run(ctx context.Context, req Request) (Outcome, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, req Request) (Outcome, error)

func (f ActionFunc) Run(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}

// Registration binds an action id to its implementation.
type Registration struct {
	Function    string
	Description string
	Action      Action
}

// ActionInfo describes a registered action for listing.
type ActionInfo struct {
	Action      string `json:"action"`
	Function    string `json:"function"`
	Description string `json:"description"`
}

// Result is the uniform execution record.
type Result struct {
	Status    Status
	Action    string
	Function  string
	Target    string
	Details   string
	Duration  time.Duration
	Timestamp time.Time
}

type resultJSON struct {
	Status    Status  `json:"status"`
	Action    string  `json:"action"`
	Function  string  `json:"function,omitempty"`
	Target    string  `json:"target"`
	Details   string  `json:"details"`
	Duration  float64 `json:"duration"`
	Timestamp string  `json:"timestamp"`
}

// MarshalJSON reports the duration in seconds and the timestamp in RFC 3339.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Status:    r.Status,
		Action:    r.Action,
		Function:  r.Function,
		Target:    r.Target,
		Details:   r.Details,
		Duration:  r.Duration.Seconds(),
		Timestamp: r.Timestamp.Format(time.RFC3339Nano),
	})
}

// Recorder persists execution results.
type Recorder interface {
	SaveRemediation(ctx context.Context, rec *storage.RemediationRecord) error
}

// Dispatcher executes registered actions. The registry is fixed at
// construction, so concurrent Execute calls need no coordination.
type Dispatcher struct {
	actions  map[string]Registration
	recorder Recorder
	log      *zap.Logger
}

// NewDispatcher copies the registry. recorder may be nil.
func NewDispatcher(actions map[string]Registration, recorder Recorder, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	registry := make(map[string]Registration, len(actions))
	for id, reg := range actions {
		registry[id] = reg
	}
	return &Dispatcher{actions: registry, recorder: recorder, log: log}
}

// Actions lists the registered actions sorted by id.
func (d *Dispatcher) Actions() []ActionInfo {
	out := make([]ActionInfo, 0, len(d.actions))
	for id, reg := range d.actions {
		out = append(out, ActionInfo{Action: id, Function: reg.Function, Description: reg.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// Execute runs the requested action and never returns an error: unknown ids,
// action errors and panics all come back as a StatusError result.
func (d *Dispatcher) Execute(ctx context.Context, req Request) Result {
	result := d.execute(ctx, req)
	telemetry.ObserveRemediation(req.Action, string(result.Status), result.Duration)
	d.record(ctx, req, result)
	return result
}

func (d *Dispatcher) execute(ctx context.Context, req Request) (result Result) {
	reg, ok := d.actions[req.Action]
	if !ok {
		d.log.Error("Unknown remediation action", zap.String("action", req.Action))
		return Result{
			Status:    StatusError,
			Action:    req.Action,
			Target:    req.Target,
			Details:   fmt.Sprintf("Unknown remediation action: %s", req.Action),
			Timestamp: time.Now(),
		}
	}

	d.log.Info("Starting remediation action",
		zap.String("action", req.Action),
		zap.String("function", reg.Function),
		zap.String("target", req.Target),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = d.failed(req, reg, fmt.Errorf("panic: %v", r), time.Since(start))
		}
	}()

	outcome, err := reg.Action.Run(ctx, req)
	duration := time.Since(start)
	if err != nil {
		return d.failed(req, reg, err, duration)
	}

	target := outcome.Target
	if target == "" {
		target = req.Target
	}

	d.log.Info("Remediation action completed",
		zap.String("action", req.Action),
		zap.Duration("duration", duration),
	)
	return Result{
		Status:    StatusSuccess,
		Action:    req.Action,
		Function:  reg.Function,
		Target:    target,
		Details:   outcome.Details,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

func (d *Dispatcher) failed(req Request, reg Registration, err error, duration time.Duration) Result {
	d.log.Error("Error executing remediation action",
		zap.String("action", req.Action),
		zap.Error(err),
	)
	return Result{
		Status:    StatusError,
		Action:    req.Action,
		Function:  reg.Function,
		Target:    req.Target,
		Details:   fmt.Sprintf("Error executing action: %v", err),
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

func (d *Dispatcher) record(ctx context.Context, req Request, r Result) {
	if d.recorder == nil {
		return
	}

	params := []byte("{}")
	if len(req.Parameters) > 0 {
		if raw, err := json.Marshal(req.Parameters); err == nil {
			params = raw
		}
	}

	rec := &storage.RemediationRecord{
		Action:          r.Action,
		Function:        r.Function,
		Target:          r.Target,
		Status:          string(r.Status),
		Details:         r.Details,
		DurationSeconds: r.Duration.Seconds(),
		Parameters:      params,
		ExecutedAt:      r.Timestamp,
	}
	if err := d.recorder.SaveRemediation(ctx, rec); err != nil {
		d.log.Warn("Failed to persist remediation result",
			zap.String("action", r.Action),
			zap.Error(err),
		)
	}
}
