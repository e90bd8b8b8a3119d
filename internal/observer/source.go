// Package observer collects metric snapshots and drives the analysis loop.
package observer

import (
	"context"
	"math"
	"math/rand"

	"github.com/namansh70747/quantum-brain/internal/entanglement"
)

// Source produces one snapshot per call.
type Source interface {
	Collect(ctx context.Context) (entanglement.Snapshot, error)
}

// Range is an inclusive sampling interval.
type Range struct {
	Min float64
	Max float64
}

// SimulatedSource draws every metric uniformly from its range.
type SimulatedSource struct {
	Ranges map[string]Range
	// Rand returns values in [0,1). Nil uses math/rand/v2.
	Rand func() float64
}

// DefaultRanges covers the ten monitored metrics.
func DefaultRanges() map[string]Range {
	return map[string]Range{
		"cpu_usage":            {20, 95},
		"memory_usage":         {30, 90},
		"disk_usage":           {25, 85},
		"network_io":           {100, 1200},
		"database_connections": {10, 90},
		"cache_hit_rate":       {60, 95},
		"active_users":         {1000, 12000},
		"api_latency_p99":      {100, 1200},
		"error_rate":           {0.1, 8.0},
		"request_rate":         {200, 1500},
	}
}

func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{Ranges: DefaultRanges()}
}

func (s *SimulatedSource) Collect(ctx context.Context) (entanglement.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	draw := s.Rand
	if draw == nil {
		draw = rand.Float64
	}

	snapshot := make(entanglement.Snapshot, len(s.Ranges))
	for metric, r := range s.Ranges {
		v := r.Min + draw()*(r.Max-r.Min)
		snapshot[metric] = math.Round(v*100) / 100
	}
	return snapshot, nil
}
