package cognition

import (
	"context"
	"math/rand"
	"time"
)

// SimulatedProbe stands in for a real diagnostic. It waits a random latency,
// then confirms the cause when a random draw exceeds HitThreshold.
type SimulatedProbe struct {
	HitThreshold float64

	// Severity is used for confirmed findings. When Escalated is set, a second
	// draw above EscalateAbove upgrades the finding to Escalated.
	Severity      Severity
	Escalated     Severity
	EscalateAbove float64

	ConfirmedDetails string
	ClearedDetails   string

	MinLatency time.Duration
	MaxLatency time.Duration

	// Rand returns a value in [0,1). Nil means math/rand/v2.
	Rand func() float64
}

func (p SimulatedProbe) draw() float64 {
	if p.Rand != nil {
		return p.Rand()
	}
	return rand.Float64()
}

// Check implements Probe.
func (p SimulatedProbe) Check(ctx context.Context) (Finding, error) {
	latency := p.MinLatency
	if p.MaxLatency > p.MinLatency {
		latency += time.Duration(p.draw() * float64(p.MaxLatency-p.MinLatency))
	}

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Finding{}, ctx.Err()
		case <-timer.C:
		}
	}

	if p.draw() <= p.HitThreshold {
		return Finding{Confirmed: false, Details: p.ClearedDetails, Severity: SeverityLow}, nil
	}

	severity := p.Severity
	if p.Escalated != "" && p.draw() > p.EscalateAbove {
		severity = p.Escalated
	}
	return Finding{Confirmed: true, Details: p.ConfirmedDetails, Severity: severity}, nil
}

const (
	probeMinLatency = 500 * time.Millisecond
	probeMaxLatency = 2 * time.Second
)

// DefaultProbes returns the simulated probe registry keyed by cause label.
func DefaultProbes() map[string]Probe {
	probe := func(hit float64, sev, escalated Severity, above float64, confirmed, cleared string) Probe {
		return SimulatedProbe{
			HitThreshold:     hit,
			Severity:         sev,
			Escalated:        escalated,
			EscalateAbove:    above,
			ConfirmedDetails: confirmed,
			ClearedDetails:   cleared,
			MinLatency:       probeMinLatency,
			MaxLatency:       probeMaxLatency,
		}
	}

	return map[string]Probe{
		"database_load": probe(0.3, SeverityMedium, SeverityHigh, 0.5,
			"High query execution time detected. Multiple slow queries identified.",
			"Database performance within normal parameters"),
		"inefficient_query": probe(0.4, SeverityMedium, SeverityHigh, 0.6,
			"N+1 query pattern detected. Missing indexes identified.",
			"Query patterns optimized and efficient"),
		"connection_pool_exhaustion": probe(0.5, SeverityHigh, "", 0,
			"Connection pool at 95% capacity. Long-running connections detected.",
			"Connection pool operating normally"),
		"network_issue": probe(0.3, SeverityMedium, SeverityHigh, 0.4,
			"Packet loss detected. High latency to external services.",
			"Network connectivity stable"),
		"ddos_attack": probe(0.8, SeverityCritical, "", 0,
			"Unusual traffic patterns detected. Potential DDoS attack in progress.",
			"Traffic patterns normal"),
		"high_traffic": probe(0.4, SeverityMedium, "", 0,
			"Traffic spike detected. Peak usage during business hours.",
			"Traffic levels within expected range"),
		"memory_leak": probe(0.3, SeverityMedium, SeverityHigh, 0.5,
			"Memory usage increasing over time. Potential memory leak detected.",
			"Memory usage patterns normal"),
		"resource_exhaustion": probe(0.4, SeverityHigh, "", 0,
			"System resources approaching limits. CPU and memory under pressure.",
			"System resources adequate"),
		"cache_miss": probe(0.3, SeverityMedium, "", 0,
			"Cache hit rate below threshold. Cache eviction patterns abnormal.",
			"Cache performance optimal"),
		"application_bug": probe(0.5, SeverityMedium, SeverityHigh, 0.6,
			"Exception patterns detected. Recent deployment may have introduced issues.",
			"Application running without errors"),
		"disk_space": probe(0.6, SeverityHigh, "", 0,
			"Disk usage at 95%. Log files consuming excessive space.",
			"Disk space adequate"),
		"log_overflow": probe(0.5, SeverityMedium, "", 0,
			"Log files growing rapidly. Error logs contain repeated patterns.",
			"Log management functioning normally"),
	}
}
