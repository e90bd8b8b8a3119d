package observer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/pipeline"
	"github.com/namansh70747/quantum-brain/internal/storage"
)

// Cycler runs one analysis cycle over a snapshot.
type Cycler interface {
	RunCycle(ctx context.Context, snapshot entanglement.Snapshot) pipeline.Event
}

// SampleStore keeps raw snapshot samples.
type SampleStore interface {
	BatchSaveMetrics(ctx context.Context, metrics []*storage.Metric) error
	DeleteOldMetrics(ctx context.Context, olderThan time.Duration) (int64, error)
}

type labeled interface {
	Labels(metric string) []byte
}

type LoopConfig struct {
	Interval    time.Duration
	ServiceName string
	// Retention drops stored samples older than this. Zero keeps everything.
	Retention time.Duration
	// SweepInterval is how often retention runs.
	SweepInterval time.Duration
}

// Loop collects a snapshot every interval and feeds it to the pipeline.
type Loop struct {
	source Source
	cycler Cycler
	store  SampleStore
	cfg    LoopConfig
	logger *zap.Logger
}

// NewLoop builds a loop. store may be nil.
func NewLoop(source Source, cycler Cycler, store SampleStore, cfg LoopConfig, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "quantum-brain"
	}
	return &Loop{
		source: source,
		cycler: cycler,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Start blocks until ctx is done. The first cycle runs immediately.
func (l *Loop) Start(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	var sweep <-chan time.Time
	if l.store != nil && l.cfg.Retention > 0 {
		sweepTicker := time.NewTicker(l.cfg.SweepInterval)
		defer sweepTicker.Stop()
		sweep = sweepTicker.C
	}

	l.logger.Info("Observer loop started",
		zap.Duration("interval", l.cfg.Interval),
		zap.Bool("persist_samples", l.store != nil))

	if _, err := l.Tick(ctx); err != nil {
		l.logger.Error("Initial cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Observer loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := l.Tick(ctx); err != nil {
				l.logger.Error("Cycle skipped", zap.Error(err))
			}
		case <-sweep:
			l.sweep(ctx)
		}
	}
}

// Tick runs one collect-persist-analyse round.
func (l *Loop) Tick(ctx context.Context) (pipeline.Event, error) {
	snapshot, err := l.source.Collect(ctx)
	if err != nil {
		return pipeline.Event{}, fmt.Errorf("failed to collect snapshot: %w", err)
	}

	if l.store != nil {
		if err := l.store.BatchSaveMetrics(ctx, l.samples(snapshot)); err != nil {
			l.logger.Warn("Failed to save metric samples", zap.Error(err))
		}
	}

	return l.cycler.RunCycle(ctx, snapshot), nil
}

func (l *Loop) samples(snapshot entanglement.Snapshot) []*storage.Metric {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	src, hasLabels := l.source.(labeled)
	timestamp := time.Now()
	out := make([]*storage.Metric, 0, len(names))
	for _, name := range names {
		m := &storage.Metric{
			Timestamp:   timestamp,
			ServiceName: l.cfg.ServiceName,
			MetricName:  name,
			MetricValue: snapshot[name],
		}
		if hasLabels {
			m.Labels = src.Labels(name)
		}
		out = append(out, m)
	}
	return out
}

func (l *Loop) sweep(ctx context.Context) {
	deleted, err := l.store.DeleteOldMetrics(ctx, l.cfg.Retention)
	if err != nil {
		l.logger.Warn("Retention sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		l.logger.Info("Old metric samples deleted", zap.Int64("rows", deleted))
	}
}
