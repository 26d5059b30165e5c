// Package engine drives a script manager at a fixed tick rate.
package engine

import (
	"context"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const serviceName = "scriptable"

var (
	keyTick     = []string{"scripts", "tick"}
	keyFailed   = []string{"scripts", "failed"}
	keyApplied  = []string{"scripts", "applied"}
	keyAttached = []string{"scripts", "attached"}
	keyReload   = []string{"scripts", "reload"}
)

// Loop ticks a ScriptManager. Everything it touches, including reload
// handling, runs on the goroutine that calls Run or Step.
type Loop struct {
	Manager  *behaviour.ScriptManager
	Interval time.Duration
	MaxTicks int // 0 runs until the context ends

	// Reloads delivers changed script paths; each one is passed to
	// OnReload between two ticks.
	Reloads  <-chan string
	OnReload func(path string) error
	OnTick   func(tick uint64, report behaviour.TickReport)

	RunID string

	metrics *metrics.Metrics
	ticks   uint64
}

// NewLoop creates a loop ticking manager every interval. Metrics go to
// sink, or nowhere when sink is nil.
func NewLoop(manager *behaviour.ScriptManager, interval time.Duration, sink metrics.MetricSink) (*Loop, error) {
	if manager == nil {
		return nil, errors.New("loop needs a script manager")
	}
	if interval <= 0 {
		return nil, errors.Errorf("tick interval must be positive, got %s", interval)
	}
	if sink == nil {
		sink = &metrics.BlackholeSink{}
	}

	conf := metrics.DefaultConfig(serviceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false
	m, err := metrics.New(conf, sink)
	if err != nil {
		return nil, errors.Wrap(err, "metrics")
	}

	return &Loop{
		Manager:  manager,
		Interval: interval,
		RunID:    uuid.NewString(),
		metrics:  m,
	}, nil
}

// Ticks returns how many ticks have run.
func (l *Loop) Ticks() uint64 {
	return l.ticks
}

// Step runs a single tick.
func (l *Loop) Step() behaviour.TickReport {
	start := time.Now()
	report := l.Manager.Tick()
	l.ticks++

	l.metrics.MeasureSince(keyTick, start)
	l.metrics.IncrCounter(keyApplied, float32(report.Applied))
	if n := len(report.Failed); n > 0 {
		l.metrics.IncrCounter(keyFailed, float32(n))
	}
	l.metrics.SetGauge(keyAttached, float32(l.Manager.Len()))

	if l.OnTick != nil {
		l.OnTick(l.ticks, report)
	}
	return report
}

// Run ticks until MaxTicks is reached or ctx ends. Reaching MaxTicks
// returns nil; otherwise the context's error is returned.
func (l *Loop) Run(ctx context.Context) error {
	logger.Log.Info("Loop started",
		zap.String("run_id", l.RunID),
		zap.Duration("interval", l.Interval),
		zap.Int("max_ticks", l.MaxTicks))

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	reloads := l.Reloads

	for {
		if l.MaxTicks > 0 && l.ticks >= uint64(l.MaxTicks) {
			l.finished("max ticks")
			return nil
		}

		select {
		case <-ctx.Done():
			l.finished("cancelled")
			return ctx.Err()
		case path, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			l.reload(path)
		case <-ticker.C:
			l.Step()
		}
	}
}

func (l *Loop) reload(path string) {
	if l.OnReload == nil {
		return
	}
	if err := l.OnReload(path); err != nil {
		logger.Log.Error("Reload failed", zap.String("path", path), zap.Error(err))
		l.metrics.IncrCounterWithLabels(keyReload, 1, []metrics.Label{{Name: "result", Value: "error"}})
		return
	}
	l.metrics.IncrCounterWithLabels(keyReload, 1, []metrics.Label{{Name: "result", Value: "ok"}})
}

func (l *Loop) finished(reason string) {
	logger.Log.Info("Loop stopped",
		zap.String("run_id", l.RunID),
		zap.String("reason", reason),
		zap.Uint64("ticks", l.ticks))
}
