package engine

import (
	"context"
	"testing"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScript struct {
	ticks int
	fail  bool
}

func (s *countingScript) AdvanceTick() error {
	s.ticks++
	if s.fail {
		return errors.New("boom")
	}
	return nil
}

func (s *countingScript) QueryTransform() (behaviour.TransformSnapshot, error) {
	return behaviour.IdentitySnapshot(), nil
}

func discard() behaviour.TransformWriter {
	return behaviour.TransformWriterFunc(func(behaviour.EntityID, behaviour.TransformSnapshot) error { return nil })
}

func TestNewLoopValidates(t *testing.T) {
	_, err := NewLoop(nil, time.Millisecond, nil)
	assert.Error(t, err)

	_, err = NewLoop(behaviour.NewScriptManager(discard()), 0, nil)
	assert.Error(t, err)

	l, err := NewLoop(behaviour.NewScriptManager(discard()), time.Millisecond, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, l.RunID)
}

func TestStepRecordsMetrics(t *testing.T) {
	manager := behaviour.NewScriptManager(discard())
	manager.Attach(1, &countingScript{})
	manager.Attach(2, &countingScript{fail: true})

	sink := metrics.NewInmemSink(time.Minute, time.Minute)
	l, err := NewLoop(manager, time.Millisecond, sink)
	require.NoError(t, err)

	report := l.Step()
	l.Step()

	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, []behaviour.EntityID{2}, report.Failed)
	assert.Equal(t, uint64(2), l.Ticks())

	data := sink.Data()
	require.NotEmpty(t, data)
	interval := data[len(data)-1]
	assert.Equal(t, 2, interval.Counters["scriptable.scripts.failed"].Count)
	assert.Equal(t, float64(2), interval.Counters["scriptable.scripts.applied"].Sum)
	assert.Equal(t, float32(2), interval.Gauges["scriptable.scripts.attached"].Value)
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	script := &countingScript{}
	manager := behaviour.NewScriptManager(discard())
	manager.Attach(1, script)

	l, err := NewLoop(manager, time.Millisecond, nil)
	require.NoError(t, err)
	l.MaxTicks = 5

	var seen []uint64
	l.OnTick = func(tick uint64, _ behaviour.TickReport) { seen = append(seen, tick) }

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, 5, script.ticks)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
}

func TestRunReturnsContextError(t *testing.T) {
	l, err := NewLoop(behaviour.NewScriptManager(discard()), time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	l.OnTick = func(tick uint64, _ behaviour.TickReport) {
		if tick == 3 {
			cancel()
		}
	}

	err = l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, l.Ticks(), uint64(3))
}

func TestRunHandlesReloadsBetweenTicks(t *testing.T) {
	l, err := NewLoop(behaviour.NewScriptManager(discard()), time.Millisecond, nil)
	require.NoError(t, err)

	reloads := make(chan string, 2)
	reloads <- "a.js"
	reloads <- "b.js"
	l.Reloads = reloads

	var paths []string
	l.OnReload = func(path string) error {
		paths = append(paths, path)
		if path == "b.js" {
			return errors.New("syntax error")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l.OnTick = func(tick uint64, _ behaviour.TickReport) {
		if len(paths) == 2 {
			cancel()
		}
	}

	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
	assert.Equal(t, []string{"a.js", "b.js"}, paths)
}

func TestRunSurvivesClosedReloadChannel(t *testing.T) {
	l, err := NewLoop(behaviour.NewScriptManager(discard()), time.Millisecond, nil)
	require.NoError(t, err)
	l.MaxTicks = 3

	reloads := make(chan string)
	close(reloads)
	l.Reloads = reloads
	calls := 0
	l.OnReload = func(string) error { calls++; return nil }

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, 0, calls)
	assert.Equal(t, uint64(3), l.Ticks())
}
