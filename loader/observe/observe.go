// Package observe provides observers for combined-loader passes: timing
// statistics, zap logging and OpenTelemetry metrics and traces. Every
// observer is a core.Hooks value, registered with combine.WithHooks or
// attached to the context given to Loader.Iter with core.WithHooks.
package observe

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguimbarda/min-loader/loader/core"
)

// PassMetrics holds statistics about one pass.
type PassMetrics struct {
	Pass core.PassInfo

	// Counts
	Steps    int64
	Restarts int64
	Errors   int64

	// Timing
	StartTime     time.Time
	EndTime       time.Time
	FirstStepTime time.Time
	LastStepTime  time.Time

	// Throughput
	StepsPerSecond float64

	// Latency (time between steps)
	MinLatency time.Duration
	MaxLatency time.Duration
	AvgLatency time.Duration
}

// Meter returns hooks that collect PassMetrics for every pass. The
// onComplete callback is called with the final metrics when a pass ends.
func Meter(onComplete func(PassMetrics)) core.Hooks {
	var (
		mu     sync.Mutex
		passes = map[string]*passMeter{}
	)
	get := func(p core.PassInfo) *passMeter {
		mu.Lock()
		defer mu.Unlock()
		return passes[p.ID]
	}

	return core.Hooks{
		OnPassStart: func(p core.PassInfo) {
			m := &passMeter{metrics: PassMetrics{
				Pass:       p,
				StartTime:  time.Now(),
				MinLatency: time.Duration(1<<63 - 1), // Max duration
			}}
			mu.Lock()
			passes[p.ID] = m
			mu.Unlock()
		},
		OnBatch: func(p core.PassInfo, _ int) {
			if m := get(p); m != nil {
				m.step(time.Now())
			}
		},
		OnRestart: func(p core.PassInfo, _ string, _ int) {
			if m := get(p); m != nil {
				m.metrics.Restarts++
			}
		},
		OnError: func(p core.PassInfo, _ error) {
			if m := get(p); m != nil {
				m.metrics.Errors++
			}
		},
		OnPassEnd: func(p core.PassInfo, _ int) {
			mu.Lock()
			m := passes[p.ID]
			delete(passes, p.ID)
			mu.Unlock()
			if m == nil {
				return
			}
			m.finish(time.Now())
			if onComplete != nil {
				onComplete(m.metrics)
			}
		},
	}
}

type passMeter struct {
	metrics      PassMetrics
	totalLatency time.Duration
	latencyCount int64
}

func (m *passMeter) step(now time.Time) {
	m.metrics.Steps++

	if m.metrics.Steps == 1 {
		m.metrics.FirstStepTime = now
	} else {
		latency := now.Sub(m.metrics.LastStepTime)
		m.metrics.MinLatency = min(m.metrics.MinLatency, latency)
		m.metrics.MaxLatency = max(m.metrics.MaxLatency, latency)
		m.totalLatency += latency
		m.latencyCount++
	}
	m.metrics.LastStepTime = now
}

func (m *passMeter) finish(now time.Time) {
	m.metrics.EndTime = now
	if m.latencyCount == 0 {
		m.metrics.MinLatency = 0
	} else {
		m.metrics.AvgLatency = m.totalLatency / time.Duration(m.latencyCount)
	}
	if m.metrics.Steps > 0 {
		if d := now.Sub(m.metrics.StartTime).Seconds(); d > 0 {
			m.metrics.StepsPerSecond = float64(m.metrics.Steps) / d
		}
	}
}

// LiveMetrics holds counters across all passes that can be read
// concurrently while a pass is running.
type LiveMetrics struct {
	passes    atomic.Int64
	steps     atomic.Int64
	restarts  atomic.Int64
	errors    atomic.Int64
	startTime atomic.Int64 // Unix nano of the latest pass
	lastStep  atomic.Int64 // Unix nano
}

// Passes returns the number of started passes.
func (m *LiveMetrics) Passes() int64 { return m.passes.Load() }

// Steps returns the number of delivered batches.
func (m *LiveMetrics) Steps() int64 { return m.steps.Load() }

// Restarts returns the number of cycled source restarts.
func (m *LiveMetrics) Restarts() int64 { return m.restarts.Load() }

// Errors returns the number of failed steps.
func (m *LiveMetrics) Errors() int64 { return m.errors.Load() }

// LastStepTime returns when the last batch was delivered.
func (m *LiveMetrics) LastStepTime() time.Time {
	return time.Unix(0, m.lastStep.Load())
}

// Duration returns how long the latest pass has been running.
func (m *LiveMetrics) Duration() time.Duration {
	start := m.startTime.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// Hooks returns hooks that update m.
func (m *LiveMetrics) Hooks() core.Hooks {
	return core.Hooks{
		OnPassStart: func(core.PassInfo) {
			m.passes.Add(1)
			m.startTime.Store(time.Now().UnixNano())
		},
		OnBatch: func(core.PassInfo, int) {
			m.steps.Add(1)
			m.lastStep.Store(time.Now().UnixNano())
		},
		OnRestart: func(core.PassInfo, string, int) { m.restarts.Add(1) },
		OnError:   func(core.PassInfo, error) { m.errors.Add(1) },
	}
}
