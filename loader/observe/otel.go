package observe

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lguimbarda/min-loader/loader/core"
)

// MetricHooks records pass events with meter:
//
//	loader.batches     counter    delivered batches
//	loader.restarts    counter    cycled source restarts, by leaf
//	loader.passes      counter    completed passes
//	loader.errors      counter    failed steps
//	loader.pass.steps  histogram  steps per completed pass
//
// Every measurement carries the loader mode as the "mode" attribute.
func MetricHooks(meter metric.Meter) (core.Hooks, error) {
	batches, err := meter.Int64Counter("loader.batches", metric.WithDescription("count of delivered batches"))
	if err != nil {
		return core.Hooks{}, fmt.Errorf("create batches counter: %w", err)
	}
	restarts, err := meter.Int64Counter("loader.restarts", metric.WithDescription("count of cycled source restarts"))
	if err != nil {
		return core.Hooks{}, fmt.Errorf("create restarts counter: %w", err)
	}
	passes, err := meter.Int64Counter("loader.passes", metric.WithDescription("count of completed passes"))
	if err != nil {
		return core.Hooks{}, fmt.Errorf("create passes counter: %w", err)
	}
	errs, err := meter.Int64Counter("loader.errors", metric.WithDescription("count of failed steps"))
	if err != nil {
		return core.Hooks{}, fmt.Errorf("create errors counter: %w", err)
	}
	steps, err := meter.Int64Histogram("loader.pass.steps", metric.WithDescription("steps per completed pass"))
	if err != nil {
		return core.Hooks{}, fmt.Errorf("create steps histogram: %w", err)
	}

	// Hooks carry no context; measurements are recorded without one.
	ctx := context.Background()
	mode := func(p core.PassInfo) metric.MeasurementOption {
		return metric.WithAttributes(attribute.String("mode", p.Mode))
	}

	return core.Hooks{
		OnBatch: func(p core.PassInfo, _ int) {
			batches.Add(ctx, 1, mode(p))
		},
		OnRestart: func(p core.PassInfo, leaf string, _ int) {
			restarts.Add(ctx, 1, metric.WithAttributes(
				attribute.String("mode", p.Mode),
				attribute.String("leaf", leaf)))
		},
		OnError: func(p core.PassInfo, _ error) {
			errs.Add(ctx, 1, mode(p))
		},
		OnPassEnd: func(p core.PassInfo, n int) {
			passes.Add(ctx, 1, mode(p))
			steps.Record(ctx, int64(n), mode(p))
		},
	}, nil
}

// TraceHooks opens a span named "loader.pass" for every pass, as a child of
// any span in ctx. Restarts become span events; the first error marks the
// span as failed. The span ends with the pass.
func TraceHooks(ctx context.Context, tracer trace.Tracer) core.Hooks {
	var (
		mu    sync.Mutex
		spans = map[string]trace.Span{}
	)
	get := func(p core.PassInfo) trace.Span {
		mu.Lock()
		defer mu.Unlock()
		return spans[p.ID]
	}

	return core.Hooks{
		OnPassStart: func(p core.PassInfo) {
			_, span := tracer.Start(ctx, "loader.pass", trace.WithAttributes(
				attribute.String("loader.pass.id", p.ID),
				attribute.String("loader.mode", p.Mode),
				attribute.String("loader.length", p.Length.String())))
			mu.Lock()
			spans[p.ID] = span
			mu.Unlock()
		},
		OnRestart: func(p core.PassInfo, leaf string, n int) {
			if span := get(p); span != nil {
				span.AddEvent("source restarted", trace.WithAttributes(
					attribute.String("loader.leaf", leaf),
					attribute.Int("loader.restarts", n)))
			}
		},
		OnError: func(p core.PassInfo, err error) {
			if span := get(p); span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		},
		OnPassEnd: func(p core.PassInfo, steps int) {
			mu.Lock()
			span := spans[p.ID]
			delete(spans, p.ID)
			mu.Unlock()
			if span == nil {
				return
			}
			span.SetAttributes(attribute.Int("loader.steps", steps))
			span.End()
		},
	}
}
