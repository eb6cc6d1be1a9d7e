package observe

import (
	"context"

	"github.com/lguimbarda/min-loader/loader/core"
)

// Convenience functions attaching a single callback to the context given
// to Loader.Iter.
//
//	ctx := observe.WithBatchHook(ctx, func(p core.PassInfo, step int) {
//		bar.Set(step)
//	})
//	for batch, err := range l.All(ctx) { ... }

// WithPassStartHook fires when a pass begins.
func WithPassStartHook(ctx context.Context, callback func(core.PassInfo)) context.Context {
	return core.WithHooks(ctx, core.Hooks{OnPassStart: callback})
}

// WithBatchHook fires after every delivered batch.
func WithBatchHook(ctx context.Context, callback func(core.PassInfo, int)) context.Context {
	return core.WithHooks(ctx, core.Hooks{OnBatch: callback})
}

// WithRestartHook fires whenever a cycled source is restarted.
func WithRestartHook(ctx context.Context, callback func(pass core.PassInfo, leaf string, n int)) context.Context {
	return core.WithHooks(ctx, core.Hooks{OnRestart: callback})
}

// WithErrorHook fires when a leaf fails.
func WithErrorHook(ctx context.Context, callback func(core.PassInfo, error)) context.Context {
	return core.WithHooks(ctx, core.Hooks{OnError: callback})
}

// WithPassEndHook fires once when a pass is exhausted or closed.
func WithPassEndHook(ctx context.Context, callback func(pass core.PassInfo, steps int)) context.Context {
	return core.WithHooks(ctx, core.Hooks{OnPassEnd: callback})
}
