package combine

import (
	"go.uber.org/zap"

	"github.com/lguimbarda/min-loader/loader/core"
)

type options struct {
	logger *zap.Logger
	hooks  *core.HookSet
}

// Option configures a Loader.
type Option func(*options)

// WithLogger sets the logger used for construction, pass and restart events.
// The default logger discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHooks registers hooks invoked for every pass of the loader, before
// any hooks attached to the context given to Iter.
func WithHooks(hooks core.Hooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.With(hooks)
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), hooks: &core.HookSet{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
