// Package combine aligns several batch sources into one synchronized pass.
//
// A Loader is built once from a source container (a single source, a
// sequence of sources or a mapping of named sources, nested arbitrarily)
// and a Mode. Each pass starts with Iter, which creates one native iterator
// per leaf; every call to Next then fetches one item from every leaf and
// returns them in the shape of the original container.
//
// In MinSize mode a pass ends when the first leaf is exhausted. In
// MaxSizeCycle mode every pass wraps each leaf in its own Cycle bounded by
// the length of the longest leaf, so shorter sources are transparently
// replayed and all leaves end together. Passes share no state and may run
// concurrently when the sources allow it.
package combine

import (
	"context"
	"errors"
	"iter"

	"go.uber.org/zap"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/shape"
)

// Loader combines the leaves of a source container into one iteration.
type Loader[T any] struct {
	sources shape.Node[core.Source[T]]
	mode    Mode
	bound   core.Length // longest leaf, the cycling bound
	dataset *Dataset

	logger *zap.Logger
	hooks  *core.HookSet
}

// New validates the configuration and builds a Loader. It fails with a
// configuration error for an unknown mode or an empty container.
func New[T any](sources shape.Node[core.Source[T]], mode Mode, opts ...Option) (*Loader[T], error) {
	o := newOptions(opts)

	dataset, err := NewDataset(datasetsOf(sources), mode)
	if err != nil {
		return nil, err
	}
	// Validates the container and gives the cycling bound in one go.
	maxLen, err := LengthOf(sources, MaxSizeCycle)
	if err != nil {
		return nil, err
	}

	l := &Loader[T]{
		sources: sources,
		mode:    mode,
		bound:   maxLen,
		dataset: dataset,
		logger:  o.logger,
		hooks:   o.hooks,
	}

	l.logger.Debug("combined loader created",
		zap.String("mode", string(mode)),
		zap.Stringer("length", l.Len()),
		zap.Int("leaves", len(sources.Leaves())),
		zap.Stringer("dataset_length", dataset.Len()))

	return l, nil
}

// Mode returns the combination mode.
func (l *Loader[T]) Mode() Mode { return l.mode }

// Dataset describes the datasets behind the sources.
func (l *Loader[T]) Dataset() *Dataset { return l.dataset }

// Sources returns the source container the loader was built from.
func (l *Loader[T]) Sources() shape.Node[core.Source[T]] { return l.sources }

// Len returns the number of steps in a full pass: the shortest leaf for
// MinSize and the longest leaf for MaxSizeCycle. Unbounded leaves never
// win a minimum.
func (l *Loader[T]) Len() core.Length {
	n, _ := LengthOf(l.sources, l.mode)
	return n
}

// Iter starts a new pass. Hooks attached to ctx with core.WithHooks are
// invoked after the loader's own hooks.
func (l *Loader[T]) Iter(ctx context.Context) *Iterator[T] {
	return newIterator(l, l.hooks.Merge(core.HooksFrom(ctx)))
}

// All returns the items of one pass. A failing leaf yields its error once
// and ends the sequence.
func (l *Loader[T]) All(ctx context.Context) iter.Seq2[shape.Node[T], error] {
	return func(yield func(shape.Node[T], error) bool) {
		it := l.Iter(ctx)
		defer it.Close()
		for {
			batch, err := it.Next()
			if errors.Is(err, core.ErrEndOfStream) {
				return
			}
			if !yield(batch, err) || err != nil {
				return
			}
		}
	}
}

// Stream returns a channel-based view of the loader. Every Emit runs a new
// pass in its own goroutine; a failing leaf is emitted as an error Result
// and ends the stream.
func (l *Loader[T]) Stream() core.Stream[shape.Node[T]] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[shape.Node[T]] {
		out := make(chan core.Result[shape.Node[T]])
		go func() {
			defer close(out)
			for batch, err := range l.All(ctx) {
				res := core.Ok(batch)
				if err != nil {
					res = core.Err[shape.Node[T]](err)
				}
				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}()
		return out
	})
}
