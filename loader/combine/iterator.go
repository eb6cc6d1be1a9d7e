package combine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/shape"
)

// Iterator is the state of one pass over a Loader. It owns one native
// iterator per leaf and advances all of them in lockstep.
type Iterator[T any] struct {
	iters  shape.Node[core.Iterator[T]]
	pass   core.PassInfo
	hooks  *core.HookSet
	logger *zap.Logger

	steps int
	done  bool
}

func newIterator[T any](l *Loader[T], hooks *core.HookSet) *Iterator[T] {
	it := &Iterator[T]{
		pass: core.PassInfo{
			ID:     uuid.NewString(),
			Mode:   string(l.mode),
			Length: l.Len(),
		},
		hooks:  hooks,
		logger: l.logger,
	}
	it.iters, _ = shape.TransformPath(l.sources, func(path string, s core.Source[T]) (core.Iterator[T], error) {
		if l.mode != MaxSizeCycle {
			return s.Iter(), nil
		}
		c := NewCycle(s, l.bound)
		c.leaf = shape.DisplayPath(path)
		c.onRestart = it.restarted
		return c.Iter(), nil
	})

	it.logger.Debug("pass started",
		zap.String("pass", it.pass.ID),
		zap.Stringer("length", it.pass.Length))
	it.hooks.PassStart(it.pass)
	return it
}

// Next fetches one item from every leaf and returns them in the shape of
// the source container. It returns core.ErrEndOfStream as soon as any leaf
// is exhausted, and on every call after that. A leaf error is returned once
// and ends the pass.
func (it *Iterator[T]) Next() (shape.Node[T], error) {
	if it.done {
		return shape.Node[T]{}, core.ErrEndOfStream
	}

	batch, err := shape.TransformPath(it.iters, func(path string, li core.Iterator[T]) (T, error) {
		v, err := li.Next()
		if err != nil && !errors.Is(err, core.ErrEndOfStream) {
			return v, fmt.Errorf("leaf %s: %w", shape.DisplayPath(path), err)
		}
		return v, err
	})
	if errors.Is(err, core.ErrEndOfStream) {
		it.finish()
		return shape.Node[T]{}, core.ErrEndOfStream
	}
	if err != nil {
		it.logger.Warn("pass failed",
			zap.String("pass", it.pass.ID),
			zap.Int("step", it.steps),
			zap.Error(err))
		it.hooks.Error(it.pass, err)
		if cerr := it.finish(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return shape.Node[T]{}, err
	}

	it.steps++
	it.hooks.Batch(it.pass, it.steps)
	return batch, nil
}

func (it *Iterator[T]) restarted(leaf string, n int) {
	it.logger.Debug("source restarted",
		zap.String("pass", it.pass.ID),
		zap.String("leaf", leaf),
		zap.Int("restarts", n))
	it.hooks.Restart(it.pass, leaf, n)
}

// Steps returns the number of items delivered so far.
func (it *Iterator[T]) Steps() int { return it.steps }

// Pass identifies this pass.
func (it *Iterator[T]) Pass() core.PassInfo { return it.pass }

// Close ends the pass early and releases leaf iterators that hold
// resources. It is a no-op for a finished pass.
func (it *Iterator[T]) Close() error {
	if it.done {
		return nil
	}
	return it.finish()
}

func (it *Iterator[T]) finish() error {
	it.done = true

	var errs []error
	for _, li := range it.iters.Leaves() {
		if closer, ok := li.(core.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	it.logger.Debug("pass ended",
		zap.String("pass", it.pass.ID),
		zap.Int("steps", it.steps))
	it.hooks.PassEnd(it.pass, it.steps)
	return errors.Join(errs...)
}
