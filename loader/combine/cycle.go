package combine

import (
	"errors"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

type cycleState uint8

const (
	cycleNotStarted cycleState = iota
	cycleActive
	cycleExhausted
)

// Cycle delivers items from a source, restarting the source whenever it
// runs out, until bound items have been delivered in the current pass.
// With an Unbounded bound it never stops on its own.
//
// A Cycle is its own Source: Iter restarts the pass and returns the Cycle.
// It must not be shared by concurrent passes; the combined loader builds a
// new Cycle per leaf for every pass.
type Cycle[T any] struct {
	source core.Source[T]
	bound  core.Length

	state     cycleState
	it        core.Iterator[T]
	delivered int
	restarts  int

	leaf      string
	onRestart func(leaf string, n int)
}

// NewCycle wraps source so that it yields exactly bound items per pass.
func NewCycle[T any](source core.Source[T], bound core.Length) *Cycle[T] {
	return &Cycle[T]{source: source, bound: bound}
}

// Start begins a new pass: the delivered count is reset and a fresh native
// iterator is created.
func (c *Cycle[T]) Start() {
	c.closeIter()
	c.delivered = 0
	c.restarts = 0
	c.it = c.source.Iter()
	c.state = cycleActive
}

// Iter starts a new pass and returns c.
func (c *Cycle[T]) Iter() core.Iterator[T] {
	c.Start()
	return c
}

// Len returns the bound.
func (c *Cycle[T]) Len() core.Length { return c.bound }

// Delivered returns the number of items delivered in the current pass.
func (c *Cycle[T]) Delivered() int { return c.delivered }

// Restarts returns how often the source was restarted in the current pass.
func (c *Cycle[T]) Restarts() int { return c.restarts }

// Next returns the next item, restarting the source if it is exhausted.
// It returns core.ErrEndOfStream once bound items were delivered, and an
// error matching loaderrors.ErrSourceUnderflow if a freshly restarted
// source yields nothing. After an underflow the pass is over.
func (c *Cycle[T]) Next() (T, error) {
	var zero T

	if c.state == cycleNotStarted {
		c.Start()
	}
	if c.state == cycleExhausted || core.Length(c.delivered) >= c.bound {
		c.state = cycleExhausted
		c.closeIter()
		return zero, core.ErrEndOfStream
	}

	item, err := c.it.Next()
	if errors.Is(err, core.ErrEndOfStream) {
		c.closeIter()
		c.it = c.source.Iter()
		c.restarts++
		if c.onRestart != nil {
			c.onRestart(c.leaf, c.restarts)
		}

		item, err = c.it.Next()
		if errors.Is(err, core.ErrEndOfStream) {
			c.state = cycleExhausted
			c.closeIter()
			return zero, &loaderrors.UnderflowError{Leaf: c.leaf}
		}
	}
	if err != nil {
		return zero, err
	}

	c.delivered++
	return item, nil
}

// Close releases the native iterator if it holds resources.
func (c *Cycle[T]) Close() error {
	c.state = cycleExhausted
	return c.closeIter()
}

func (c *Cycle[T]) closeIter() error {
	if c.it == nil {
		return nil
	}
	it := c.it
	c.it = nil
	if closer, ok := it.(core.Closer); ok {
		return closer.Close()
	}
	return nil
}
