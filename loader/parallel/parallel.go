// Package parallel provides source wrappers that load items in background
// goroutines while the consumer works on the current step.
//
// Wrapped iterators own goroutines until the pass is exhausted or closed;
// an abandoned pass must be closed to release them. The combined loader
// closes its leaves when a pass ends.
package parallel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lguimbarda/min-loader/loader/core"
)

// PanicError is returned when a mapper panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: mapper panicked: %v", e.Value)
}

// Mapped applies a function to the items of a source in worker goroutines.
type Mapped[IN, OUT any] struct {
	src     core.Source[IN]
	workers int
	depth   int
	mapper  func(IN) (OUT, error)
}

// Map applies mapper to the items of src using n workers. Up to 2*n items
// are read ahead; results keep the order of src. If n <= 0, defaults to 1
// worker. The length of src is kept.
func Map[IN, OUT any](src core.Source[IN], n int, mapper func(IN) (OUT, error)) *Mapped[IN, OUT] {
	if n <= 0 {
		n = 1
	}
	return &Mapped[IN, OUT]{src: src, workers: n, depth: 2 * n, mapper: mapper}
}

// Prefetch reads up to depth items of src ahead of the consumer in one
// background goroutine. If depth <= 0, defaults to 1.
func Prefetch[T any](src core.Source[T], depth int) *Mapped[T, T] {
	if depth <= 0 {
		depth = 1
	}
	return &Mapped[T, T]{src: src, workers: 1, depth: depth, mapper: func(v T) (T, error) { return v, nil }}
}

func (m *Mapped[IN, OUT]) Len() core.Length { return core.LenOf(m.src) }

// Dataset forwards the dataset of the wrapped source.
func (m *Mapped[IN, OUT]) Dataset() any {
	if p, ok := m.src.(core.DatasetProvider); ok {
		return p.Dataset()
	}
	return nil
}

// Iter starts the background goroutines for a new pass.
func (m *Mapped[IN, OUT]) Iter() core.Iterator[OUT] {
	return start(m.src.Iter(), m.workers, m.depth, m.mapper)
}

type future[T any] struct {
	value T
	err   error
	ready chan struct{}
}

type job[IN, OUT any] struct {
	in  IN
	out *future[OUT]
}

type pipeline[OUT any] struct {
	futures  chan *future[OUT]
	done     chan struct{}
	wg       sync.WaitGroup
	closeErr error
	closed   bool
}

func start[IN, OUT any](it core.Iterator[IN], workers, depth int, mapper func(IN) (OUT, error)) *pipeline[OUT] {
	p := &pipeline[OUT]{
		futures: make(chan *future[OUT], depth),
		done:    make(chan struct{}),
	}
	jobs := make(chan job[IN, OUT], depth)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for j := range jobs {
				j.out.value, j.out.err = safeApply(mapper, j.in)
				close(j.out.ready)
			}
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(p.futures)
		defer close(jobs)
		defer func() {
			if c, ok := it.(core.Closer); ok {
				p.closeErr = c.Close()
			}
		}()

		for {
			in, err := it.Next()
			f := &future[OUT]{ready: make(chan struct{})}
			if err != nil {
				f.err = err
				close(f.ready)
				select {
				case p.futures <- f:
				case <-p.done:
				}
				return
			}

			select {
			case p.futures <- f:
			case <-p.done:
				return
			}
			select {
			case jobs <- job[IN, OUT]{in: in, out: f}:
			case <-p.done:
				return
			}
		}
	}()

	return p
}

func safeApply[IN, OUT any](mapper func(IN) (OUT, error), v IN) (out OUT, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return mapper(v)
}

func (p *pipeline[OUT]) Next() (OUT, error) {
	var zero OUT
	if p.closed {
		return zero, core.ErrEndOfStream
	}
	f, ok := <-p.futures
	if !ok {
		return zero, core.ErrEndOfStream
	}
	<-f.ready
	if errors.Is(f.err, core.ErrEndOfStream) {
		if err := p.Close(); err != nil {
			return zero, err
		}
		return zero, core.ErrEndOfStream
	}
	return f.value, f.err
}

// Close stops the background goroutines, waits for them and closes the
// wrapped iterator.
func (p *pipeline[OUT]) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	p.wg.Wait()
	return p.closeErr
}
