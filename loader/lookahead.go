package loader

import (
	"errors"

	"github.com/lguimbarda/min-loader/loader/core"
)

// Flagged is an item together with whether it is the final item of the pass.
type Flagged[T any] struct {
	Value T
	Last  bool
}

// lookahead keeps one item buffered so it can tell whether the current item
// is the last one.
type lookahead[T any] struct {
	it      Iterator[T]
	pending T
	primed  bool
	done    bool
}

// WithIsLast wraps src so that every item reports whether it ends the pass.
// Training loops use this to run end-of-epoch work on the final batch.
// The length of src is kept.
func WithIsLast[T any](src Source[T]) Source[Flagged[T]] {
	inner := core.SourceFunc[Flagged[T]](func() Iterator[Flagged[T]] {
		return &lookahead[T]{it: src.Iter()}
	})
	if sized, ok := src.(core.Sized); ok {
		return WithLen[Flagged[T]](inner, sized.Len())
	}
	return inner
}

func (l *lookahead[T]) Next() (Flagged[T], error) {
	if l.done {
		return Flagged[T]{}, core.ErrEndOfStream
	}
	if !l.primed {
		v, err := l.it.Next()
		if err != nil {
			l.done = errors.Is(err, core.ErrEndOfStream)
			return Flagged[T]{}, err
		}
		l.pending, l.primed = v, true
	}

	current := l.pending
	next, err := l.it.Next()
	switch {
	case errors.Is(err, core.ErrEndOfStream):
		l.done = true
		return Flagged[T]{Value: current, Last: true}, nil
	case err != nil:
		return Flagged[T]{}, err
	}
	l.pending = next
	return Flagged[T]{Value: current}, nil
}

func (l *lookahead[T]) Close() error {
	if closer, ok := l.it.(core.Closer); ok {
		return closer.Close()
	}
	return nil
}
