package loader

import (
	"iter"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// SliceSource yields the elements of a slice, one per step.
type SliceSource[T any] struct {
	items []T
}

// FromSlice creates a sized source over items. The slice is not copied.
func FromSlice[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

func (s *SliceSource[T]) Iter() Iterator[T] { return core.NewSliceIterator(s.items) }
func (s *SliceSource[T]) Len() Length       { return Length(len(s.items)) }

// At returns the i-th element.
func (s *SliceSource[T]) At(i int) T { return s.items[i] }

// Empty creates a source that yields nothing.
func Empty[T any]() *SliceSource[T] {
	return FromSlice[T](nil)
}

// BatchSource groups the elements of a dataset into fixed-size batches.
type BatchSource[T any] struct {
	dataset  *SliceSource[T]
	size     int
	dropLast bool
}

// Batched creates a source of batches of size elements. The final, shorter
// batch is kept unless dropLast is set.
func Batched[T any](items []T, size int, dropLast bool) (*BatchSource[T], error) {
	if size < 1 {
		return nil, loaderrors.Configuration("batch size", size, "must be at least 1")
	}
	return &BatchSource[T]{dataset: FromSlice(items), size: size, dropLast: dropLast}, nil
}

// Len returns the number of batches per pass.
func (b *BatchSource[T]) Len() Length {
	return core.BatchCount(len(b.dataset.items), b.size, b.dropLast)
}

// Dataset returns the batched elements as a sized source.
func (b *BatchSource[T]) Dataset() any { return b.dataset }

func (b *BatchSource[T]) Iter() Iterator[[]T] {
	items := b.dataset.items
	batches := int(b.Len())
	next := 0
	return core.IteratorFunc[[]T](func() ([]T, error) {
		if next >= batches {
			return nil, core.ErrEndOfStream
		}
		start := next * b.size
		end := min(start+b.size, len(items))
		next++
		return items[start:end:end], nil
	})
}

// Range creates a source of the integers in [start, end).
func Range(start, end int) Source[int] {
	n := max(end-start, 0)
	return WithLen[int](core.SourceFunc[int](func() Iterator[int] {
		i := start
		return core.IteratorFunc[int](func() (int, error) {
			if i >= end {
				return 0, core.ErrEndOfStream
			}
			i++
			return i - 1, nil
		})
	}), Length(n))
}

// Repeat creates a source that yields value n times per pass.
// If n is negative, the source is unbounded.
func Repeat[T any](value T, n int) Source[T] {
	src := core.SourceFunc[T](func() Iterator[T] {
		count := 0
		return core.IteratorFunc[T](func() (T, error) {
			if n >= 0 && count >= n {
				var zero T
				return zero, core.ErrEndOfStream
			}
			count++
			return value, nil
		})
	})
	if n < 0 {
		return src
	}
	return WithLen[T](src, Length(n))
}

// Generate creates an unbounded source that calls fn for every item.
// fn returns the next value and true, or false to end the current pass.
// The same fn serves every pass, so stateful generators continue where
// the previous pass stopped.
func Generate[T any](fn func() (T, bool, error)) Source[T] {
	return core.SourceFunc[T](func() Iterator[T] {
		return core.IteratorFunc[T](func() (T, error) {
			v, ok, err := fn()
			if err != nil {
				var zero T
				return zero, err
			}
			if !ok {
				var zero T
				return zero, core.ErrEndOfStream
			}
			return v, nil
		})
	})
}

// FromSeq creates an unbounded source from an iterator sequence. Each pass
// ranges over seq from the start.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return core.SourceFunc[T](func() Iterator[T] {
		next, stop := iter.Pull(seq)
		return &pullIterator[T]{next: next, stop: stop}
	})
}

type pullIterator[T any] struct {
	next func() (T, bool)
	stop func()
}

func (p *pullIterator[T]) Next() (T, error) {
	v, ok := p.next()
	if !ok {
		return v, core.ErrEndOfStream
	}
	return v, nil
}

func (p *pullIterator[T]) Close() error {
	p.stop()
	return nil
}

// SizedSource attaches a length to a source that cannot report one.
type SizedSource[T any] struct {
	Source[T]
	n Length
}

// WithLen reports n as the length of src.
func WithLen[T any](src Source[T], n Length) *SizedSource[T] {
	return &SizedSource[T]{Source: src, n: n}
}

func (s *SizedSource[T]) Len() Length { return s.n }
