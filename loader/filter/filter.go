// Package filter provides source wrappers that limit or select the items
// of a pass, such as capping the number of batches per epoch.
package filter

import (
	"github.com/lguimbarda/min-loader/loader/core"
)

// Limited yields at most n items of a source per pass.
type Limited[T any] struct {
	src core.Source[T]
	n   int
}

// Take limits every pass of src to its first n items. A negative n is
// treated as zero. The length is the smaller of n and the length of src.
func Take[T any](src core.Source[T], n int) *Limited[T] {
	return &Limited[T]{src: src, n: max(n, 0)}
}

func (l *Limited[T]) Len() core.Length {
	return min(core.Length(l.n), core.LenOf(l.src))
}

// Dataset forwards the dataset of the wrapped source.
func (l *Limited[T]) Dataset() any { return datasetOf(l.src) }

func (l *Limited[T]) Iter() core.Iterator[T] {
	return &takeIterator[T]{it: l.src.Iter(), left: l.n}
}

type takeIterator[T any] struct {
	it   core.Iterator[T]
	left int
}

func (t *takeIterator[T]) Next() (T, error) {
	if t.left <= 0 {
		var zero T
		return zero, core.ErrEndOfStream
	}
	v, err := t.it.Next()
	if err == nil {
		t.left--
	}
	return v, err
}

func (t *takeIterator[T]) Close() error { return closeIter(t.it) }

// Skipped drops the first n items of a source in every pass.
type Skipped[T any] struct {
	src core.Source[T]
	n   int
}

// Skip drops the first n items of every pass of src.
func Skip[T any](src core.Source[T], n int) *Skipped[T] {
	return &Skipped[T]{src: src, n: max(n, 0)}
}

func (s *Skipped[T]) Len() core.Length {
	n := core.LenOf(s.src)
	if n.IsUnbounded() {
		return n
	}
	return max(n-core.Length(s.n), 0)
}

// Dataset forwards the dataset of the wrapped source.
func (s *Skipped[T]) Dataset() any { return datasetOf(s.src) }

func (s *Skipped[T]) Iter() core.Iterator[T] {
	return &skipIterator[T]{it: s.src.Iter(), skip: s.n}
}

type skipIterator[T any] struct {
	it   core.Iterator[T]
	skip int
}

func (s *skipIterator[T]) Next() (T, error) {
	for ; s.skip > 0; s.skip-- {
		if v, err := s.it.Next(); err != nil {
			return v, err
		}
	}
	return s.it.Next()
}

func (s *skipIterator[T]) Close() error { return closeIter(s.it) }

// Where yields only the items of src for which predicate returns true.
// The resulting source has no length of its own.
func Where[T any](src core.Source[T], predicate func(T) bool) core.Source[T] {
	return core.SourceFunc[T](func() core.Iterator[T] {
		return &whereIterator[T]{it: src.Iter(), predicate: predicate}
	})
}

type whereIterator[T any] struct {
	it        core.Iterator[T]
	predicate func(T) bool
}

func (w *whereIterator[T]) Next() (T, error) {
	for {
		v, err := w.it.Next()
		if err != nil || w.predicate(v) {
			return v, err
		}
	}
}

func (w *whereIterator[T]) Close() error { return closeIter(w.it) }

func closeIter(it any) error {
	if c, ok := it.(core.Closer); ok {
		return c.Close()
	}
	return nil
}

func datasetOf(src any) any {
	if p, ok := src.(core.DatasetProvider); ok {
		return p.Dataset()
	}
	return nil
}
