package core

// Iterator is a single-pass, pull-based producer of items.
// Next returns ErrEndOfStream once the iterator is exhausted; any other
// error is a failure of the underlying source.
type Iterator[T any] interface {
	Next() (T, error)
}

// Source is anything that can be iterated repeatedly. Every call to Iter
// returns a fresh iterator positioned at the first item.
type Source[T any] interface {
	Iter() Iterator[T]
}

// Sized is implemented by sources that know how many items one pass yields.
// Sources without it are treated as Unbounded.
type Sized interface {
	Len() Length
}

// DatasetProvider is implemented by sources that batch an underlying
// dataset. The dataset is used for length statistics only.
type DatasetProvider interface {
	Dataset() any
}

// Closer is implemented by iterators holding resources that must be
// released when a pass ends early.
type Closer interface {
	Close() error
}

// IteratorFunc adapts a function to the Iterator interface.
type IteratorFunc[T any] func() (T, error)

func (f IteratorFunc[T]) Next() (T, error) {
	return f()
}

// SourceFunc adapts an iterator factory to the Source interface.
// A SourceFunc has no length of its own; see Sized.
type SourceFunc[T any] func() Iterator[T]

func (f SourceFunc[T]) Iter() Iterator[T] {
	return f()
}

// SliceIterator iterates over a fixed slice of items.
type SliceIterator[T any] struct {
	items []T
	pos   int
}

// NewSliceIterator creates an iterator over items. The slice is not copied.
func NewSliceIterator[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (it *SliceIterator[T]) Next() (T, error) {
	if it.pos >= len(it.items) {
		var zero T
		return zero, ErrEndOfStream
	}
	item := it.items[it.pos]
	it.pos++
	return item, nil
}
