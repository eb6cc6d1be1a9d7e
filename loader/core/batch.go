package core

import "errors"

// BatchCount returns the number of batches of size items that n items
// make, counting a final short batch unless dropLast is set.
func BatchCount(n, size int, dropLast bool) Length {
	if dropLast {
		return Length(n / size)
	}
	return Length((n + size - 1) / size)
}

// Batch groups the items of it into slices of size items. The final short
// batch is returned unless dropLast is set. An error from it ends the
// current batch; its items are discarded. size must be positive.
func Batch[T any](it Iterator[T], size int, dropLast bool) Iterator[[]T] {
	return &batchIterator[T]{it: it, size: size, dropLast: dropLast}
}

type batchIterator[T any] struct {
	it       Iterator[T]
	size     int
	dropLast bool
	done     bool
}

func (b *batchIterator[T]) Next() ([]T, error) {
	if b.done {
		return nil, ErrEndOfStream
	}
	batch := make([]T, 0, b.size)
	for len(batch) < b.size {
		item, err := b.it.Next()
		if errors.Is(err, ErrEndOfStream) {
			b.done = true
			if len(batch) == 0 || b.dropLast {
				return nil, ErrEndOfStream
			}
			return batch, nil
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, item)
	}
	return batch, nil
}

func (b *batchIterator[T]) Close() error {
	b.done = true
	if c, ok := b.it.(Closer); ok {
		return c.Close()
	}
	return nil
}
