package core

import (
	"context"
	"errors"
)

// Terminal functions are sinks that consume a stream or an iterator
// and produce a final result.

func Slice[OUT any](ctx context.Context, in Stream[OUT]) ([]OUT, error) {
	// Cancel on return so the producer stops after an error.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result []OUT
	for res := range in.Emit(ctx) {
		if res.IsError() {
			return nil, res.Error()
		}
		if res.IsSentinel() {
			continue
		}
		result = append(result, res.Value())
	}
	return result, nil
}

func Run[OUT any](ctx context.Context, in Stream[OUT]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for res := range in.Emit(ctx) {
		if res.IsError() {
			return res.Error()
		}
	}
	return nil
}

// Drain pulls every item from it until it reports ErrEndOfStream.
// Any other error stops the drain and is returned with the items
// collected so far.
func Drain[T any](it Iterator[T]) ([]T, error) {
	var items []T
	for {
		item, err := it.Next()
		if errors.Is(err, ErrEndOfStream) {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}
