// Package core defines the shared protocol of the loader packages: the
// pull-based Iterator and Source contracts, lengths (including the
// Unbounded sentinel), lifecycle hooks, and the channel-based Stream view
// used to hand a combined pass to stream consumers.
//
// NOTE: this package should have no dependencies outside the standard
// library, including other loader packages.
package core

import (
	"context"
	"iter"
)

// Stream represents a flow of data delivered over a channel of Results.
// It is the push-style counterpart of Iterator: a combined loader exposes
// one so that a pass can be consumed by channel-oriented code.
type Stream[OUT any] interface {
	Emit(context.Context) <-chan Result[OUT]

	Collect(context.Context) []Result[OUT]
	All(context.Context) iter.Seq[Result[OUT]]
}

func Collect[OUT any](ctx context.Context, stream Stream[OUT]) []Result[OUT] {
	var results []Result[OUT]
	for res := range stream.Emit(ctx) {
		results = append(results, res)
	}
	return results
}

func All[OUT any](ctx context.Context, stream Stream[OUT]) iter.Seq[Result[OUT]] {
	return func(yield func(Result[OUT]) bool) {
		for res := range stream.Emit(ctx) {
			if !yield(res) {
				return
			}
		}
	}
}
