// Package loader combines several batch sources into one synchronized
// iteration for training and validation loops.
//
// This package is the primary user-facing API: leaf sources, the combined
// loader constructor and aliases for the types most callers need. The
// loader/combine package holds the combination machinery, loader/shape the
// nested container type, and loader/aggregate the running statistics used
// to smooth metrics between steps.
package loader

import (
	"github.com/lguimbarda/min-loader/loader/combine"
	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/shape"
)

// Type aliases for the core abstractions.
type (
	// Iterator is a single-pass, pull-based producer of items.
	Iterator[T any] = core.Iterator[T]

	// Source produces a fresh Iterator for every pass.
	Source[T any] = core.Source[T]

	// Length is the number of items a source yields per pass.
	Length = core.Length

	// Node is a leaf, a sequence or a mapping of nodes.
	Node[T any] = shape.Node[T]

	// Loader combines the leaves of a source container.
	Loader[T any] = combine.Loader[T]

	// Mode selects how sources of different lengths are aligned.
	Mode = combine.Mode
)

const (
	// Unbounded is the length of a source without a finite size.
	Unbounded = core.Unbounded

	MinSize      = combine.MinSize
	MaxSizeCycle = combine.MaxSizeCycle
)

// ErrEndOfStream signals the end of a pass.
var ErrEndOfStream = core.ErrEndOfStream

// Combine builds a combined loader over sources.
func Combine[T any](sources Node[Source[T]], mode Mode, opts ...combine.Option) (*Loader[T], error) {
	return combine.New(sources, mode, opts...)
}

// One wraps a single source.
func One[T any](s Source[T]) Node[Source[T]] {
	return shape.Leaf(s)
}

// Sequence combines sources in order; batches are shaped as sequences.
func Sequence[T any](sources ...Source[T]) Node[Source[T]] {
	return shape.SeqOf(sources...)
}

// Named combines sources by name; batches are shaped as mappings.
func Named[T any](sources map[string]Source[T]) Node[Source[T]] {
	return shape.MapOf(sources)
}
