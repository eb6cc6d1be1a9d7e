// Package benchmarks compares combined iteration with popular Go
// collection and stream processing libraries.
package benchmarks

import (
	"context"
	"testing"

	"github.com/lguimbarda/min-loader/loader"
)

// Test data sizes
const (
	SmallSize  = 100
	MediumSize = 1_000
	LargeSize  = 10_000
)

// Batch size used by the batching benchmarks.
const batchSize = 32

var ctx = context.Background()

// generateInts creates a slice of integers for benchmarking.
func generateInts(n int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	return data
}

// square returns the square of an integer.
func square(x int) int {
	return x * x
}

func squareWithErr(x int) (int, error) {
	return x * x, nil
}

// drainLoader runs one pass and fails the benchmark on error.
func drainLoader[T any](b *testing.B, l *loader.Loader[T]) int {
	n := 0
	for _, err := range l.All(ctx) {
		if err != nil {
			b.Fatal(err)
		}
		n++
	}
	return n
}
