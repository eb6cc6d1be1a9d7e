// Package aggregate provides running statistics for smoothing training
// metrics between steps.
//
// RunningAccum keeps a fixed window of the most recent scalar values;
// TensorRunningAccum does the same for fixed-shape vectors; Accumulator
// keeps an unbounded running mean. None of them are safe for concurrent
// use.
package aggregate

// Numeric is a constraint for numeric types that support arithmetic operations.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// meanOf returns the arithmetic mean of values in float64. values must not
// be empty.
func meanOf[T Numeric](values []T) float64 {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}
