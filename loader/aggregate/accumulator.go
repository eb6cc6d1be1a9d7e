package aggregate

// Accumulator keeps a running total for an unbounded mean.
type Accumulator[T Numeric] struct {
	n   int
	sum float64
}

// Accumulate adds v to the total.
func (a *Accumulator[T]) Accumulate(v T) {
	a.n++
	a.sum += float64(v)
}

// Count returns the number of accumulated values.
func (a *Accumulator[T]) Count() int { return a.n }

// Mean returns the mean of all accumulated values, or false if there are none.
func (a *Accumulator[T]) Mean() (float64, bool) {
	if a.n == 0 {
		return 0, false
	}
	return a.sum / float64(a.n), true
}
