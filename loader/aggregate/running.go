package aggregate

import (
	"github.com/samber/lo"

	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// RunningAccum tracks min, max and mean over the last window values.
//
//	acc, _ := aggregate.NewRunningAccum[float64](5)
//	for i := range 13 {
//		acc.Append(float64(i))
//	}
//	acc.Last() // 12
//	acc.Mean() // 10
//	acc.Min()  // 8
//	acc.Max()  // 12
type RunningAccum[T Numeric] struct {
	window  int
	memory  []T
	cursor  int
	lastIdx int // -1 before the first append
	rotated bool
}

// NewRunningAccum creates an empty accumulator over window values.
func NewRunningAccum[T Numeric](window int) (*RunningAccum[T], error) {
	if window < 1 {
		return nil, loaderrors.Configuration("window", window, "must be at least 1")
	}
	return &RunningAccum[T]{window: window, lastIdx: -1}, nil
}

// Window returns the window size.
func (a *RunningAccum[T]) Window() int { return a.window }

// Reset empties the accumulator, keeping the window size.
func (a *RunningAccum[T]) Reset() {
	*a = RunningAccum[T]{window: a.window, lastIdx: -1}
}

// Append stores v, overwriting the oldest value once the window is full.
func (a *RunningAccum[T]) Append(v T) {
	if a.memory == nil {
		a.memory = make([]T, a.window)
	}
	a.memory[a.cursor] = v
	a.lastIdx = a.cursor

	a.cursor = (a.cursor + 1) % a.window
	if a.cursor == 0 {
		a.rotated = true
	}
}

// Len returns the number of values aggregates are computed over.
func (a *RunningAccum[T]) Len() int {
	return len(a.valid())
}

// Last returns the most recently appended value.
func (a *RunningAccum[T]) Last() (T, bool) {
	if a.lastIdx < 0 {
		var zero T
		return zero, false
	}
	return a.memory[a.lastIdx], true
}

// Mean returns the mean of the values in the window.
func (a *RunningAccum[T]) Mean() (float64, bool) {
	values := a.valid()
	if len(values) == 0 {
		return 0, false
	}
	return meanOf(values), true
}

// Min returns the smallest value in the window.
func (a *RunningAccum[T]) Min() (T, bool) {
	values := a.valid()
	return lo.Min(values), len(values) > 0
}

// Max returns the largest value in the window.
func (a *RunningAccum[T]) Max() (T, bool) {
	values := a.valid()
	return lo.Max(values), len(values) > 0
}

// valid returns the slots holding values: all of them once the buffer has
// wrapped, otherwise those before the cursor.
func (a *RunningAccum[T]) valid() []T {
	if a.rotated {
		return a.memory
	}
	return a.memory[:a.cursor]
}
