package aggregate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// ErrShapeMismatch is returned when a vector does not match the size of
// the vectors already stored.
var ErrShapeMismatch = errors.New("shape mismatch")

// TensorRunningAccum is RunningAccum for fixed-size vectors such as
// per-class losses. The vector size is set by the first Append. Values are
// copied on store, so callers may reuse their buffers. Aggregates are taken
// over every element of every stored vector.
type TensorRunningAccum struct {
	window  int
	size    int
	memory  []float64 // window rows of size elements
	cursor  int
	lastIdx int
	rotated bool
}

// NewTensorRunningAccum creates an empty accumulator over window vectors.
func NewTensorRunningAccum(window int) (*TensorRunningAccum, error) {
	if window < 1 {
		return nil, loaderrors.Configuration("window", window, "must be at least 1")
	}
	return &TensorRunningAccum{window: window, lastIdx: -1}, nil
}

// Reset empties the accumulator, keeping the window size. The vector size
// is chosen again by the next Append.
func (a *TensorRunningAccum) Reset() {
	*a = TensorRunningAccum{window: a.window, lastIdx: -1}
}

// Append stores a copy of v. It fails if v is empty or its size differs
// from the first appended vector.
func (a *TensorRunningAccum) Append(v []float64) error {
	if a.memory == nil {
		if len(v) == 0 {
			return loaderrors.Configuration("value", v, "must have at least one element")
		}
		a.size = len(v)
		a.memory = make([]float64, a.window*a.size)
	}
	if len(v) != a.size {
		return fmt.Errorf("%w: got %d elements, want %d", ErrShapeMismatch, len(v), a.size)
	}

	copy(a.row(a.cursor), v)
	a.lastIdx = a.cursor

	a.cursor = (a.cursor + 1) % a.window
	if a.cursor == 0 {
		a.rotated = true
	}
	return nil
}

// Size returns the vector size, or 0 before the first Append.
func (a *TensorRunningAccum) Size() int { return a.size }

// Last returns a copy of the most recently appended vector.
func (a *TensorRunningAccum) Last() ([]float64, bool) {
	if a.lastIdx < 0 {
		return nil, false
	}
	return slices.Clone(a.row(a.lastIdx)), true
}

func (a *TensorRunningAccum) Mean() (float64, bool) {
	values := a.valid()
	if len(values) == 0 {
		return 0, false
	}
	return meanOf(values), true
}

func (a *TensorRunningAccum) Min() (float64, bool) {
	values := a.valid()
	return lo.Min(values), len(values) > 0
}

func (a *TensorRunningAccum) Max() (float64, bool) {
	values := a.valid()
	return lo.Max(values), len(values) > 0
}

func (a *TensorRunningAccum) row(i int) []float64 {
	return a.memory[i*a.size : (i+1)*a.size]
}

func (a *TensorRunningAccum) valid() []float64 {
	if a.rotated {
		return a.memory
	}
	return a.memory[:a.cursor*a.size]
}
