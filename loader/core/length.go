package core

import (
	"math"
	"strconv"
)

// Length is the number of items a source yields in one pass.
type Length int

// Unbounded is the length of a source that never reports a finite size.
// It is the largest representable Length, so min and max over lengths
// treat it correctly without special cases: it wins max and loses min
// against any bounded length.
const Unbounded Length = math.MaxInt

// IsUnbounded reports whether l represents an unknown, infinite length.
func (l Length) IsUnbounded() bool {
	return l == Unbounded
}

// Len makes a Length its own Sized, so a plain count can describe a dataset.
func (l Length) Len() Length { return l }

func (l Length) String() string {
	if l.IsUnbounded() {
		return "unbounded"
	}
	return strconv.Itoa(int(l))
}

// LenOf returns the length reported by v if it implements Sized,
// and Unbounded otherwise (including for nil).
func LenOf(v any) Length {
	if s, ok := v.(Sized); ok && s != nil {
		return s.Len()
	}
	return Unbounded
}
