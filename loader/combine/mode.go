package combine

import (
	"github.com/samber/lo"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// Mode selects how sources of different lengths are aligned.
type Mode string

const (
	// MinSize stops a pass as soon as the shortest source is exhausted.
	MinSize Mode = "min_size"

	// MaxSizeCycle runs a pass for as many steps as the longest source,
	// restarting shorter sources as they run out.
	MaxSizeCycle Mode = "max_size_cycle"
)

// Modes lists the supported modes.
var Modes = []Mode{MinSize, MaxSizeCycle}

// ParseMode converts s into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate returns a configuration error unless m is a supported mode.
func (m Mode) Validate() error {
	if !lo.Contains(Modes, m) {
		return loaderrors.Configuration("mode", string(m), "select one of min_size, max_size_cycle")
	}
	return nil
}

func (m Mode) String() string { return string(m) }

// reduce combines sibling lengths: min for MinSize, max for MaxSizeCycle.
func (m Mode) reduce(lengths []core.Length) core.Length {
	if m == MaxSizeCycle {
		return lo.Max(lengths)
	}
	return lo.Min(lengths)
}
