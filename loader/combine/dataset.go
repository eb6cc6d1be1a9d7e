package combine

import (
	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/shape"
)

// Dataset describes the datasets behind a combined loader. Its lengths count
// dataset items rather than batches and are used for statistics only.
// Datasets that do not report a length, including missing ones, count
// as Unbounded.
type Dataset struct {
	datasets shape.Node[any]
	mode     Mode
}

// NewDataset validates mode and describes datasets.
func NewDataset(datasets shape.Node[any], mode Mode) (*Dataset, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	return &Dataset{datasets: datasets, mode: mode}, nil
}

// datasetsOf extracts the dataset of every leaf; leaves that are not a
// core.DatasetProvider map to nil.
func datasetsOf[T any](sources shape.Node[core.Source[T]]) shape.Node[any] {
	out, _ := shape.Transform(sources, func(s core.Source[T]) (any, error) {
		if p, ok := s.(core.DatasetProvider); ok {
			return p.Dataset(), nil
		}
		return nil, nil
	})
	return out
}

// Datasets returns the described datasets, shaped like the sources.
func (d *Dataset) Datasets() shape.Node[any] { return d.datasets }

// Mode returns the mode used by Len.
func (d *Dataset) Mode() Mode { return d.mode }

// MinLen returns the length of the smallest dataset.
func (d *Dataset) MinLen() core.Length { return d.lengthBy(MinSize) }

// MaxLen returns the length of the largest dataset.
func (d *Dataset) MaxLen() core.Length { return d.lengthBy(MaxSizeCycle) }

// Len returns MinLen or MaxLen according to the mode.
func (d *Dataset) Len() core.Length { return d.lengthBy(d.mode) }

func (d *Dataset) lengthBy(mode Mode) core.Length {
	n, err := LengthOf(d.datasets, mode)
	if err != nil {
		// Only reachable for empty containers, which describe no data.
		return 0
	}
	return n
}
