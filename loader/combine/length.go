package combine

import (
	"fmt"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
	"github.com/lguimbarda/min-loader/loader/shape"
)

// LengthOf resolves a single length for a possibly nested container.
// Each leaf reports its own length (Unbounded if it is not core.Sized);
// siblings are then combined with min for MinSize and max for MaxSizeCycle,
// innermost containers first. The result is a scalar whatever the shape.
func LengthOf[S any](sources shape.Node[S], mode Mode) (core.Length, error) {
	if err := mode.Validate(); err != nil {
		return 0, err
	}
	if path, ok := sources.Empty(); ok {
		return 0, loaderrors.Configuration("sources", nil,
			fmt.Sprintf("container at %s is empty", shape.DisplayPath(path)))
	}
	return shape.Reduce(sources, func(s S) core.Length { return core.LenOf(s) }, mode.reduce), nil
}
