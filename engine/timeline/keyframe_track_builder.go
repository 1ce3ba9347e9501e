package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/fogleman/ease"
)

// EasingFunc reshapes a linear interpolation factor in [0, 1]. It must map 0 to 0 and 1 to 1.
type EasingFunc func(float64) float64

// EaseLinear leaves the factor unchanged.
var EaseLinear EasingFunc = ease.Linear

var easings = map[string]EasingFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
}

// EasingByName returns the named easing function. An empty name resolves to linear.
//
// Parameters:
//   - name: one of the names returned by EasingNames, case-insensitive
//
// Returns:
//   - EasingFunc: the easing function
//   - error: a common.ErrConfiguration error if the name is unknown
func EasingByName(name string) (EasingFunc, error) {
	if name == "" {
		return EaseLinear, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown easing %q", common.ErrConfiguration, name)
	}
	return fn, nil
}

// EasingNames returns the supported easing names in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type trackOptions struct {
	easing EasingFunc
}

// TrackBuilderOption is a function that configures a KeyframeTrack during construction.
type TrackBuilderOption func(*trackOptions)

// WithEasing sets the easing applied to the interpolation factor between keyframes.
// A nil function keeps the default linear easing.
//
// Parameters:
//   - fn: the easing function
//
// Returns:
//   - TrackBuilderOption: a function that applies the easing option
func WithEasing(fn EasingFunc) TrackBuilderOption {
	return func(o *trackOptions) {
		if fn != nil {
			o.easing = fn
		}
	}
}
