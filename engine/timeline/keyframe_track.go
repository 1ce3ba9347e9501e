package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Keyframe is a timestamped sample. TimeMs is in channel-local milliseconds.
type Keyframe[T any] struct {
	TimeMs float64
	Value  T
}

// LerpFunc interpolates between a and b by factor f in [0, 1].
type LerpFunc[T any] func(a, b T, f float64) T

// Sample is the result of querying a track at a point in time: the bracketing keyframe values,
// the (eased) interpolation factor between them and the interpolated value.
type Sample[T any] struct {
	Start, End T
	Factor     float64
	Value      T
}

// keyframeTrack is the implementation of the KeyframeTrack interface.
type keyframeTrack[T any] struct {
	keys   []Keyframe[T]
	lerp   LerpFunc[T]
	easing EasingFunc

	// hint is the bracket found by the last query. Playback queries are monotonic within a
	// cycle so the next bracket is almost always the same one or the one after it.
	hint int
}

// KeyframeTrack holds an immutable, strictly time-ordered keyframe sequence and produces
// interpolated values for any query time. Query times outside the keyframe range are clamped
// to the nearest boundary, there is no extrapolation.
type KeyframeTrack[T any] interface {
	// Evaluate returns the interpolated value at timeMs.
	//
	// Parameters:
	//   - timeMs: the query time in milliseconds
	//
	// Returns:
	//   - T: the interpolated value
	Evaluate(timeMs float64) T

	// Bracket returns the keyframe values surrounding timeMs and the interpolation factor between
	// them. Consumers that need their own interpolation (e.g. angle wrap-around) use this instead
	// of Evaluate.
	//
	// Parameters:
	//   - timeMs: the query time in milliseconds
	//
	// Returns:
	//   - start: the value of the keyframe at or before timeMs
	//   - end: the value of the keyframe at or after timeMs
	//   - factor: the eased interpolation factor in [0, 1]
	Bracket(timeMs float64) (start, end T, factor float64)

	// Sample returns the bracket, factor and interpolated value at timeMs in one lookup.
	//
	// Parameters:
	//   - timeMs: the query time in milliseconds
	//
	// Returns:
	//   - Sample[T]: the sampled track state
	Sample(timeMs float64) Sample[T]

	// Keyframes returns a copy of the track's keyframes.
	//
	// Returns:
	//   - []Keyframe[T]: the keyframes in time order
	Keyframes() []Keyframe[T]

	// StartMs returns the time of the first keyframe.
	StartMs() float64

	// EndMs returns the time of the last keyframe.
	EndMs() float64
}

var _ KeyframeTrack[float64] = &keyframeTrack[float64]{}

// NewKeyframeTrack creates a track from the given keyframes. The keyframes are copied.
//
// Parameters:
//   - lerp: the interpolation function for T
//   - keys: the keyframes, strictly increasing in time, all times >= 0
//   - options: variadic list of TrackBuilderOption functions to configure the track
//
// Returns:
//   - KeyframeTrack[T]: the new track
//   - error: a common.ErrConfiguration error when keys is empty, a time is negative or not increasing, or lerp is nil
func NewKeyframeTrack[T any](lerp LerpFunc[T], keys []Keyframe[T], options ...TrackBuilderOption) (KeyframeTrack[T], error) {
	if lerp == nil {
		return nil, fmt.Errorf("%w: keyframe track requires an interpolation function", common.ErrConfiguration)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: keyframe track requires at least one keyframe", common.ErrConfiguration)
	}
	for i, k := range keys {
		if math.IsNaN(k.TimeMs) || math.IsInf(k.TimeMs, 0) || k.TimeMs < 0 {
			return nil, fmt.Errorf("%w: keyframe %d has invalid time %v", common.ErrConfiguration, i, k.TimeMs)
		}
		if i > 0 && k.TimeMs <= keys[i-1].TimeMs {
			return nil, fmt.Errorf("%w: keyframe %d time %v is not after %v", common.ErrConfiguration, i, k.TimeMs, keys[i-1].TimeMs)
		}
	}

	opts := trackOptions{easing: EaseLinear}
	for _, opt := range options {
		opt(&opts)
	}

	t := &keyframeTrack[T]{
		keys:   make([]Keyframe[T], len(keys)),
		lerp:   lerp,
		easing: opts.easing,
	}
	copy(t.keys, keys)
	return t, nil
}

// NewScalarTrack creates a float64 track interpolated linearly between keyframes.
//
// Parameters:
//   - keys: the keyframes
//   - options: variadic list of TrackBuilderOption functions to configure the track
//
// Returns:
//   - KeyframeTrack[float64]: the new track
//   - error: a common.ErrConfiguration error for invalid keyframes
func NewScalarTrack(keys []Keyframe[float64], options ...TrackBuilderOption) (KeyframeTrack[float64], error) {
	return NewKeyframeTrack(LerpFloat64, keys, options...)
}

// NewVec3Track creates a vector track interpolated component-wise between keyframes.
//
// Parameters:
//   - keys: the keyframes
//   - options: variadic list of TrackBuilderOption functions to configure the track
//
// Returns:
//   - KeyframeTrack[mgl32.Vec3]: the new track
//   - error: a common.ErrConfiguration error for invalid keyframes
func NewVec3Track(keys []Keyframe[mgl32.Vec3], options ...TrackBuilderOption) (KeyframeTrack[mgl32.Vec3], error) {
	return NewKeyframeTrack(LerpVec3, keys, options...)
}

// NewCycleTrack creates the two-keyframe track used for continuous spin: 0 at t=0 and
// radiansPerCycle at t=durationMs.
//
// Parameters:
//   - durationMs: the length of one cycle in milliseconds
//   - radiansPerCycle: the angle covered by one cycle
//   - options: variadic list of TrackBuilderOption functions to configure the track
//
// Returns:
//   - KeyframeTrack[float64]: the new track
//   - error: a common.ErrConfiguration error when durationMs is not positive
func NewCycleTrack(durationMs, radiansPerCycle float64, options ...TrackBuilderOption) (KeyframeTrack[float64], error) {
	return NewScalarTrack([]Keyframe[float64]{
		{TimeMs: 0, Value: 0},
		{TimeMs: durationMs, Value: radiansPerCycle},
	}, options...)
}

// LerpFloat64 is the linear interpolation for scalars.
func LerpFloat64(a, b float64, f float64) float64 {
	return a + f*(b-a)
}

// LerpVec3 is the component-wise linear interpolation for vectors.
func LerpVec3(a, b mgl32.Vec3, f float64) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(float32(f)))
}

func (k *keyframeTrack[T]) Evaluate(timeMs float64) T {
	return k.Sample(timeMs).Value
}

func (k *keyframeTrack[T]) Bracket(timeMs float64) (start, end T, factor float64) {
	s := k.Sample(timeMs)
	return s.Start, s.End, s.Factor
}

func (k *keyframeTrack[T]) Sample(timeMs float64) Sample[T] {
	if len(k.keys) == 1 {
		v := k.keys[0].Value
		return Sample[T]{Start: v, End: v, Factor: 0, Value: v}
	}

	t := k.clamp(timeMs)
	i := k.locate(t)
	k0, k1 := k.keys[i], k.keys[i+1]

	f := 0.0
	if span := k1.TimeMs - k0.TimeMs; span > 0 {
		f = (t - k0.TimeMs) / span
	}
	f = k.easing(f)

	return Sample[T]{
		Start:  k0.Value,
		End:    k1.Value,
		Factor: f,
		Value:  k.lerp(k0.Value, k1.Value, f),
	}
}

func (k *keyframeTrack[T]) Keyframes() []Keyframe[T] {
	out := make([]Keyframe[T], len(k.keys))
	copy(out, k.keys)
	return out
}

func (k *keyframeTrack[T]) StartMs() float64 {
	return k.keys[0].TimeMs
}

func (k *keyframeTrack[T]) EndMs() float64 {
	return k.keys[len(k.keys)-1].TimeMs
}

// clamp limits t to the keyframe range. NaN maps to the first keyframe.
func (k *keyframeTrack[T]) clamp(t float64) float64 {
	first, last := k.keys[0].TimeMs, k.keys[len(k.keys)-1].TimeMs
	switch {
	case !(t > first):
		return first
	case t > last:
		return last
	default:
		return t
	}
}

// locate returns i such that keys[i].TimeMs <= t <= keys[i+1].TimeMs, with i in [0, len-2].
// t must already be clamped.
func (k *keyframeTrack[T]) locate(t float64) int {
	last := len(k.keys) - 2

	if h := k.hint; h <= last && k.keys[h].TimeMs <= t {
		if t <= k.keys[h+1].TimeMs {
			return h
		}
		if h+1 <= last && t <= k.keys[h+2].TimeMs {
			k.hint = h + 1
			return k.hint
		}
	}

	// first index whose time is strictly after t
	idx := sort.Search(len(k.keys), func(j int) bool { return k.keys[j].TimeMs > t })
	i := min(max(idx-1, 0), last)
	k.hint = i
	return i
}
