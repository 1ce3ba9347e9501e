package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-9

func TestNewKeyframeTrackValidation(t *testing.T) {
	tests := []struct {
		name string
		keys []Keyframe[float64]
		ok   bool
	}{
		{"empty", nil, false},
		{"single", []Keyframe[float64]{{0, 3}}, true},
		{"two", []Keyframe[float64]{{0, 0}, {10, 1}}, true},
		{"negative time", []Keyframe[float64]{{-1, 0}, {10, 1}}, false},
		{"equal times", []Keyframe[float64]{{0, 0}, {0, 1}}, false},
		{"decreasing", []Keyframe[float64]{{0, 0}, {10, 1}, {5, 2}}, false},
		{"nan time", []Keyframe[float64]{{math.NaN(), 0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScalarTrack(tt.keys)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestKeyframeTrackEvaluate(t *testing.T) {
	track, err := NewScalarTrack([]Keyframe[float64]{{0, 0}, {2000, 2 * math.Pi}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		at   float64
		want float64
	}{
		{-50, 0},
		{0, 0},
		{500, math.Pi / 2},
		{1000, math.Pi},
		{2000, 2 * math.Pi},
		{9000, 2 * math.Pi},
	}
	for _, tt := range tests {
		if got := track.Evaluate(tt.at); math.Abs(got-tt.want) > eps {
			t.Errorf("Evaluate(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestKeyframeTrackSingleKeyframe(t *testing.T) {
	track, err := NewScalarTrack([]Keyframe[float64]{{100, 7}})
	if err != nil {
		t.Fatal(err)
	}
	for _, at := range []float64{0, 100, 1e6} {
		if got := track.Evaluate(at); got != 7 {
			t.Errorf("Evaluate(%v) = %v, want 7", at, got)
		}
	}
}

func TestKeyframeTrackContinuousAcrossKeyframes(t *testing.T) {
	track, err := NewScalarTrack([]Keyframe[float64]{{0, 0}, {100, 10}, {300, -10}, {400, 5}})
	if err != nil {
		t.Fatal(err)
	}

	for _, k := range track.Keyframes() {
		at := track.Evaluate(k.TimeMs)
		if math.Abs(at-k.Value) > eps {
			t.Errorf("Evaluate(%v) = %v, want keyframe value %v", k.TimeMs, at, k.Value)
		}
		left := track.Evaluate(k.TimeMs - 1e-6)
		right := track.Evaluate(k.TimeMs + 1e-6)
		if math.Abs(left-at) > 1e-3 || math.Abs(right-at) > 1e-3 {
			t.Errorf("discontinuity at %v: left %v, at %v, right %v", k.TimeMs, left, at, right)
		}
	}
}

func TestKeyframeTrackMonotonicForMonotonicKeys(t *testing.T) {
	track, err := NewScalarTrack([]Keyframe[float64]{{0, 0}, {100, 1}, {250, 4}, {1000, 4.5}})
	if err != nil {
		t.Fatal(err)
	}

	prev := math.Inf(-1)
	for at := -10.0; at <= 1010; at += 3.7 {
		v := track.Evaluate(at)
		if v < prev {
			t.Fatalf("value decreased at %v: %v < %v", at, v, prev)
		}
		prev = v
	}
}

func TestKeyframeTrackOutOfOrderQueries(t *testing.T) {
	track, err := NewScalarTrack([]Keyframe[float64]{{0, 0}, {10, 10}, {20, 20}, {30, 30}})
	if err != nil {
		t.Fatal(err)
	}

	// the cached bracket must not leak between unrelated queries
	for _, at := range []float64{25, 5, 29, 0, 15, 30, 12} {
		if got := track.Evaluate(at); math.Abs(got-at) > eps {
			t.Errorf("Evaluate(%v) = %v", at, got)
		}
	}
}

func TestKeyframeTrackBracket(t *testing.T) {
	track, err := NewScalarTrack([]Keyframe[float64]{{0, 1}, {100, 3}, {200, 9}})
	if err != nil {
		t.Fatal(err)
	}

	start, end, f := track.Bracket(150)
	if start != 3 || end != 9 || math.Abs(f-0.5) > eps {
		t.Fatalf("Bracket(150) = (%v, %v, %v), want (3, 9, 0.5)", start, end, f)
	}
}

func TestVec3TrackComponentWise(t *testing.T) {
	track, err := NewVec3Track([]Keyframe[mgl32.Vec3]{
		{0, mgl32.Vec3{0, 10, -4}},
		{100, mgl32.Vec3{2, 20, 4}},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := track.Evaluate(25)
	want := mgl32.Vec3{0.5, 12.5, -2}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("Evaluate(25) = %v, want %v", got, want)
	}
}

func TestEasing(t *testing.T) {
	for _, name := range EasingNames() {
		fn, err := EasingByName(name)
		if err != nil {
			t.Fatalf("EasingByName(%q): %v", name, err)
		}
		if math.Abs(fn(0)) > 1e-9 || math.Abs(fn(1)-1) > 1e-9 {
			t.Errorf("easing %q does not preserve endpoints: f(0)=%v f(1)=%v", name, fn(0), fn(1))
		}
	}

	if _, err := EasingByName("bounce-forever"); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown easing, got %v", err)
	}

	fn, _ := EasingByName("in-quad")
	track, err := NewScalarTrack([]Keyframe[float64]{{0, 0}, {100, 100}}, WithEasing(fn))
	if err != nil {
		t.Fatal(err)
	}
	if got := track.Evaluate(50); math.Abs(got-25) > eps {
		t.Fatalf("in-quad Evaluate(50) = %v, want 25", got)
	}
}
