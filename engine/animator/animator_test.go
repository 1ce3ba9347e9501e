package animator

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestZeroAngleModelViewIsLookAt(t *testing.T) {
	eye := mgl32.Vec3{0, 0, 4}
	a, err := NewTransformAnimator(WithEye(eye))
	if err != nil {
		t.Fatal(err)
	}

	u := a.Update(1.5)
	want := common.LookAt(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if u.ModelView != want {
		t.Fatalf("model-view = %v, want %v", u.ModelView, want)
	}
	if u.Projection != common.Perspective(a.Camera().Fov(), 1.5, a.Camera().Near(), a.Camera().Far()) {
		t.Fatal("projection does not follow the aspect ratio")
	}
}

func TestRotationY(t *testing.T) {
	a, err := NewTransformAnimator()
	if err != nil {
		t.Fatal(err)
	}

	a.SetRotation(AxisY, math.Pi/2)
	// ignored by RotationY
	a.SetRotation(AxisX, 1)
	u := a.Update(1)

	// +X rotated a quarter turn about Y lands on -Z, 4 units further from the eye
	got := common.TransformPoint(u.ModelView, mgl32.Vec3{1, 0, 0})
	if !got.ApproxEqualThreshold(mgl32.Vec3{0, 0, -5}, 1e-5) {
		t.Fatalf("rotated point = %v, want [0 0 -5]", got)
	}
}

func TestRotationXYOrder(t *testing.T) {
	a, err := NewTransformAnimator(WithRotationOrder(RotationXY))
	if err != nil {
		t.Fatal(err)
	}

	a.SetRotation(AxisX, 0.3)
	a.SetRotation(AxisY, 1.1)
	u := a.Update(1)

	view := a.Camera().ViewMatrix()
	want := view.Mul4(mgl32.HomogRotate3DX(0.3)).Mul4(mgl32.HomogRotate3DY(1.1))
	if !u.ModelView.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("model-view = %v, want view*Rx*Ry = %v", u.ModelView, want)
	}
}

func TestMVPOptional(t *testing.T) {
	plain, err := NewTransformAnimator()
	if err != nil {
		t.Fatal(err)
	}
	if plain.Update(1).HasMVP {
		t.Fatal("MVP computed without WithModelViewProjection")
	}

	withMVP, err := NewTransformAnimator(WithModelViewProjection())
	if err != nil {
		t.Fatal(err)
	}
	withMVP.SetRotation(AxisY, 0.7)
	u := withMVP.Update(2)
	if !u.HasMVP || !u.MVP.ApproxEqualThreshold(u.Projection.Mul4(u.ModelView), 1e-6) {
		t.Fatalf("MVP = %v, want projection * model-view", u.MVP)
	}
}

func TestLightInCameraSpace(t *testing.T) {
	a, err := NewTransformAnimator(WithEye(mgl32.Vec3{0, 0, 4}), WithLightPosition(mgl32.Vec3{2, 2, 2}))
	if err != nil {
		t.Fatal(err)
	}

	before := a.Uniforms().LightPosition
	a.SetRotation(AxisY, 2)
	after := a.Update(1).LightPosition

	if !before.ApproxEqualThreshold(mgl32.Vec3{2, 2, -2}, 1e-5) || before != after {
		t.Fatalf("light position %v -> %v, want fixed [2 2 -2]", before, after)
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in   float64
		want float32
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{common.TwoPi + 1, 1},
		{-1, float32(common.TwoPi - 1)},
	}
	for _, tt := range tests {
		if got := wrapAngle(tt.in); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("wrapAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []AnimatorBuilderOption
	}{
		{"rotation order", []AnimatorBuilderOption{WithRotationOrder(RotationOrder(9))}},
		{"radians per cycle", []AnimatorBuilderOption{WithRadiansPerCycle(0)}},
		{"camera", []AnimatorBuilderOption{WithEye(mgl32.Vec3{})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTransformAnimator(tt.opts...); !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestRotationOrderUses(t *testing.T) {
	tests := []struct {
		order RotationOrder
		axis  Axis
		want  bool
	}{
		{RotationY, AxisY, true},
		{RotationY, AxisX, false},
		{RotationY, AxisZ, false},
		{RotationXY, AxisX, true},
		{RotationXY, AxisY, true},
		{RotationXY, AxisZ, false},
		{RotationOrder(9), AxisY, false},
	}
	for _, tt := range tests {
		if got := tt.order.Uses(tt.axis); got != tt.want {
			t.Errorf("%s.Uses(%d) = %v, want %v", tt.order, tt.axis, got, tt.want)
		}
	}
}
