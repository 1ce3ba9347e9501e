package camera

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNewCameraValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []CameraBuilderOption
		ok   bool
	}{
		{"defaults", nil, true},
		{"eye equals target", []CameraBuilderOption{WithEye(mgl32.Vec3{1, 1, 1}), WithTarget(mgl32.Vec3{1, 1, 1})}, false},
		{"up parallel", []CameraBuilderOption{WithUp(mgl32.Vec3{0, 0, 1})}, false},
		{"near zero", []CameraBuilderOption{WithNear(0)}, false},
		{"far before near", []CameraBuilderOption{WithNear(10), WithFar(5)}, false},
		{"zero fov", []CameraBuilderOption{WithFov(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCamera(tt.opts...)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestCameraSpace(t *testing.T) {
	cam, err := NewCamera(WithEye(mgl32.Vec3{0, 0, 4}))
	if err != nil {
		t.Fatal(err)
	}

	// the origin sits 4 units in front of the camera, down the -Z view axis
	got := cam.ToCameraSpace(mgl32.Vec3{0, 0, 0})
	if !got.ApproxEqualThreshold(mgl32.Vec3{0, 0, -4}, 1e-5) {
		t.Fatalf("ToCameraSpace(origin) = %v", got)
	}
}

func TestSetAspectIgnoresInvalid(t *testing.T) {
	cam, err := NewCamera()
	if err != nil {
		t.Fatal(err)
	}

	wide := cam.SetAspect(2)
	if cam.Aspect() != 2 {
		t.Fatalf("aspect = %v, want 2", cam.Aspect())
	}
	if got := cam.SetAspect(0); got != wide || cam.Aspect() != 2 {
		t.Fatal("zero aspect changed the projection")
	}
	if wide[0]*2 != wide[5] {
		t.Fatalf("projection x scale %v is not y scale %v / aspect", wide[0], wide[5])
	}
}
