package light

import (
	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	position  mgl32.Vec3
	color     mgl32.Vec3
	intensity float32
}

// Light is a static point light. Its world-space position never changes, so the shader only
// needs the camera-space position computed once against the fixed view matrix.
type Light interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Color returns the RGB color of the light, premultiplied by its intensity.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// CameraSpacePosition transforms the light position by a view matrix.
	//
	// Parameters:
	//   - view: the camera view matrix
	//
	// Returns:
	//   - mgl32.Vec3: the light position in camera space
	CameraSpacePosition(view mgl32.Mat4) mgl32.Vec3
}

var _ Light = &lightImpl{}

// NewLight creates a white point light at (0, 0, 0) with intensity 1, configured by the given options.
//
// Parameters:
//   - options: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the configured light instance
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		color:     mgl32.Vec3{1, 1, 1},
		intensity: 1.0,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color.Mul(l.intensity)
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) CameraSpacePosition(view mgl32.Mat4) mgl32.Vec3 {
	return common.TransformPoint(view, l.position)
}
