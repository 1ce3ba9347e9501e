package animator

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/camera"
	"github.com/Carmen-Shannon/oxy-spin/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// RotationOrder selects which axes drive the model rotation and the order they are composed in.
type RotationOrder int

const (
	// RotationY spins the model around the Y axis only.
	RotationY RotationOrder = iota

	// RotationXY applies X with the first post-multiplication of the view, then Y:
	// modelView = view * Rx * Ry.
	RotationXY
)

func (o RotationOrder) String() string {
	switch o {
	case RotationY:
		return "y"
	case RotationXY:
		return "xy"
	default:
		return fmt.Sprintf("RotationOrder(%d)", int(o))
	}
}

// Uses reports whether the rotation order reads the angle of axis when composing the model matrix.
func (o RotationOrder) Uses(axis Axis) bool {
	switch o {
	case RotationY:
		return axis == AxisY
	case RotationXY:
		return axis == AxisX || axis == AxisY
	default:
		return false
	}
}

// Axis identifies a rotation axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Uniforms is the per-frame transform state consumed by the renderer.
type Uniforms struct {
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4
	MVP        mgl32.Mat4
	HasMVP     bool

	// LightPosition is the light in camera space. It does not change between frames.
	LightPosition mgl32.Vec3
	LightColor    mgl32.Vec3
}

// transformAnimator is the implementation of the TransformAnimator interface.
type transformAnimator struct {
	mu *sync.Mutex

	camera camera.Camera
	light  light.Light

	cameraOptions []camera.CameraBuilderOption
	lightOptions  []light.LightBuilderOption

	order           RotationOrder
	radiansPerCycle float64
	computeMVP      bool

	angles   [3]float64
	uniforms Uniforms
}

// TransformAnimator turns rotation angles into the matrices the diffuse shader needs. The camera
// view and the camera-space light are fixed at construction; Update recomputes the model-view,
// the projection for the current aspect ratio and, when enabled, the combined MVP.
type TransformAnimator interface {
	// Camera returns the fixed camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Light returns the static point light.
	//
	// Returns:
	//   - light.Light: the light
	Light() light.Light

	// RotationOrder returns the rotation order chosen at construction.
	RotationOrder() RotationOrder

	// RadiansPerCycle returns the angle one full channel cycle maps to.
	RadiansPerCycle() float64

	// HasMVP reports whether Update also computes the combined model-view-projection matrix.
	HasMVP() bool

	// SetRotation sets the angle for one axis. Angles for axes the rotation order does not use
	// are stored but ignored.
	//
	// Parameters:
	//   - axis: the rotation axis
	//   - radians: the rotation angle
	SetRotation(axis Axis, radians float64)

	// Rotation returns the angle currently set for an axis.
	//
	// Parameters:
	//   - axis: the rotation axis
	//
	// Returns:
	//   - float64: the angle in radians
	Rotation(axis Axis) float64

	// RotationConsumer returns a function that sets the angle for axis, suitable for attaching
	// to a timeline channel.
	//
	// Parameters:
	//   - axis: the rotation axis
	//
	// Returns:
	//   - func(float64): the consumer
	RotationConsumer(axis Axis) func(float64)

	// Update recomputes the transform state from the current angles.
	//
	// Parameters:
	//   - aspect: the viewport aspect ratio (width / height)
	//
	// Returns:
	//   - Uniforms: the updated transform state
	Update(aspect float32) Uniforms

	// Uniforms returns the transform state computed by the last Update.
	//
	// Returns:
	//   - Uniforms: the transform state
	Uniforms() Uniforms
}

var _ TransformAnimator = &transformAnimator{}

// NewTransformAnimator creates an animator with a fixed camera and light. Without options the
// camera sits at (0, 0, 4) looking at the origin and the light is white at the origin.
//
// Parameters:
//   - options: variadic list of AnimatorBuilderOption functions to configure the animator
//
// Returns:
//   - TransformAnimator: the new animator, already updated for an aspect ratio of 1
//   - error: a common.ErrConfiguration error for an invalid camera or rotation order
func NewTransformAnimator(options ...AnimatorBuilderOption) (TransformAnimator, error) {
	a := &transformAnimator{
		mu:              &sync.Mutex{},
		order:           RotationY,
		radiansPerCycle: common.TwoPi,
	}
	for _, opt := range options {
		opt(a)
	}

	if a.order != RotationY && a.order != RotationXY {
		return nil, fmt.Errorf("%w: unknown rotation order %v", common.ErrConfiguration, a.order)
	}
	if !(a.radiansPerCycle > 0) || math.IsInf(a.radiansPerCycle, 0) {
		return nil, fmt.Errorf("%w: radians per cycle must be positive, got %v", common.ErrConfiguration, a.radiansPerCycle)
	}

	if a.camera == nil {
		cam, err := camera.NewCamera(a.cameraOptions...)
		if err != nil {
			return nil, err
		}
		a.camera = cam
	}
	if a.light == nil {
		a.light = light.NewLight(a.lightOptions...)
	}

	a.uniforms.LightPosition = a.light.CameraSpacePosition(a.camera.ViewMatrix())
	a.uniforms.LightColor = a.light.Color()
	a.uniforms.HasMVP = a.computeMVP
	a.Update(a.camera.Aspect())

	common.Logger().Debug("[Animator] created",
		"order", a.order.String(), "mvp", a.computeMVP,
		"eye", a.camera.Eye(), "lightCameraSpace", a.uniforms.LightPosition)
	return a, nil
}

func (a *transformAnimator) Camera() camera.Camera {
	return a.camera
}

func (a *transformAnimator) Light() light.Light {
	return a.light
}

func (a *transformAnimator) RotationOrder() RotationOrder {
	return a.order
}

func (a *transformAnimator) RadiansPerCycle() float64 {
	return a.radiansPerCycle
}

func (a *transformAnimator) HasMVP() bool {
	return a.computeMVP
}

func (a *transformAnimator) SetRotation(axis Axis, radians float64) {
	if axis < AxisX || axis > AxisZ {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.angles[axis] = radians
}

func (a *transformAnimator) Rotation(axis Axis) float64 {
	if axis < AxisX || axis > AxisZ {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.angles[axis]
}

func (a *transformAnimator) RotationConsumer(axis Axis) func(float64) {
	return func(radians float64) {
		a.SetRotation(axis, radians)
	}
}

func (a *transformAnimator) Update(aspect float32) Uniforms {
	projection := a.camera.SetAspect(aspect)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.uniforms.ModelView = a.camera.ViewMatrix().Mul4(a.modelMatrix())
	a.uniforms.Projection = projection
	if a.computeMVP {
		a.uniforms.MVP = projection.Mul4(a.uniforms.ModelView)
	}
	return a.uniforms
}

func (a *transformAnimator) Uniforms() Uniforms {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uniforms
}

// modelMatrix composes the rotation for the configured order. Caller must hold the mutex.
func (a *transformAnimator) modelMatrix() mgl32.Mat4 {
	ry := mgl32.HomogRotate3DY(wrapAngle(a.angles[AxisY]))
	switch a.order {
	case RotationXY:
		rx := mgl32.HomogRotate3DX(wrapAngle(a.angles[AxisX]))
		return rx.Mul4(ry)
	default:
		return ry
	}
}

// wrapAngle reduces an angle into [0, 2pi) before the float32 conversion so long-running
// accumulated angles keep their precision.
func wrapAngle(radians float64) float32 {
	r := math.Mod(radians, common.TwoPi)
	if r < 0 {
		r += common.TwoPi
	}
	return float32(r)
}
