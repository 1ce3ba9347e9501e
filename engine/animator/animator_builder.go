package animator

import (
	"github.com/Carmen-Shannon/oxy-spin/engine/camera"
	"github.com/Carmen-Shannon/oxy-spin/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// AnimatorBuilderOption is a functional option for configuring a TransformAnimator during construction.
type AnimatorBuilderOption func(*transformAnimator)

// WithRotationOrder is an option builder that selects the axes driving the model rotation.
//
// Parameters:
//   - order: the rotation order
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the rotation order option
func WithRotationOrder(order RotationOrder) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.order = order
	}
}

// WithRadiansPerCycle is an option builder that sets the angle covered by one channel cycle.
//
// Parameters:
//   - radians: the angle per cycle
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the option
func WithRadiansPerCycle(radians float64) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.radiansPerCycle = radians
	}
}

// WithModelViewProjection enables the combined MVP matrix in the uniforms.
func WithModelViewProjection() AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.computeMVP = true
	}
}

// WithCamera uses an existing camera instead of building one from the eye options.
func WithCamera(c camera.Camera) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.camera = c
	}
}

// WithLight uses an existing light instead of building one from the light options.
func WithLight(l light.Light) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.light = l
	}
}

// WithEye is an option builder that sets the camera position.
//
// Parameters:
//   - eye: the world-space camera position
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the eye option
func WithEye(eye mgl32.Vec3) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.cameraOptions = append(a.cameraOptions, camera.WithEye(eye))
	}
}

// WithTarget sets the point the camera looks at.
func WithTarget(target mgl32.Vec3) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.cameraOptions = append(a.cameraOptions, camera.WithTarget(target))
	}
}

// WithUp sets the camera up vector.
func WithUp(up mgl32.Vec3) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.cameraOptions = append(a.cameraOptions, camera.WithUp(up))
	}
}

// WithFovY sets the vertical field of view in radians.
func WithFovY(fov float32) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.cameraOptions = append(a.cameraOptions, camera.WithFov(fov))
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the clip plane option
func WithClipPlanes(near, far float32) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.cameraOptions = append(a.cameraOptions, camera.WithNear(near), camera.WithFar(far))
	}
}

// WithLightPosition sets the world-space light position.
func WithLightPosition(p mgl32.Vec3) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.lightOptions = append(a.lightOptions, light.WithPosition(p))
	}
}

// WithLightColor sets the light colour.
func WithLightColor(c mgl32.Vec3) AnimatorBuilderOption {
	return func(a *transformAnimator) {
		a.lightOptions = append(a.lightOptions, light.WithColor(c[0], c[1], c[2]))
	}
}
