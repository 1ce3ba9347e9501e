package camera

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	eye    mgl32.Vec3
	target mgl32.Vec3
	up     mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
}

// Camera is a fixed viewpoint. The view matrix is computed once at construction from the eye,
// target and up vectors and never changes. Only the projection follows the aspect ratio.
type Camera interface {
	// Eye returns the world-space camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Eye() mgl32.Vec3

	// Target returns the world-space point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the target position
	Target() mgl32.Vec3

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height) of the current projection.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the immutable view matrix (column-major).
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the projection matrix for the current aspect ratio (column-major,
	// WebGPU [0, 1] depth range).
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// SetAspect sets the aspect ratio and recomputes the projection. Non-positive or non-finite
	// values are ignored so a minimized window keeps the last valid projection.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix after the update
	SetAspect(aspect float32) mgl32.Mat4

	// ToCameraSpace transforms a world-space point by the view matrix.
	//
	// Parameters:
	//   - p: the world-space point
	//
	// Returns:
	//   - mgl32.Vec3: the point in camera space
	ToCameraSpace(p mgl32.Vec3) mgl32.Vec3
}

var _ Camera = &cameraImpl{}

// NewCamera creates a fixed camera. By default it sits at (0, 0, 4) looking at the origin with a
// 45 degree vertical field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
//   - error: a common.ErrConfiguration error if the eye equals the target, the up vector is
//     parallel to the view direction or the clip planes are invalid
func NewCamera(options ...CameraBuilderOption) (Camera, error) {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		eye:    mgl32.Vec3{0, 0, 4},
		target: mgl32.Vec3{0, 0, 0},
		up:     mgl32.Vec3{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0), // radians
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	c.viewMatrix = common.LookAt(c.eye, c.target, c.up)
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	return c, nil
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	return c.eye
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	return c.target
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	return c.near
}

func (c *cameraImpl) Far() float32 {
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) SetAspect(aspect float32) mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !(aspect > 0) || math.IsInf(float64(aspect), 0) || aspect == c.aspect {
		return c.projectionMatrix
	}
	c.aspect = aspect
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	return c.projectionMatrix
}

func (c *cameraImpl) ToCameraSpace(p mgl32.Vec3) mgl32.Vec3 {
	return common.TransformPoint(c.viewMatrix, p)
}

func (c *cameraImpl) validate() error {
	forward := c.target.Sub(c.eye)
	if forward.Len() < 1e-6 {
		return fmt.Errorf("%w: camera eye %v equals target", common.ErrConfiguration, c.eye)
	}
	if forward.Normalize().Cross(c.up).Len() < 1e-6 {
		return fmt.Errorf("%w: camera up %v is parallel to the view direction", common.ErrConfiguration, c.up)
	}
	if !(c.fov > 0) || c.fov >= math.Pi {
		return fmt.Errorf("%w: camera fov %v must be in (0, pi)", common.ErrConfiguration, c.fov)
	}
	if !(c.near > 0) || !(c.far > c.near) {
		return fmt.Errorf("%w: camera clip planes near=%v far=%v are invalid", common.ErrConfiguration, c.near, c.far)
	}
	if !(c.aspect > 0) {
		return fmt.Errorf("%w: camera aspect %v must be positive", common.ErrConfiguration, c.aspect)
	}
	return nil
}
