package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"
)

// RendererBackendType identifies the GraphicsBackend implementation used by a scene.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects the in-memory backend that records draws without a GPU.
	BackendTypeHeadless
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeHeadless:
		return "headless"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// BufferHandle identifies a vertex buffer created by a GraphicsBackend.
type BufferHandle uint32

// UniformHandle identifies a uniform storage block created by a GraphicsBackend.
type UniformHandle uint32

// FramePass identifies the frame opened by BeginFrame. It is only valid until the matching EndFrame.
type FramePass uint64

// Color is an RGBA clear colour with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// CompareFunc is the depth comparison function.
type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// RasterState is the fixed-function state of a draw.
type RasterState struct {
	CullMode     CullMode
	DepthTest    bool
	DepthWrite   bool
	DepthCompare CompareFunc
}

// DefaultRasterState culls back faces and depth tests with less-equal, writing depth.
func DefaultRasterState() RasterState {
	return RasterState{
		CullMode:     CullBack,
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: CompareLessEqual,
	}
}

// DrawCall describes one non-indexed draw inside a frame.
type DrawCall struct {
	Vertices    BufferHandle
	Uniforms    UniformHandle
	VertexCount uint32
	Topology    mesh.Topology
	Raster      RasterState
}

// GraphicsBackend is the narrow GPU abstraction the scene renderer draws through. Handles are
// only meaningful to the backend that created them. All methods are called from the render thread.
type GraphicsBackend interface {
	// Type returns the backend implementation type.
	Type() RendererBackendType

	// CreateBuffer uploads vertex data into a new vertex buffer.
	//
	// Parameters:
	//   - data: the interleaved vertex data
	//
	// Returns:
	//   - BufferHandle: the buffer handle
	//   - error: a common.ErrResource error if the buffer could not be created
	CreateBuffer(data []float32) (BufferHandle, error)

	// DestroyBuffer releases a vertex buffer. Unknown handles are ignored.
	DestroyBuffer(h BufferHandle)

	// CreateUniformStorage allocates a zeroed uniform block sized for layout.
	//
	// Parameters:
	//   - layout: the uniform layout
	//
	// Returns:
	//   - UniformHandle: the uniform storage handle
	//   - error: a common.ErrResource error if the storage could not be created
	CreateUniformStorage(layout *uniform.Layout) (UniformHandle, error)

	// SetUniforms writes the given fields into a uniform block. Fields not present in values
	// keep their previous contents.
	//
	// Parameters:
	//   - h: the uniform storage handle
	//   - values: field values keyed by layout field name
	//
	// Returns:
	//   - error: a common.ErrResource error for an unknown handle, or a common.ErrConfiguration
	//     error for a value the layout cannot encode
	SetUniforms(h UniformHandle, values map[string][]float32) error

	// DestroyUniformStorage releases a uniform block. Unknown handles are ignored.
	DestroyUniformStorage(h UniformHandle)

	// BeginFrame acquires the next render target and opens a pass cleared to clear.
	//
	// Parameters:
	//   - clear: the clear colour
	//
	// Returns:
	//   - FramePass: the open frame
	//   - error: a common.ErrRender error if no target could be acquired or a frame is already open
	BeginFrame(clear Color) (FramePass, error)

	// Draw records a draw into the open frame.
	//
	// Parameters:
	//   - pass: the frame returned by BeginFrame
	//   - call: the draw description
	//
	// Returns:
	//   - error: a common.ErrRender error for a stale pass, unknown handles or a pipeline failure
	Draw(pass FramePass, call DrawCall) error

	// EndFrame submits and presents the frame.
	//
	// Parameters:
	//   - pass: the frame returned by BeginFrame
	//
	// Returns:
	//   - error: a common.ErrRender error if the frame could not be submitted
	EndFrame(pass FramePass) error

	// Resize reconfigures the render target for a new framebuffer size. Zero sizes are ignored.
	Resize(width, height int)

	// Release frees every resource held by the backend. The backend is unusable afterwards.
	Release()
}
