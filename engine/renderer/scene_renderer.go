package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/animator"
	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"
)

// sceneRenderer is the implementation of the SceneRenderer interface.
type sceneRenderer struct {
	mu *sync.Mutex

	backend GraphicsBackend
	layout  *uniform.Layout
	clear   Color
	raster  RasterState

	vertices    BufferHandle
	uniforms    UniformHandle
	vertexCount uint32
	topology    mesh.Topology

	ready         bool
	lightUploaded bool
	frames        uint64
}

// SceneRenderer draws one mesh with the diffuse shader through a GraphicsBackend. It owns the
// mesh's vertex buffer and uniform storage between Initialize and Finalize.
type SceneRenderer interface {
	// Initialize uploads the interleaved mesh and allocates uniform storage. On failure every
	// resource created so far is released.
	//
	// Parameters:
	//   - src: the mesh to draw
	//
	// Returns:
	//   - error: a common.ErrResource error if the mesh is invalid or an allocation fails, or a
	//     common.ErrInvalidState error if the renderer is already initialized
	Initialize(src mesh.MeshSource) error

	// RenderFrame uploads the animator's current transforms and draws one frame. The light is
	// uploaded with the first frame only.
	//
	// Parameters:
	//   - a: the animator supplying the uniforms
	//
	// Returns:
	//   - error: common.ErrNotReady before Initialize, or a common.ErrRender error if the frame
	//     failed and was skipped
	RenderFrame(a animator.TransformAnimator) error

	// Finalize destroys the mesh buffer and uniform storage. It is safe to call more than once.
	Finalize()

	// Ready reports whether Initialize has completed and Finalize has not been called.
	Ready() bool

	// Layout returns the uniform layout used for the uniform storage.
	Layout() *uniform.Layout

	// ClearColor returns the frame clear colour.
	ClearColor() Color

	// SetClearColor changes the frame clear colour.
	SetClearColor(c Color)

	// FrameCount returns the number of frames rendered successfully.
	FrameCount() uint64

	// Backend returns the graphics backend.
	Backend() GraphicsBackend
}

var _ SceneRenderer = &sceneRenderer{}

// NewSceneRenderer creates a renderer that draws through backend. By default it uses the
// diffuse layout, a dark grey clear colour and DefaultRasterState.
//
// Parameters:
//   - backend: the graphics backend
//   - options: variadic list of SceneRendererBuilderOption functions to configure the renderer
//
// Returns:
//   - SceneRenderer: the renderer
func NewSceneRenderer(backend GraphicsBackend, options ...SceneRendererBuilderOption) SceneRenderer {
	r := &sceneRenderer{
		mu:      &sync.Mutex{},
		backend: backend,
		layout:  uniform.DiffuseLayout,
		clear:   Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		raster:  DefaultRasterState(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *sceneRenderer) Initialize(src mesh.MeshSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return fmt.Errorf("%w: scene renderer already initialized", common.ErrInvalidState)
	}
	if r.backend == nil {
		return fmt.Errorf("%w: scene renderer has no backend", common.ErrResource)
	}

	data, err := mesh.Interleave(src)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrResource, err)
	}

	vertices, err := r.backend.CreateBuffer(data)
	if err != nil {
		return fmt.Errorf("%w: mesh %q vertex buffer: %w", common.ErrResource, src.Name(), err)
	}
	uniforms, err := r.backend.CreateUniformStorage(r.layout)
	if err != nil {
		r.backend.DestroyBuffer(vertices)
		return fmt.Errorf("%w: mesh %q uniform storage: %w", common.ErrResource, src.Name(), err)
	}

	r.vertices = vertices
	r.uniforms = uniforms
	r.vertexCount = uint32(src.VertexCount())
	r.topology = src.Topology()
	r.ready = true
	r.lightUploaded = false

	common.Logger().Info("[Renderer] scene initialized",
		"mesh", src.Name(), "vertices", r.vertexCount, "backend", r.backend.Type().String())
	return nil
}

func (r *sceneRenderer) RenderFrame(a animator.TransformAnimator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return common.ErrNotReady
	}

	u := a.Uniforms()
	values := map[string][]float32{
		uniform.FieldModelView:  u.ModelView[:],
		uniform.FieldProjection: u.Projection[:],
	}
	if u.HasMVP && r.layout.Has(uniform.FieldMVP) {
		values[uniform.FieldMVP] = u.MVP[:]
	}
	if !r.lightUploaded {
		values[uniform.FieldLightPosition] = u.LightPosition[:]
		values[uniform.FieldLightColor] = u.LightColor[:]
	}

	if err := r.backend.SetUniforms(r.uniforms, values); err != nil {
		return fmt.Errorf("%w: upload uniforms: %w", common.ErrRender, err)
	}
	r.lightUploaded = true

	pass, err := r.backend.BeginFrame(r.clear)
	if err != nil {
		return fmt.Errorf("%w: begin frame: %w", common.ErrRender, err)
	}

	drawErr := r.backend.Draw(pass, DrawCall{
		Vertices:    r.vertices,
		Uniforms:    r.uniforms,
		VertexCount: r.vertexCount,
		Topology:    r.topology,
		Raster:      r.raster,
	})
	// the pass is closed even when the draw failed so the next frame can acquire a target
	endErr := r.backend.EndFrame(pass)

	if drawErr != nil {
		return fmt.Errorf("%w: draw: %w", common.ErrRender, drawErr)
	}
	if endErr != nil {
		return fmt.Errorf("%w: end frame: %w", common.ErrRender, endErr)
	}

	r.frames++
	return nil
}

func (r *sceneRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return
	}
	r.backend.DestroyBuffer(r.vertices)
	r.backend.DestroyUniformStorage(r.uniforms)
	r.ready = false
	r.lightUploaded = false
	common.Logger().Info("[Renderer] scene finalized", "frames", r.frames)
}

func (r *sceneRenderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *sceneRenderer) Layout() *uniform.Layout {
	return r.layout
}

func (r *sceneRenderer) ClearColor() Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clear
}

func (r *sceneRenderer) SetClearColor(c Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear = c
}

func (r *sceneRenderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *sceneRenderer) Backend() GraphicsBackend {
	return r.backend
}
