package renderer

import "github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"

// SceneRendererBuilderOption is a functional option applied to a scene renderer during construction via NewSceneRenderer.
type SceneRendererBuilderOption func(*sceneRenderer)

// WithLayout sets the uniform layout. Use uniform.DiffuseMVPLayout together with an animator
// that computes the MVP matrix.
//
// Parameters:
//   - layout: the uniform layout
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the layout option to a scene renderer
func WithLayout(layout *uniform.Layout) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		if layout != nil {
			r.layout = layout
		}
	}
}

// WithClearColor sets the colour each frame is cleared to.
//
// Parameters:
//   - c: the clear colour
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the clear colour option to a scene renderer
func WithClearColor(c Color) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.clear = c
	}
}

// WithRasterState overrides the default cull and depth state.
func WithRasterState(state RasterState) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.raster = state
	}
}

type wgpuBackendConfig struct {
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// WGPUBackendOption is a functional option applied to the WebGPU backend via NewWGPUBackend.
type WGPUBackendOption func(*wgpuBackendConfig)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUBackendOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) WGPUBackendOption {
	return func(c *wgpuBackendConfig) {
		c.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBackendOption: a function that applies the force software renderer option
func WithForceSoftwareRenderer(force bool) WGPUBackendOption {
	return func(c *wgpuBackendConfig) {
		c.forceFallbackAdapter = force
	}
}
