package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-spin/engine/profiler"
	"github.com/Carmen-Shannon/oxy-spin/engine/remote"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		if p != nil {
			e.profiler = p
		}
	}
}

// WithWindow attaches the window hosting the backend's surface. Without a window the engine
// runs headless at the size given by WithHeadlessSize.
//
// Parameters:
//   - w: a created window, usually a window.Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w Host) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRemote attaches an MQTT controller whose commands are applied at the start of each frame.
func WithRemote(c remote.Controller) EngineBuilderOption {
	return func(e *engine) {
		e.remote = c
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithFixedStep advances the scene by a fixed delta every frame instead of the measured wall
// clock delta. Used for reproducible headless runs.
//
// Parameters:
//   - step: the per-frame delta (0 = measured)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFixedStep(step time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if step > 0 {
			e.fixedStep = step
		}
	}
}

// WithMaxFrames stops the loop after n frames have been rendered successfully.
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithHeadlessSize sets the framebuffer size used for the aspect ratio when no window is attached.
func WithHeadlessSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		if width > 0 && height > 0 {
			e.headlessWidth = width
			e.headlessHeight = height
		}
	}
}
