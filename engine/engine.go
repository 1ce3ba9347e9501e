package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/input"
	"github.com/Carmen-Shannon/oxy-spin/engine/profiler"
	"github.com/Carmen-Shannon/oxy-spin/engine/remote"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer"
	"github.com/Carmen-Shannon/oxy-spin/engine/scene"
)

// Host is the window the engine renders into. window.Window satisfies it.
type Host interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the function called when a key is pressed.
	SetKeyCallback(callback func(key input.Key))

	// PollEvents dispatches pending events and returns false once the window should close.
	PollEvents() bool

	// Aspect returns the framebuffer width divided by its height.
	Aspect() float32
}

// engine implements the Engine interface.
// Runs the scene on a single render loop fed by the window, the remote controller and the clock.
type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once

	scene   scene.Scene
	backend renderer.GraphicsBackend
	window  Host
	remote  remote.Controller

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	fixedStep        time.Duration // replaces the measured delta when > 0
	maxFrames        uint64        // stop after this many rendered frames; 0 = unlimited
	headlessWidth    int
	headlessHeight   int
	now              func() time.Time

	frames  uint64
	skipped uint64
}

// Engine is the main entry point for the engine.
// It owns the render loop driving one scene: poll the window, apply queued remote commands,
// measure the frame delta, render the scene and tick the profiler.
type Engine interface {
	// Scene returns the scene driven by the engine.
	Scene() scene.Scene

	// Window returns the host window, or nil when running headless.
	Window() Host

	// Backend returns the graphics backend the scene renders through.
	Backend() renderer.GraphicsBackend

	// Dispatch applies a playback command to the scene. Toggle pauses a running scene and plays
	// any other.
	//
	// Parameters:
	//   - cmd: the command
	//
	// Returns:
	//   - error: a common.ErrInvalidState error if the scene cannot make the transition
	Dispatch(cmd remote.Command) error

	// Run initializes the scene if needed and renders frames until ctx is done, the window
	// closes, Quit is called or the frame limit is reached. The scene is finalized on return.
	// Failed frames are logged and skipped.
	//
	// Parameters:
	//   - ctx: the context bounding the loop
	//
	// Returns:
	//   - error: a common.ErrResource error if the scene could not be loaded, otherwise nil
	Run(ctx context.Context) error

	// Quit stops the render loop after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// FrameCount returns the number of frames rendered successfully.
	FrameCount() uint64

	// SkippedFrames returns the number of frames that failed and were skipped.
	SkippedFrames() uint64
}

var _ Engine = &engine{}

// NewEngine creates a new Engine for s, rendering through backend.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - s: the scene to run
//   - backend: the graphics backend the scene renders through, resized with the window
//   - options: functional options for engine configuration (window, remote, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: a common.ErrConfiguration error if the scene or backend is missing
func NewEngine(s scene.Scene, backend renderer.GraphicsBackend, options ...EngineBuilderOption) (Engine, error) {
	if s == nil || backend == nil {
		return nil, fmt.Errorf("%w: engine requires a scene and a backend", common.ErrConfiguration)
	}

	e := &engine{
		quitChannel:    make(chan struct{}),
		scene:          s,
		backend:        backend,
		profiler:       profiler.NewProfiler(),
		headlessWidth:  1280,
		headlessHeight: 720,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.backend.Resize(width, height)
		})
		e.window.SetKeyCallback(e.handleKey)
	} else {
		e.backend.Resize(e.headlessWidth, e.headlessHeight)
	}
	return e, nil
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Window() Host {
	return e.window
}

func (e *engine) Backend() renderer.GraphicsBackend {
	return e.backend
}

func (e *engine) FrameCount() uint64 {
	return e.frames
}

func (e *engine) SkippedFrames() uint64 {
	return e.skipped
}

// Quit signals the render loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Dispatch(cmd remote.Command) error {
	var err error
	switch cmd {
	case remote.CommandPlay:
		err = e.scene.Play()
	case remote.CommandPause:
		err = e.scene.Pause()
	case remote.CommandStop:
		err = e.scene.Stop()
	case remote.CommandToggle:
		if e.scene.State() == scene.StateRunning {
			err = e.scene.Pause()
		} else {
			err = e.scene.Play()
		}
	default:
		err = fmt.Errorf("%w: unknown command %v", common.ErrConfiguration, cmd)
	}
	if err != nil {
		return err
	}

	state := e.scene.State().String()
	common.Logger().Info("[Engine] command applied", "command", cmd.String(), "state", state)
	if e.remote != nil {
		e.remote.PublishState(state)
	}
	return nil
}

func (e *engine) handleKey(key input.Key) {
	var cmd remote.Command
	switch key {
	case input.KeySpace:
		cmd = remote.CommandToggle
	case input.KeyR:
		cmd = remote.CommandStop
	default:
		return
	}
	if err := e.Dispatch(cmd); err != nil {
		common.Logger().Debug("[Engine] key ignored", "command", cmd.String(), "error", err)
	}
}

func (e *engine) Run(ctx context.Context) error {
	defer e.finish()

	if e.scene.State() == scene.StateUninitialized {
		if err := e.scene.Initialize(); err != nil && !errors.Is(err, common.ErrInvalidState) {
			return err
		}
	}

	e.profiler.Reset(e.now())
	last := e.now()
	ready := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		default:
		}

		frameStart := e.now()
		if e.window != nil && !e.window.PollEvents() {
			return nil
		}
		e.drainRemote()

		dt := frameStart.Sub(last)
		if e.fixedStep > 0 {
			dt = e.fixedStep
		}
		last = frameStart

		err := e.scene.Render(float64(dt)/float64(time.Millisecond), e.aspect())
		switch {
		case err == nil:
			if !ready {
				ready = true
				common.Logger().Info("[Engine] scene ready", "scene", e.scene.Name(), "state", e.scene.State().String())
				if e.remote != nil {
					e.remote.PublishState(e.scene.State().String())
				}
			}
			e.frames++
		case errors.Is(err, common.ErrNotReady):
			// loading; wait up to one frame for the mesh instead of spinning
			waitCtx, cancel := context.WithTimeout(ctx, 16*time.Millisecond)
			_ = e.scene.Await(waitCtx)
			cancel()
			last = e.now()
			continue
		case errors.Is(err, common.ErrResource), errors.Is(err, common.ErrInvalidState):
			return err
		default:
			e.skipped++
			common.Logger().Warn("[Engine] frame skipped", "scene", e.scene.Name(), "error", err)
		}

		if e.profilingEnabled {
			e.profiler.Tick(err == nil)
		}

		if e.maxFrames > 0 && e.frames >= e.maxFrames {
			return nil
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// drainRemote applies every queued remote command without blocking.
func (e *engine) drainRemote() {
	if e.remote == nil {
		return
	}
	for {
		select {
		case cmd := <-e.remote.Commands():
			if err := e.Dispatch(cmd); err != nil {
				common.Logger().Warn("[Engine] remote command rejected", "command", cmd.String(), "error", err)
			}
		default:
			return
		}
	}
}

func (e *engine) aspect() float32 {
	if e.window != nil {
		return e.window.Aspect()
	}
	if e.headlessHeight <= 0 {
		return 1
	}
	return float32(e.headlessWidth) / float32(e.headlessHeight)
}

func (e *engine) finish() {
	if e.scene.State() != scene.StateFinalized {
		if err := e.scene.Finalize(); err != nil {
			common.Logger().Warn("[Engine] finalize failed", "scene", e.scene.Name(), "error", err)
		}
	}
	if e.remote != nil {
		e.remote.PublishState(scene.StateFinalized.String())
	}
	common.Logger().Info("[Engine] stopped", "frames", e.frames, "skipped", e.skipped)
}
