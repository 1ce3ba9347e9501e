package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/animator"
	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer"
	"github.com/Carmen-Shannon/oxy-spin/engine/timeline"
)

// State is the lifecycle state of a Scene.
type State int

const (
	// StateUninitialized is the state before the mesh has been loaded and uploaded.
	StateUninitialized State = iota

	// StateReady means GPU resources exist and frames are drawn, but the timeline is stopped.
	StateReady

	// StateRunning advances the timeline every frame.
	StateRunning

	// StatePaused keeps drawing with the timeline frozen at its current time.
	StatePaused

	// StateFinalized is terminal. All GPU resources have been released.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MeshFactory produces the mesh a scene draws. It runs on a worker goroutine.
type MeshFactory func() (mesh.MeshSource, error)

type meshResult struct {
	src mesh.MeshSource
	err error
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.Mutex

	name     string
	autoPlay bool
	workers  int

	state    State
	loading  bool
	loaded   chan meshResult
	pending  *meshResult
	pool     worker.DynamicWorkerPool
	factory  MeshFactory
	timeline timeline.Timeline
	animator animator.TransformAnimator
	renderer renderer.SceneRenderer

	finishedLogged bool
}

// Scene drives one animated mesh through its lifecycle. Every frame it advances the timeline,
// updates the animator from the sampled tracks and renders through the scene renderer, in that
// order and on the calling goroutine. Only mesh generation runs elsewhere.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// State returns the current lifecycle state.
	State() State

	// Initialize starts generating the mesh on the worker pool. The mesh is uploaded by the
	// first Render call after it arrives.
	//
	// Returns:
	//   - error: a common.ErrInvalidState error unless the scene is uninitialized and not already loading
	Initialize() error

	// Await blocks until the mesh generation started by Initialize has finished or ctx is done.
	// It does not upload the mesh; the next Render does.
	//
	// Parameters:
	//   - ctx: the context bounding the wait
	//
	// Returns:
	//   - error: the generation error, ctx.Err(), or a common.ErrInvalidState error if nothing is loading
	Await(ctx context.Context) error

	// Render produces one frame. While the mesh is still loading it returns common.ErrNotReady.
	// Once the mesh arrives it is uploaded and the scene enters StateReady, or StateRunning when
	// auto play is enabled.
	//
	// Parameters:
	//   - deltaMs: wall-clock milliseconds since the previous frame
	//   - aspect: the framebuffer width divided by its height
	//
	// Returns:
	//   - error: common.ErrNotReady while loading, a common.ErrResource error if the mesh could not
	//     be generated or uploaded, a common.ErrRender error for a failed frame, or a
	//     common.ErrInvalidState error after Finalize
	Render(deltaMs float64, aspect float32) error

	// Play starts or resumes the timeline. Valid from StateReady and StatePaused.
	Play() error

	// Pause freezes the timeline. Valid from StateRunning.
	Pause() error

	// Stop rewinds the timeline to zero and returns to StateReady. Valid from StateRunning and StatePaused.
	Stop() error

	// Finalize releases GPU resources and enters StateFinalized. Valid from every other state.
	Finalize() error

	// Timeline returns the scene's timeline.
	Timeline() timeline.Timeline

	// Animator returns the scene's transform animator.
	Animator() animator.TransformAnimator

	// Renderer returns the scene's renderer.
	Renderer() renderer.SceneRenderer
}

var _ Scene = &scene{}

// NewScene creates a scene in StateUninitialized.
//
// Parameters:
//   - r: the scene renderer, not yet initialized
//   - a: the transform animator the timeline's tracks write into
//   - tl: the timeline, with its channels and attachments already registered
//   - factory: the mesh generator
//   - options: variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - Scene: the scene
//   - error: a common.ErrConfiguration error if a dependency is missing
func NewScene(r renderer.SceneRenderer, a animator.TransformAnimator, tl timeline.Timeline, factory MeshFactory, options ...SceneBuilderOption) (Scene, error) {
	if r == nil || a == nil || tl == nil || factory == nil {
		return nil, fmt.Errorf("%w: scene requires a renderer, animator, timeline and mesh factory", common.ErrConfiguration)
	}

	s := &scene{
		mu:       &sync.Mutex{},
		name:     "scene",
		workers:  1,
		state:    StateUninitialized,
		loaded:   make(chan meshResult, 1),
		factory:  factory,
		timeline: tl,
		animator: a,
		renderer: r,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pool == nil {
		s.pool = worker.NewDynamicWorkerPool(s.workers, 16, 1*time.Second)
	}
	return s, nil
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *scene) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized || s.loading {
		return fmt.Errorf("%w: cannot initialize scene %q in state %s", common.ErrInvalidState, s.name, s.state)
	}
	s.loading = true
	s.pending = nil

	factory := s.factory
	loaded := s.loaded
	s.pool.SubmitTask(worker.Task{
		ID: 0,
		Do: func() (any, error) {
			start := time.Now()
			src, err := factory()
			loaded <- meshResult{src: src, err: err}
			if err == nil && src != nil {
				common.Logger().Debug("[Scene] mesh generated", "mesh", src.Name(), "vertices", src.VertexCount(), "took", time.Since(start))
			}
			return src, err
		},
	})
	common.Logger().Info("[Scene] loading", "scene", s.name)
	return nil
}

func (s *scene) Await(ctx context.Context) error {
	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return fmt.Errorf("%w: scene %q is not loading", common.ErrInvalidState, s.name)
	}
	if s.pending != nil {
		err := s.pending.err
		s.mu.Unlock()
		return err
	}
	loaded := s.loaded
	s.mu.Unlock()

	select {
	case res := <-loaded:
		s.mu.Lock()
		s.pending = &res
		s.mu.Unlock()
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *scene) Render(deltaMs float64, aspect float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateFinalized:
		return fmt.Errorf("%w: scene %q is finalized", common.ErrInvalidState, s.name)
	case StateUninitialized:
		if err := s.upload(); err != nil {
			return err
		}
	}

	s.timeline.Advance(deltaMs)
	s.animator.Update(aspect)
	if err := s.renderer.RenderFrame(s.animator); err != nil {
		return err
	}

	if s.state == StateRunning && !s.finishedLogged && s.timeline.Finished() {
		s.finishedLogged = true
		common.Logger().Info("[Scene] timeline finished", "scene", s.name, "elapsedMs", s.timeline.ElapsedMs())
	}
	return nil
}

// upload consumes a finished mesh generation and allocates GPU resources. Called with mu held.
func (s *scene) upload() error {
	if !s.loading {
		return common.ErrNotReady
	}

	res := s.pending
	if res == nil {
		select {
		case r := <-s.loaded:
			res = &r
		default:
			return common.ErrNotReady
		}
	}
	s.pending = nil
	s.loading = false

	if res.err != nil {
		return fmt.Errorf("%w: generate mesh for scene %q: %w", common.ErrResource, s.name, res.err)
	}
	if err := s.renderer.Initialize(res.src); err != nil {
		return err
	}

	s.setState(StateReady)
	if s.autoPlay {
		s.timeline.Play()
		s.setState(StateRunning)
	}
	return nil
}

func (s *scene) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady && s.state != StatePaused {
		return s.invalid("play")
	}
	s.timeline.Play()
	s.setState(StateRunning)
	return nil
}

func (s *scene) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return s.invalid("pause")
	}
	s.timeline.Pause()
	s.setState(StatePaused)
	return nil
}

func (s *scene) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning && s.state != StatePaused {
		return s.invalid("stop")
	}
	s.timeline.Stop()
	s.finishedLogged = false
	s.setState(StateReady)
	return nil
}

func (s *scene) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinalized {
		return s.invalid("finalize")
	}
	s.timeline.Stop()
	s.renderer.Finalize()
	s.loading = false
	s.pending = nil
	s.setState(StateFinalized)
	return nil
}

func (s *scene) Timeline() timeline.Timeline {
	return s.timeline
}

func (s *scene) Animator() animator.TransformAnimator {
	return s.animator
}

func (s *scene) Renderer() renderer.SceneRenderer {
	return s.renderer
}

func (s *scene) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s scene %q in state %s", common.ErrInvalidState, op, s.name, s.state)
}

func (s *scene) setState(next State) {
	if next == s.state {
		return
	}
	common.Logger().Debug("[Scene] state change", "scene", s.name, "from", s.state.String(), "to", next.String())
	s.state = next
}
