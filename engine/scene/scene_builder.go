package scene

import "github.com/Carmen-Shannon/automation/tools/worker"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier used in log messages.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		if name != "" {
			s.name = name
		}
	}
}

// WithAutoPlay starts the timeline as soon as the mesh has been uploaded.
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAutoPlay() SceneBuilderOption {
	return func(s *scene) {
		s.autoPlay = true
	}
}

// WithLoadWorkers sets the number of worker goroutines of the scene's own mesh generation pool.
// Ignored when WithWorkerPool is given. Defaults to 1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoadWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithWorkerPool shares an existing worker pool for mesh generation.
func WithWorkerPool(pool worker.DynamicWorkerPool) SceneBuilderOption {
	return func(s *scene) {
		s.pool = pool
	}
}
