package common

import "errors"

// Error kinds shared by every engine package. Callers wrap them with fmt.Errorf("%w: ...")
// and test them with errors.Is.
var (
	// ErrConfiguration reports invalid construction parameters: empty keyframe tracks,
	// non-positive durations or rates, malformed uniform layouts.
	ErrConfiguration = errors.New("configuration error")

	// ErrResource reports that the graphics backend could not allocate a buffer or uniform storage.
	// It is fatal for scene initialization.
	ErrResource = errors.New("resource error")

	// ErrRender reports a failed frame. The frame is skipped and can be retried on the next tick.
	ErrRender = errors.New("render error")

	// ErrNotReady reports that GPU resources are not available yet, typically while a mesh is still loading.
	ErrNotReady = errors.New("not ready")

	// ErrInvalidState reports a lifecycle transition that is not allowed from the current state.
	ErrInvalidState = errors.New("invalid state")
)
