package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"
)

type headlessUniformStorage struct {
	layout *uniform.Layout
	data   []byte
}

// headlessRendererBackendImpl is the implementation of the HeadlessBackend interface.
type headlessRendererBackendImpl struct {
	mu *sync.Mutex

	nextHandle uint32
	buffers    map[BufferHandle][]float32
	uniforms   map[UniformHandle]*headlessUniformStorage

	frame      FramePass
	frameOpen  bool
	frameDraws []DrawCall
	lastClear  Color

	frames   uint64
	draws    []DrawCall
	width    int
	height   int
	released bool
}

// HeadlessBackend is a GraphicsBackend that keeps every resource in memory and records draws
// instead of executing them. It runs without a window or GPU and exposes what was submitted.
type HeadlessBackend interface {
	GraphicsBackend

	// FrameCount returns the number of frames ended successfully.
	FrameCount() uint64

	// Draws returns every draw recorded in completed frames.
	Draws() []DrawCall

	// LastClear returns the clear colour of the most recent frame.
	LastClear() Color

	// BufferData returns a copy of a vertex buffer's contents.
	//
	// Parameters:
	//   - h: the buffer handle
	//
	// Returns:
	//   - []float32: the buffer contents
	//   - bool: false if the handle is unknown
	BufferData(h BufferHandle) ([]float32, bool)

	// UniformData returns a copy of a uniform block's bytes.
	//
	// Parameters:
	//   - h: the uniform storage handle
	//
	// Returns:
	//   - []byte: the encoded uniform block
	//   - bool: false if the handle is unknown
	UniformData(h UniformHandle) ([]byte, bool)

	// LiveResources returns the number of buffers and uniform blocks not yet destroyed.
	LiveResources() (buffers, uniforms int)

	// Size returns the last size passed to Resize.
	Size() (width, height int)
}

var _ HeadlessBackend = &headlessRendererBackendImpl{}

// NewHeadlessBackend creates an empty in-memory backend.
//
// Returns:
//   - HeadlessBackend: the backend
func NewHeadlessBackend() HeadlessBackend {
	return &headlessRendererBackendImpl{
		mu:       &sync.Mutex{},
		buffers:  make(map[BufferHandle][]float32),
		uniforms: make(map[UniformHandle]*headlessUniformStorage),
	}
}

func (b *headlessRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeHeadless
}

func (b *headlessRendererBackendImpl) CreateBuffer(data []float32) (BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return 0, fmt.Errorf("%w: backend released", common.ErrResource)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: cannot create an empty vertex buffer", common.ErrResource)
	}
	b.nextHandle++
	h := BufferHandle(b.nextHandle)
	b.buffers[h] = append([]float32(nil), data...)
	return h, nil
}

func (b *headlessRendererBackendImpl) DestroyBuffer(h BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, h)
}

func (b *headlessRendererBackendImpl) CreateUniformStorage(layout *uniform.Layout) (UniformHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return 0, fmt.Errorf("%w: backend released", common.ErrResource)
	}
	if layout == nil {
		return 0, fmt.Errorf("%w: uniform storage requires a layout", common.ErrResource)
	}
	b.nextHandle++
	h := UniformHandle(b.nextHandle)
	b.uniforms[h] = &headlessUniformStorage{layout: layout, data: make([]byte, layout.Size())}
	return h, nil
}

func (b *headlessRendererBackendImpl) SetUniforms(h UniformHandle, values map[string][]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.uniforms[h]
	if !ok {
		return fmt.Errorf("%w: unknown uniform storage %d", common.ErrResource, h)
	}
	for name, v := range values {
		off, data, err := u.layout.Encode(name, v)
		if err != nil {
			return err
		}
		copy(u.data[off:], data)
	}
	return nil
}

func (b *headlessRendererBackendImpl) DestroyUniformStorage(h UniformHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.uniforms, h)
}

func (b *headlessRendererBackendImpl) BeginFrame(clear Color) (FramePass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return 0, fmt.Errorf("%w: backend released", common.ErrRender)
	}
	if b.frameOpen {
		return 0, fmt.Errorf("%w: previous frame %d not ended", common.ErrRender, b.frame)
	}
	b.frame++
	b.frameOpen = true
	b.frameDraws = b.frameDraws[:0]
	b.lastClear = clear
	return b.frame, nil
}

func (b *headlessRendererBackendImpl) Draw(pass FramePass, call DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.frameOpen || pass != b.frame {
		return fmt.Errorf("%w: frame %d is not open", common.ErrRender, pass)
	}
	buf, ok := b.buffers[call.Vertices]
	if !ok {
		return fmt.Errorf("%w: unknown vertex buffer %d", common.ErrRender, call.Vertices)
	}
	if _, ok := b.uniforms[call.Uniforms]; !ok {
		return fmt.Errorf("%w: unknown uniform storage %d", common.ErrRender, call.Uniforms)
	}
	if need := int(call.VertexCount) * mesh.FloatsPerVertex; need > len(buf) {
		return fmt.Errorf("%w: draw of %d vertices overruns buffer of %d floats", common.ErrRender, call.VertexCount, len(buf))
	}
	b.frameDraws = append(b.frameDraws, call)
	return nil
}

func (b *headlessRendererBackendImpl) EndFrame(pass FramePass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.frameOpen || pass != b.frame {
		return fmt.Errorf("%w: frame %d is not open", common.ErrRender, pass)
	}
	b.frameOpen = false
	b.draws = append(b.draws, b.frameDraws...)
	b.frames++
	return nil
}

func (b *headlessRendererBackendImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

func (b *headlessRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.buffers)
	clear(b.uniforms)
	b.frameOpen = false
	b.released = true
}

func (b *headlessRendererBackendImpl) FrameCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *headlessRendererBackendImpl) Draws() []DrawCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DrawCall(nil), b.draws...)
}

func (b *headlessRendererBackendImpl) LastClear() Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastClear
}

func (b *headlessRendererBackendImpl) BufferData(h BufferHandle) ([]float32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), buf...), true
}

func (b *headlessRendererBackendImpl) UniformData(h UniformHandle) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.uniforms[h]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), u.data...), true
}

func (b *headlessRendererBackendImpl) LiveResources() (buffers, uniforms int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffers), len(b.uniforms)
}

func (b *headlessRendererBackendImpl) Size() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}
