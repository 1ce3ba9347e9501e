package renderer

import (
	_ "embed"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// diffuseShaderSource multiplies projection and model-view in the vertex stage.
//
//go:embed assets/diffuse.wgsl
var diffuseShaderSource string

// diffuseMVPShaderSource reads a precomputed model-view-projection matrix.
//
//go:embed assets/diffuse_mvp.wgsl
var diffuseMVPShaderSource string

// pipelineKey identifies a cached render pipeline.
type pipelineKey struct {
	mvp      bool
	topology mesh.Topology
	raster   RasterState
}

type wgpuVertexBuffer struct {
	buffer *wgpu.Buffer
	floats int
}

type wgpuUniformStorage struct {
	layout    *uniform.Layout
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// wgpuRendererBackendImpl is the WebGPU implementation of the GraphicsBackend interface.
type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height uint32

	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	shaderModules   map[bool]*wgpu.ShaderModule
	pipelines       map[pipelineKey]*wgpu.RenderPipeline

	nextHandle uint32
	buffers    map[BufferHandle]*wgpuVertexBuffer
	uniforms   map[UniformHandle]*wgpuUniformStorage

	frame        FramePass
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ GraphicsBackend = &wgpuRendererBackendImpl{}

// NewWGPUBackend creates a WebGPU device for the given surface and configures the surface at
// the initial framebuffer size. It locks the calling goroutine to its OS thread; every later call
// must come from the same goroutine.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, e.g. from wgpuglfw.GetSurfaceDescriptor
//   - width: the initial framebuffer width in pixels
//   - height: the initial framebuffer height in pixels
//   - options: variadic list of WGPUBackendOption functions to configure the backend
//
// Returns:
//   - GraphicsBackend: the backend
//   - error: a common.ErrResource error if no adapter, device or pipeline layout could be created
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...WGPUBackendOption) (GraphicsBackend, error) {
	runtime.LockOSThread()

	cfg := wgpuBackendConfig{presentMode: PresentModeVSync}
	for _, opt := range options {
		opt(&cfg)
	}

	b := &wgpuRendererBackendImpl{
		mu:            &sync.Mutex{},
		instance:      wgpu.CreateInstance(nil),
		presentMode:   wgpuPresentMode(cfg.presentMode),
		shaderModules: make(map[bool]*wgpu.ShaderModule),
		pipelines:     make(map[pipelineKey]*wgpu.RenderPipeline),
		buffers:       make(map[BufferHandle]*wgpuVertexBuffer),
		uniforms:      make(map[UniformHandle]*wgpuUniformStorage),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", common.ErrResource, err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("%w: request device: %w", common.ErrResource, err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		b.Release()
		return nil, fmt.Errorf("%w: surface reports no supported formats", common.ErrResource)
	}
	b.surfaceFormat = capabilities.Formats[0]

	if err := b.createLayouts(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.configureSurface(uint32(max(width, 1)), uint32(max(height, 1))); err != nil {
		b.Release()
		return nil, err
	}

	common.Logger().Info("[Renderer] wgpu backend ready", "format", b.surfaceFormat, "width", b.width, "height", b.height)
	return b, nil
}

func (b *wgpuRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeWGPU
}

func (b *wgpuRendererBackendImpl) CreateBuffer(data []float32) (BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(data) == 0 {
		return 0, fmt.Errorf("%w: cannot create an empty vertex buffer", common.ErrResource)
	}

	bytes := common.SliceToBytes(data)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Mesh Vertex Buffer",
		Size:             uint64(len(bytes)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create vertex buffer: %w", common.ErrResource, err)
	}
	b.queue.WriteBuffer(buf, 0, bytes)

	b.nextHandle++
	h := BufferHandle(b.nextHandle)
	b.buffers[h] = &wgpuVertexBuffer{buffer: buf, floats: len(data)}
	return h, nil
}

func (b *wgpuRendererBackendImpl) DestroyBuffer(h BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if vb, ok := b.buffers[h]; ok {
		vb.buffer.Release()
		delete(b.buffers, h)
	}
}

func (b *wgpuRendererBackendImpl) CreateUniformStorage(layout *uniform.Layout) (UniformHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if layout == nil {
		return 0, fmt.Errorf("%w: uniform storage requires a layout", common.ErrResource)
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Transform Uniform Buffer",
		Size:  layout.Size(),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create uniform buffer: %w", common.ErrResource, err)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Transform Bind Group",
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		buf.Release()
		return 0, fmt.Errorf("%w: create uniform bind group: %w", common.ErrResource, err)
	}

	b.nextHandle++
	h := UniformHandle(b.nextHandle)
	b.uniforms[h] = &wgpuUniformStorage{layout: layout, buffer: buf, bindGroup: bindGroup}
	return h, nil
}

func (b *wgpuRendererBackendImpl) SetUniforms(h UniformHandle, values map[string][]float32) error {
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
		b.queue.WriteBuffer(u.buffer, off, data)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) DestroyUniformStorage(h UniformHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if u, ok := b.uniforms[h]; ok {
		u.bindGroup.Release()
		u.buffer.Release()
		delete(b.uniforms, h)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame(clear Color) (FramePass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A surface image still held from a previous frame must be presented before acquiring
	// another, wgpu-native rejects a second acquire.
	if b.frameSurface != nil {
		return 0, fmt.Errorf("%w: previous frame surface not yet presented", common.ErrRender)
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return 0, fmt.Errorf("%w: acquire surface texture: %w", common.ErrRender, err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return 0, fmt.Errorf("%w: create surface view: %w", common.ErrRender, err)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return 0, fmt.Errorf("%w: create command encoder: %w", common.ErrRender, err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: clear.R, G: clear.G, B: clear.B, A: clear.A,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	b.frame++
	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	return b.frame, nil
}

func (b *wgpuRendererBackendImpl) Draw(pass FramePass, call DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || pass != b.frame {
		return fmt.Errorf("%w: frame %d is not open", common.ErrRender, pass)
	}
	vb, ok := b.buffers[call.Vertices]
	if !ok {
		return fmt.Errorf("%w: unknown vertex buffer %d", common.ErrRender, call.Vertices)
	}
	u, ok := b.uniforms[call.Uniforms]
	if !ok {
		return fmt.Errorf("%w: unknown uniform storage %d", common.ErrRender, call.Uniforms)
	}
	if need := int(call.VertexCount) * mesh.FloatsPerVertex; need > vb.floats {
		return fmt.Errorf("%w: draw of %d vertices overruns buffer of %d floats", common.ErrRender, call.VertexCount, vb.floats)
	}

	key := pipelineKey{mvp: u.layout.Has(uniform.FieldMVP), topology: call.Topology, raster: call.Raster}
	p, err := b.pipeline(key)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrRender, err)
	}

	b.framePass.SetPipeline(p)
	b.framePass.SetBindGroup(0, u.bindGroup, nil)
	b.framePass.SetVertexBuffer(0, vb.buffer, 0, wgpu.WholeSize)
	b.framePass.Draw(call.VertexCount, 1, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame(pass FramePass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || pass != b.frame {
		return fmt.Errorf("%w: frame %d is not open", common.ErrRender, pass)
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameSurface()
		return fmt.Errorf("%w: finish command encoder: %w", common.ErrRender, err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	b.releaseFrameSurface()
	return nil
}

func (b *wgpuRendererBackendImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if uint32(width) == b.width && uint32(height) == b.height {
		return
	}
	if err := b.configureSurface(uint32(width), uint32(height)); err != nil {
		common.Logger().Error("[Renderer] resize failed", "width", width, "height", height, "error", err)
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()

	for h, vb := range b.buffers {
		vb.buffer.Release()
		delete(b.buffers, h)
	}
	for h, u := range b.uniforms {
		u.bindGroup.Release()
		u.buffer.Release()
		delete(b.uniforms, h)
	}
	for k, p := range b.pipelines {
		p.Release()
		delete(b.pipelines, k)
	}
	for k, m := range b.shaderModules {
		m.Release()
		delete(b.shaderModules, k)
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
		b.bindGroupLayout = nil
	}
	b.releaseDepth()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// configureSurface (re)configures the swapchain and the matching depth texture.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) configureSurface(width, height uint32) error {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseDepth()
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("%w: create depth texture: %w", common.ErrResource, err)
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("%w: create depth view: %w", common.ErrResource, err)
	}

	b.depthTexture = depthTexture
	b.depthTextureView = view
	b.width, b.height = width, height
	return nil
}

// createLayouts builds the single-binding uniform layout shared by every pipeline.
func (b *wgpuRendererBackendImpl) createLayouts() error {
	bgl, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Transform Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				// MinBindingSize stays 0: the plain and MVP shader variants share this layout
				// but need different struct sizes.
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group layout: %w", common.ErrResource, err)
	}
	b.bindGroupLayout = bgl

	pl, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Diffuse Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return fmt.Errorf("%w: create pipeline layout: %w", common.ErrResource, err)
	}
	b.pipelineLayout = pl
	return nil
}

// pipeline returns the cached render pipeline for key, creating it on first use.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) pipeline(key pipelineKey) (*wgpu.RenderPipeline, error) {
	if p, ok := b.pipelines[key]; ok {
		return p, nil
	}

	module, err := b.shaderModule(key.mvp)
	if err != nil {
		return nil, err
	}

	depthCompare := wgpuCompareFunction(key.raster.DepthCompare)
	if !key.raster.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("Diffuse %s Render Pipeline", key.topology),
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: mesh.VertexStride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpuTopology(key.topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpuCullMode(key.raster.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: key.raster.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}

	b.pipelines[key] = created
	common.Logger().Debug("[Renderer] pipeline created", "mvp", key.mvp, "topology", key.topology.String())
	return created, nil
}

// shaderModule returns the compiled diffuse shader variant. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) shaderModule(mvp bool) (*wgpu.ShaderModule, error) {
	if m, ok := b.shaderModules[mvp]; ok {
		return m, nil
	}

	label, source := "diffuse", diffuseShaderSource
	if mvp {
		label, source = "diffuse_mvp", diffuseMVPShaderSource
	}
	m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compile shader %s: %w", label, err)
	}
	b.shaderModules[mvp] = m
	return m, nil
}

// releaseFrameSurface drops the surface image held by the current frame. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

// releaseDepth frees the depth attachment. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseDepth() {
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

func wgpuTopology(t mesh.Topology) wgpu.PrimitiveTopology {
	switch t {
	case mesh.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case mesh.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case mesh.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func wgpuCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullFront:
		return wgpu.CullModeFront
	case CullBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func wgpuCompareFunction(c CompareFunc) wgpu.CompareFunction {
	switch c {
	case CompareLess:
		return wgpu.CompareFunctionLess
	case CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLessEqual
	}
}
