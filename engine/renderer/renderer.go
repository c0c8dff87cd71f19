package renderer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline_cache"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
	"github.com/Carmen-Shannon/pixel-world/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelines     map[string]pipeline.Pipeline
	pipelineCache pipeline_cache.PipelineCache

	backendType RendererBackendType
	backend     RendererBackend

	// compileCompute is the blocking compute compile step run on cache workers.
	compileCompute func(p pipeline.Pipeline) error

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingPipelines     []pipeline.Pipeline
	clearColor           ClearColor
	compileWorkers       int
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the GPU device and surface, a registry of pipelines keyed by name, and
// the asynchronous compile cache behind compute pipelines. It also implements the ports the
// simulation needs: pipeline status polling, surface bind group creation and compute passes.
type Renderer interface {
	automata.PipelineStatusSource
	automata.BindGroupBuilder

	// Pipeline retrieves the registered Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline registry.
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines. Render pipelines are created
	// immediately. Compute pipelines are queued on the compile cache and this call returns
	// at once; PipelineStatus reports when each one is Ready or Failed.
	// Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if a render pipeline could not be created
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// PipelineErr returns the compile error of a Failed compute pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - error: the compile error, nil while Pending or once Ready
	PipelineErr(key string) error

	// WaitForPipelines blocks until no compute pipeline is Pending or ctx is done.
	// For tools and tests; the frame loop polls PipelineStatus instead.
	WaitForPipelines(ctx context.Context) error

	// RegisterSharedLayout creates a bind group layout referenced by key from pipelines
	// (pipeline.WithSharedLayout) and from surface bind groups.
	//
	// Parameters:
	//   - key: the layout key
	//   - descriptor: the layout descriptor, usually reflected from a shader
	//
	// Returns:
	//   - error: an error if the key is taken or creation fails
	RegisterSharedLayout(key string, descriptor wgpu.BindGroupLayoutDescriptor) error

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required after
	// changing this for the new mode to take effect.
	SetPresentMode(mode PresentMode)

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized first.
	// Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitSampler creates a GPU sampler and stores it on the provider at the given binding.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// CreateSurfaceImage creates the simulation image: an RGBA8 storage texture filled with
	// SurfaceImageFill, owned by a new provider at SurfaceBinding.
	//
	// Parameters:
	//   - label: the debug label of the image
	//   - width, height: the image size in texels
	//
	// Returns:
	//   - SurfaceImage: the new image
	//   - error: an error if the texture could not be created
	CreateSurfaceImage(label string, width, height uint32) (SurfaceImage, error)

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame creates the single command encoder all compute passes of a frame
	// are recorded on. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - automata.ComputeEncoder: the encoder compute passes are opened on
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() (automata.ComputeEncoder, error)

	// EndComputeFrame finishes the compute encoder and submits it to the queue.
	EndComputeFrame()

	// BeginFrame acquires the swapchain texture and begins the present pass.
	// Must be paired with EndFrame after all DrawCall invocations within a single frame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawCall encodes a single instanced draw command within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the registered render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: providers whose BindGroups are set at slots 0..n-1
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// Release frees pipeline-owned GPU resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type on the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(backendType, options...)

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, r.clearColor)
	}
	r.compileCompute = r.backend.CompileComputePipeline

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())

	if err := r.RegisterPipelines(r.pendingPipelines...); err != nil {
		panic(fmt.Sprintf("renderer: failed to register pipelines: %v", err))
	}
	r.pendingPipelines = nil
	return r
}

// newRenderer applies options and creates the compile cache, without touching the GPU.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		pipelines:   make(map[string]pipeline.Pipeline),
		backendType: backendType,
		clearColor:  DefaultClearColor,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.pipelineCache == nil {
		var cacheOpts []pipeline_cache.PipelineCacheBuilderOption
		if r.compileWorkers > 0 {
			cacheOpts = append(cacheOpts, pipeline_cache.WithWorkers(r.compileWorkers))
		}
		r.pipelineCache = pipeline_cache.NewPipelineCache(cacheOpts...)
	}
	return r
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelines))
	for k, p := range r.pipelines {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelines[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			compile := r.compileCompute
			r.pipelineCache.Queue(key, func() error {
				return compile(p)
			})
			log.Printf("[Renderer] compute pipeline %s queued", key)
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return fmt.Errorf("render pipeline %s: %w", key, err)
			}
			log.Printf("[Renderer] render pipeline %s created", key)
		}
		r.pipelines[key] = p
	}
	return nil
}

func (r *renderer) PipelineStatus(key string) pipeline_cache.Status {
	return r.pipelineCache.Status(key)
}

func (r *renderer) PipelineErr(key string) error {
	return r.pipelineCache.Err(key)
}

func (r *renderer) WaitForPipelines(ctx context.Context) error {
	return r.pipelineCache.Wait(ctx)
}

func (r *renderer) RegisterSharedLayout(key string, descriptor wgpu.BindGroupLayoutDescriptor) error {
	return r.backend.RegisterSharedLayout(key, descriptor)
}

func (r *renderer) BuildSurfaceBindGroup(layoutKey string, surface automata.Surface) (automata.BindGroup, error) {
	img, ok := surface.(SurfaceImage)
	if !ok {
		return nil, fmt.Errorf("renderer: surface %q was not created by this renderer", surface.Label())
	}
	group, err := r.backend.CreateSurfaceBindGroup(layoutKey, img.Provider(), img.Binding())
	if err != nil {
		return nil, fmt.Errorf("renderer: surface bind group %s: %w", layoutKey, err)
	}
	return &surfaceBindGroup{label: layoutKey + "/" + img.Label(), group: group}, nil
}

func (r *renderer) CreateSurfaceImage(label string, width, height uint32) (SurfaceImage, error) {
	provider := bind_group_provider.NewBindGroupProvider(label)
	if err := r.backend.CreateStorageTexture(provider, SurfaceBinding, width, height, SurfaceImageFill); err != nil {
		return nil, err
	}
	log.Printf("[Renderer] surface image %q created (%dx%d)", label, width, height)
	return NewSurfaceImage(provider, SurfaceBinding, width, height), nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginComputeFrame() (automata.ComputeEncoder, error) {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) EndComputeFrame() {
	r.backend.EndComputeFrame()
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelines[pipelineKey]
	r.mu.Unlock()

	if !exists || p.Pipeline() == nil {
		return fmt.Errorf("render pipeline %q not registered", pipelineKey)
	}

	r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	if r.backend != nil {
		r.backend.Release()
	}
}

// RenderBindGroupLayout returns the layout a render pipeline uses at group, with the
// vertex and fragment declarations merged. Bind groups drawn with the pipeline must be
// created from this descriptor so their layouts match.
//
// Parameters:
//   - p: a render pipeline
//   - group: the bind group index
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the merged descriptor, or an empty one if neither stage declares the group
func RenderBindGroupLayout(p pipeline.Pipeline, group int) wgpu.BindGroupLayoutDescriptor {
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if s := p.Shader(shader.ShaderTypeVertex); s != nil {
		vertex = s.BindGroupLayoutDescriptors()
	}
	if s := p.Shader(shader.ShaderTypeFragment); s != nil {
		fragment = s.BindGroupLayoutDescriptors()
	}
	return mergeBindGroupLayouts(vertex, fragment)[group]
}
