package renderer

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// computeEntry is a compiled compute pipeline plus the uniform block standing in for its
// push constants.
type computeEntry struct {
	pipeline    pipeline.Pipeline
	compute     *wgpu.ComputePipeline
	push        bind_group_provider.BindGroupProvider
	pushGroup   uint32
	pushBinding int
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	clearColor  ClearColor

	// Shared layouts are read from compile workers while the frame loop runs.
	layoutsMu     *sync.RWMutex
	sharedLayouts map[string]*wgpu.BindGroupLayout

	computeMu        *sync.RWMutex
	computePipelines map[string]*computeEntry

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Compute frame state for batching all compute passes into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder
}

type wgpuRendererBackend interface {
	SetDevice(device *wgpu.Device)
	SetQueue(queue *wgpu.Queue)
	SetAdapter(adapter *wgpu.Adapter)
	SetSurface(surface *wgpu.Surface)

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the present pass clears to. Takes effect on the next
	// ConfigureSurface.
	SetClearColor(color ClearColor)

	// RegisterSharedLayout creates a bind group layout that several pipelines and bind
	// groups can reference by key.
	//
	// Parameters:
	//   - key: the layout key
	//   - descriptor: the layout descriptor
	//
	// Returns:
	//   - error: an error if the key is taken or creation fails
	RegisterSharedLayout(key string, descriptor wgpu.BindGroupLayoutDescriptor) error

	// SharedLayout returns the layout registered under key, or nil.
	SharedLayout(key string) *wgpu.BindGroupLayout

	// RegisterRenderPipeline creates the shader modules, pipeline layout and render pipeline
	// for p and stores the result on p.
	//
	// Parameters:
	//   - p: the pipeline object containing the source code and configuration for the pipeline
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// CompileComputePipeline validates p and creates its compute pipeline and push-constant
	// block. It blocks on the device and is meant to run on a compile worker.
	//
	// Parameters:
	//   - p: the compute pipeline description
	//
	// Returns:
	//   - error: an error if validation or creation fails
	CompileComputePipeline(p pipeline.Pipeline) error

	// InitMeshBuffers inits the vertex and index buffers for a mesh based on the provided vertex and index data, and stores them on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created vertex and index buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices represented in the indexData, used for draw calls
	//
	// Returns:
	//   - error: an error if the buffers could not be created or initialized, otherwise nil
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates missing buffers and the bind group for a provider from a layout
	// descriptor. Texture, storage texture and sampler bindings must already be populated.
	//
	// Parameters:
	//   - provider: the provider to populate
	//   - descriptor: the layout descriptor defining the entries
	//   - bufferUsageOverrides: extra usage flags ORed in per binding (nil safe)
	//   - bufferSizeOverrides: buffer sizes used instead of MinBindingSize per binding (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// CreateStorageTexture creates an RGBA8 texture usable as a storage image, a sampled
	// texture and a copy destination, fills every texel with fill, and stores the texture
	// and view on the provider.
	//
	// Parameters:
	//   - provider: the provider to store the texture on
	//   - binding: the binding index for the texture
	//   - width, height: the texture size in texels
	//   - fill: the RGBA value written to every texel
	//
	// Returns:
	//   - error: an error if the texture or its view could not be created
	CreateStorageTexture(provider bind_group_provider.BindGroupProvider, binding int, width, height uint32, fill [4]byte) error

	// CreateSurfaceBindGroup pairs a shared layout with a provider's texture view.
	//
	// Parameters:
	//   - layoutKey: the shared layout key
	//   - provider: the provider holding the view
	//   - binding: the binding index of the view
	//
	// Returns:
	//   - *wgpu.BindGroup: the new bind group
	//   - error: an error if the layout or view is missing or creation fails
	CreateSurfaceBindGroup(layoutKey string, provider bind_group_provider.BindGroupProvider, binding int) (*wgpu.BindGroup, error)

	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame creates the command encoder that all compute passes of the frame
	// are recorded on. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - automata.ComputeEncoder: the encoder passes are opened on
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() (automata.ComputeEncoder, error)

	// EndComputeFrame finishes the compute encoder and submits it.
	EndComputeFrame()

	BeginFrame() error
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider)
	EndFrame()
	Present()

	// Release frees the push-constant blocks and shared layouts.
	Release()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

// surfaceStorageFeature allows rgba8unorm storage textures to be bound read_write, which
// the simulation surface layout requires.
var surfaceStorageFeature = wgpu.FeatureName(wgpu.NativeFeatureTextureAdapterSpecificFormatFeatures)

// requiredDeviceFeatures lists the optional features the device must be created with.
//
// Parameters:
//   - has: reports whether the adapter supports a feature
//
// Returns:
//   - []wgpu.FeatureName: the features to request
//   - error: an error naming the first feature the adapter lacks
func requiredDeviceFeatures(has func(wgpu.FeatureName) bool) ([]wgpu.FeatureName, error) {
	if !has(surfaceStorageFeature) {
		return nil, errors.New("adapter lacks TEXTURE_ADAPTER_SPECIFIC_FORMAT_FEATURES, so the simulation surface cannot be a read_write rgba8unorm storage texture")
	}
	return []wgpu.FeatureName{surfaceStorageFeature}, nil
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, clearColor ClearColor) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:               &sync.Mutex{},
		instance:         wgpu.CreateInstance(nil),
		presentMode:      wgpu.PresentModeFifo,
		clearColor:       clearColor,
		layoutsMu:        &sync.RWMutex{},
		sharedLayouts:    make(map[string]*wgpu.BindGroupLayout),
		computeMu:        &sync.RWMutex{},
		computePipelines: make(map[string]*computeEntry),
	}
	w.SetSurface(w.instance.CreateSurface(surfaceDescriptor))

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: no compatible adapter: %v", err))
	}
	w.SetAdapter(a)

	features, err := requiredDeviceFeatures(a.HasFeature)
	if err != nil {
		panic(fmt.Sprintf("renderer: %v", err))
	}

	limits := wgpu.DefaultLimits()

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: device request failed: %v", err))
	}
	w.SetDevice(d)
	w.SetQueue(d.GetQueue())

	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	// View is set per-frame to the swapchain view.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: b.clearColor[0], G: b.clearColor[1], B: b.clearColor[2], A: b.clearColor[3],
				},
			},
		},
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(color ClearColor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = color
}

func (b *wgpuRendererBackendImpl) RegisterSharedLayout(key string, descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.layoutsMu.Lock()
	defer b.layoutsMu.Unlock()

	if _, exists := b.sharedLayouts[key]; exists {
		return fmt.Errorf("renderer: shared layout %q already registered", key)
	}
	if descriptor.Label == "" {
		descriptor.Label = key
	}
	layout, err := b.device.CreateBindGroupLayout(&descriptor)
	if err != nil {
		return fmt.Errorf("renderer: shared layout %q: %w", key, err)
	}
	b.sharedLayouts[key] = layout
	return nil
}

func (b *wgpuRendererBackendImpl) SharedLayout(key string) *wgpu.BindGroupLayout {
	b.layoutsMu.RLock()
	defer b.layoutsMu.RUnlock()
	return b.sharedLayouts[key]
}

// pipelineLayout builds the pipeline layout for p. Groups with a shared layout key reuse
// the registered layout; the rest are created from the reflected descriptors. Gaps below
// the highest group get an empty layout.
func (b *wgpuRendererBackendImpl) pipelineLayout(p pipeline.Pipeline, descriptors map[int]wgpu.BindGroupLayoutDescriptor) (*wgpu.PipelineLayout, []*wgpu.BindGroupLayout, error) {
	groups := layoutGroups(descriptors, p.SharedLayouts())
	maxGroup := -1
	if len(groups) > 0 {
		maxGroup = groups[len(groups)-1]
	}

	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for _, g := range groups {
		if key, shared := p.SharedLayouts()[g]; shared {
			layout := b.SharedLayout(key)
			if layout == nil {
				return nil, nil, fmt.Errorf("group %d: shared layout %q is not registered", g, key)
			}
			bindGroupLayouts[g] = layout
			continue
		}
		desc := descriptors[g]
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = layout
	}
	for g := range bindGroupLayouts {
		if bindGroupLayouts[g] != nil {
			continue
		}
		empty, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("%s empty group %d", p.PipelineKey(), g)})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create empty layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = empty
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, nil, err
	}
	return layout, bindGroupLayouts, nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	for _, s := range []shader.Shader{vertexShader, fragmentShader} {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	pipelineLayout, _, err := b.pipelineLayout(p, merged)
	if err != nil {
		return fmt.Errorf("renderer: %s: %w", p.PipelineKey(), err)
	}

	b.mu.Lock()
	format := *b.surfaceFormat
	b.mu.Unlock()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				func() wgpu.ColorTargetState {
					state := wgpu.ColorTargetState{
						Format:    format,
						WriteMask: p.WriteMask(),
					}
					if p.BlendEnabled() {
						state.Blend = p.BlendState()
					}
					return state
				}(),
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)

	return nil
}

func (b *wgpuRendererBackendImpl) CompileComputePipeline(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	computeShader := p.Shader(shader.ShaderTypeCompute)
	if err := computeShader.Validate(); err != nil {
		return err
	}

	module, err := b.device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return fmt.Errorf("shader module %s: %w", computeShader.Key(), err)
	}

	descriptors := computeShader.BindGroupLayoutDescriptors()
	layout, groupLayouts, err := b.pipelineLayout(p, descriptors)
	if err != nil {
		return err
	}

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: p.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	entry := &computeEntry{pipeline: p, compute: created}
	if size := p.PushConstantSize(); size > 0 {
		group := p.PushConstantGroup()
		desc := descriptors[group]
		if len(desc.Entries) != 1 || desc.Entries[0].Buffer.Type != wgpu.BufferBindingTypeUniform {
			return fmt.Errorf("push-constant group %d must declare exactly one uniform", group)
		}
		binding := int(desc.Entries[0].Binding)
		push := bind_group_provider.NewBindGroupProvider(
			p.PipelineKey()+" push constants",
			bind_group_provider.WithBindGroupLayout(groupLayouts[group]),
		)
		if err := b.initBindGroup(push, desc, nil, map[int]uint64{binding: uint64(size)}); err != nil {
			return fmt.Errorf("push-constant block: %w", err)
		}
		entry.push = push
		entry.pushGroup = uint32(group)
		entry.pushBinding = binding
	}

	p.SetComputePipeline(created)

	b.computeMu.Lock()
	b.computePipelines[p.PipelineKey()] = entry
	b.computeMu.Unlock()
	return nil
}

// readyCompute returns the compiled entry for key, or nil.
func (b *wgpuRendererBackendImpl) readyCompute(key string) *computeEntry {
	b.computeMu.RLock()
	defer b.computeMu.RUnlock()
	return b.computePipelines[key]
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            provider.Label() + " Vertex Buffer",
			Size:             uint64(len(vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            provider.Label() + " Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}

	provider.SetIndexCount(indexCount)

	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

// initBindGroup is InitBindGroup without the frame lock. It only touches the device and
// the given provider, so compile workers call it directly.
func (b *wgpuRendererBackendImpl) initBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined ||
			entry.StorageTexture.Access != wgpu.StorageTextureAccessUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		if isTexture {
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("texture binding %d of %q has no texture view", binding, provider.Label())
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
		} else if isSampler {
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("sampler binding %d of %q has no sampler", binding, provider.Label())
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Sampler: samp,
			}
		} else {
			// Buffer binding, created if not already present
			usage := bufferUsageFor(entry.Buffer.Type)
			if overrideUsage, ok := bufferUsageOverrides[binding]; ok {
				usage |= overrideUsage
			}

			buf := provider.Buffer(binding)
			if buf == nil {
				var bufErr error
				bufSize := entry.Buffer.MinBindingSize
				if overrideSize, ok := bufferSizeOverrides[binding]; ok {
					bufSize = overrideSize
				}
				buf, bufErr = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: provider.Label() + " Buffer",
					Size:  bufSize,
					Usage: usage,
				})
				if bufErr != nil {
					return bufErr
				}
				provider.SetBuffer(binding, buf)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuRendererBackendImpl) CreateStorageTexture(provider bind_group_provider.BindGroupProvider, binding int, width, height uint32, fill [4]byte) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("renderer: storage texture %q must have a non-zero size, got %dx%d", provider.Label(), width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     provider.Label() + " Storage Texture",
		Usage:     wgpu.TextureUsageCopyDst | wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("renderer: storage texture %q: %w", provider.Label(), err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		common.FillPixels(width, height, fill),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("renderer: storage texture view %q: %w", provider.Label(), err)
	}
	provider.SetTexture(binding, tex, view)
	return nil
}

func (b *wgpuRendererBackendImpl) CreateSurfaceBindGroup(layoutKey string, provider bind_group_provider.BindGroupProvider, binding int) (*wgpu.BindGroup, error) {
	layout := b.SharedLayout(layoutKey)
	if layout == nil {
		return nil, fmt.Errorf("shared layout %q is not registered", layoutKey)
	}
	view := provider.TextureView(binding)
	if view == nil {
		return nil, fmt.Errorf("surface %q has no view at binding %d", provider.Label(), binding)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  layoutKey + " " + provider.Label(),
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: uint32(binding), TextureView: view},
		},
	})
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeNearest),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeNearest),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginComputeFrame() (automata.ComputeEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder != nil {
		return nil, errors.New("renderer: previous compute frame not ended")
	}
	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Compute Frame"})
	if err != nil {
		return nil, err
	}
	b.computeFrameEncoder = encoder
	return &wgpuComputeEncoder{backend: b, encoder: encoder}, nil
}

func (b *wgpuRendererBackendImpl) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	if err != nil {
		log.Printf("[Renderer] compute frame dropped: finish failed: %v", err)
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.computeFrameEncoder.Release()
	b.computeFrameEncoder = nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	instanceCount uint32,
	bindGroups []bind_group_provider.BindGroupProvider,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	renderPipeline := p.Pipeline().(*wgpu.RenderPipeline)
	b.framePass.SetPipeline(renderPipeline)

	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}

	b.framePass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(meshProvider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.computeMu.Lock()
	for key, entry := range b.computePipelines {
		if entry.push != nil {
			entry.push.Release()
		}
		if entry.compute != nil {
			entry.compute.Release()
		}
		delete(b.computePipelines, key)
	}
	b.computeMu.Unlock()

	b.layoutsMu.Lock()
	for key, layout := range b.sharedLayouts {
		layout.Release()
		delete(b.sharedLayouts, key)
	}
	b.layoutsMu.Unlock()
}

func (b *wgpuRendererBackendImpl) SetDevice(device *wgpu.Device) {
	b.device = device
}

func (b *wgpuRendererBackendImpl) SetQueue(queue *wgpu.Queue) {
	b.queue = queue
}

func (b *wgpuRendererBackendImpl) SetAdapter(adapter *wgpu.Adapter) {
	b.adapter = adapter
}

func (b *wgpuRendererBackendImpl) SetSurface(surface *wgpu.Surface) {
	b.surface = surface
}

// bufferUsageFor derives the usage flags of a buffer created for a binding type.
func bufferUsageFor(t wgpu.BufferBindingType) wgpu.BufferUsage {
	switch t {
	case wgpu.BufferBindingTypeUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageCopyDst
	}
}

// layoutGroups returns every group index that needs a layout: reflected groups plus
// groups pinned to a shared layout, sorted.
func layoutGroups(descriptors map[int]wgpu.BindGroupLayoutDescriptor, shared map[int]string) []int {
	seen := make(map[int]bool, len(descriptors)+len(shared))
	for g := range descriptors {
		seen[g] = true
	}
	for g := range shared {
		seen[g] = true
	}
	groups := make([]int, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}

// mergeBindGroupLayouts merges the bind group layout descriptors from a vertex and fragment shader
// into a unified set of descriptors suitable for a render pipeline layout.
//
// For each group index present in either shader:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one shader are included with their original visibility
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor,
) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	for g, vDesc := range vertexLayouts {
		merged[g] = vDesc
	}
	for g, fDesc := range fragmentLayouts {
		vDesc, hasV := merged[g]
		if !hasV {
			merged[g] = fDesc
			continue
		}

		entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
		for _, e := range vDesc.Entries {
			entryMap[e.Binding] = e
		}
		for _, e := range fDesc.Entries {
			if existing, ok := entryMap[e.Binding]; ok {
				existing.Visibility |= e.Visibility
				entryMap[e.Binding] = existing
			} else {
				entryMap[e.Binding] = e
			}
		}

		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
		for _, e := range entryMap {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})

		merged[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   vDesc.Label,
			Entries: entries,
		}
	}

	return merged
}
