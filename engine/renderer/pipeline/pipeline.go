package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute or render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline created from one compute entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline created from a vertex and fragment shader.
	PipelineTypeRender
)

// DefaultPushConstantGroup is the bind group index that carries the emulated push-constant block.
const DefaultPushConstantGroup = 1

var (
	// ErrMissingShader is returned when a pipeline lacks a shader for its type.
	ErrMissingShader = errors.New("pipeline: missing shader")

	// ErrMissingEntryPoint is returned when the requested entry point is not declared.
	ErrMissingEntryPoint = errors.New("pipeline: entry point not found")

	// ErrPushConstantMismatch is returned when the shader's push-constant struct does not
	// match the declared block size.
	ErrPushConstantMismatch = errors.New("pipeline: push constant size mismatch")
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu           *sync.RWMutex
	pipelineType PipelineType
	pipelineKey  string

	vertexShader, fragmentShader, computeShader shader.Shader
	entryPoint                                  string

	pushConstantSize   uint32
	pushConstantStruct string
	pushConstantGroup  int
	sharedLayouts      map[int]string

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	blendEnabled bool
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState
}

// Pipeline describes a compute or render pipeline and holds the GPU object once created.
// Compute pipelines are created asynchronously, so the GPU handle is guarded.
type Pipeline interface {
	// Type returns the pipeline type.
	Type() PipelineType

	// PipelineKey returns the key the pipeline is registered and polled under.
	PipelineKey() string

	// Shader returns the shader attached for a stage, or nil.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the attached shader, or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// EntryPoint returns the compute entry point, defaulting to the shader's first one.
	EntryPoint() string

	// PushConstantSize returns the byte size of the push-constant block, or 0 if the
	// pipeline has none.
	PushConstantSize() uint32

	// PushConstantGroup returns the bind group index carrying the push-constant block.
	PushConstantGroup() int

	// SharedLayouts maps bind group indices to the keys of renderer-owned layouts. Groups
	// in this map reuse the shared layout so bind groups stay compatible across pipelines.
	//
	// Returns:
	//   - map[int]string: shared layout keys keyed by group index
	SharedLayouts() map[int]string

	// SharedGroups returns the group indices with shared layouts, sorted.
	SharedGroups() []int

	// Validate checks the description against the attached shaders: the shader for the
	// pipeline type is present, the entry point exists, and the push-constant struct
	// matches PushConstantSize.
	//
	// Returns:
	//   - error: a wrapped ErrMissingShader, ErrMissingEntryPoint or ErrPushConstantMismatch
	Validate() error

	// Pipeline returns the created GPU pipeline, or nil before creation.
	Pipeline() any

	BlendEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask
	BlendState() *wgpu.BlendState

	SetRenderPipeline(p *wgpu.RenderPipeline)
	SetComputePipeline(p *wgpu.ComputePipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with the given key and type.
//
// Parameters:
//   - pipelineKey: the unique registration key
//   - pipelineType: compute or render
//   - opts: functional options
//
// Returns:
//   - Pipeline: the new pipeline description
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		mu:                &sync.RWMutex{},
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		pushConstantGroup: DefaultPushConstantGroup,
		sharedLayouts:     make(map[int]string),
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) EntryPoint() string {
	if p.entryPoint != "" {
		return p.entryPoint
	}
	if p.computeShader != nil {
		return p.computeShader.EntryPoint()
	}
	return ""
}

func (p *pipeline) PushConstantSize() uint32 {
	return p.pushConstantSize
}

func (p *pipeline) PushConstantGroup() int {
	return p.pushConstantGroup
}

func (p *pipeline) SharedLayouts() map[int]string {
	return p.sharedLayouts
}

func (p *pipeline) SharedGroups() []int {
	groups := make([]int, 0, len(p.sharedLayouts))
	for g := range p.sharedLayouts {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}

func (p *pipeline) Validate() error {
	switch p.pipelineType {
	case PipelineTypeCompute:
		if p.computeShader == nil {
			return fmt.Errorf("%w: %s needs a compute shader", ErrMissingShader, p.pipelineKey)
		}
		if ep := p.EntryPoint(); ep == "" || !p.computeShader.HasEntryPoint(ep) {
			return fmt.Errorf("%w: %s has no compute entry point %q", ErrMissingEntryPoint, p.pipelineKey, ep)
		}
	case PipelineTypeRender:
		if p.vertexShader == nil || p.fragmentShader == nil {
			return fmt.Errorf("%w: %s needs vertex and fragment shaders", ErrMissingShader, p.pipelineKey)
		}
		if p.vertexShader.EntryPoint() == "" || p.fragmentShader.EntryPoint() == "" {
			return fmt.Errorf("%w: %s", ErrMissingEntryPoint, p.pipelineKey)
		}
	}

	if p.pushConstantSize == 0 {
		return nil
	}
	s := p.Shader(shader.ShaderTypeCompute)
	if p.pipelineType == PipelineTypeRender {
		s = p.vertexShader
	}
	size, ok := s.StructSize(p.pushConstantStruct)
	if !ok {
		return fmt.Errorf("%w: %s does not declare struct %q", ErrPushConstantMismatch, p.pipelineKey, p.pushConstantStruct)
	}
	if size != uint64(p.pushConstantSize) {
		return fmt.Errorf("%w: %s struct %q is %d bytes, want %d", ErrPushConstantMismatch, p.pipelineKey, p.pushConstantStruct, size, p.pushConstantSize)
	}
	return nil
}

func (p *pipeline) Pipeline() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.computePipeline = cp
}
