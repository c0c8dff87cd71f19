package pipeline

import (
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex shader for this pipeline.
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for this pipeline.
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithComputeShader sets the compute shader and, optionally, which of its entry points
// the pipeline is created from. An empty entryPoint uses the shader's first compute entry.
//
// Parameters:
//   - s: the compute shader
//   - entryPoint: the entry point name, e.g. "update"
//
// Returns:
//   - PipelineBuilderOption: a function that sets the compute stage
func WithComputeShader(s shader.Shader, entryPoint string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeShader = s
		p.entryPoint = entryPoint
	}
}

// WithPushConstants declares a push-constant block of size bytes whose WGSL layout is
// the struct named structName.
//
// Parameters:
//   - size: the block size in bytes
//   - structName: the WGSL struct the shader declares for the block
//
// Returns:
//   - PipelineBuilderOption: a function that sets the push-constant block
func WithPushConstants(size uint32, structName string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.pushConstantSize = size
		p.pushConstantStruct = structName
	}
}

// WithPushConstantGroup overrides the bind group index of the push-constant block.
func WithPushConstantGroup(group int) PipelineBuilderOption {
	return func(p *pipeline) {
		p.pushConstantGroup = group
	}
}

// WithSharedLayout makes group use the renderer-owned layout registered under layoutKey.
//
// Parameters:
//   - group: the bind group index
//   - layoutKey: the shared layout key
//
// Returns:
//   - PipelineBuilderOption: a function that records the shared layout
func WithSharedLayout(group int, layoutKey string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.sharedLayouts[group] = layoutKey
	}
}

// WithBlendEnabled sets whether alpha blending is enabled for this pipeline.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithCullMode sets the face culling mode for this pipeline.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the front face winding order for this pipeline.
func WithFrontFace(face wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = face
	}
}

// WithWriteMask sets the color write mask for this pipeline.
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = mask
	}
}

// WithBlendState sets a custom blend state. Only used when blending is enabled.
func WithBlendState(state *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = state
	}
}
