package scene

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
)

// PresentShaderSource draws the simulation image as a textured quad through the camera.
//
//go:embed assets/present.wgsl
var PresentShaderSource string

// DefaultPresentPipelineKey is the key of the render pipeline that presents the surface.
const DefaultPresentPipelineKey = "present_surface"

// Bind group indices of the present shader.
const (
	presentCameraGroup  = 0
	presentSurfaceGroup = 1
	presentSamplerSlot  = 1
)

// SimulationShaders holds the shaders the simulation pipelines are built from.
type SimulationShaders struct {
	Automata shader.Shader
	Draw     shader.Shader
	PresentV shader.Shader
	PresentF shader.Shader
}

// LoadSimulationShaders pre-processes and reflects the embedded simulation shaders.
//
// Parameters:
//   - validate: true to run naga over each shader before its pipeline is created
//
// Returns:
//   - SimulationShaders: the loaded shaders
func LoadSimulationShaders(validate bool) SimulationShaders {
	return SimulationShaders{
		Automata: shader.NewShader("automata", shader.ShaderTypeCompute,
			shader.WithSource(automata.AutomataShaderSource), shader.WithValidation(validate)),
		Draw: shader.NewShader("draw", shader.ShaderTypeCompute,
			shader.WithSource(automata.DrawShaderSource), shader.WithValidation(validate)),
		PresentV: shader.NewShader("present_vs", shader.ShaderTypeVertex,
			shader.WithSource(PresentShaderSource), shader.WithValidation(validate)),
		PresentF: shader.NewShader("present_fs", shader.ShaderTypeFragment,
			shader.WithSource(PresentShaderSource), shader.WithValidation(validate)),
	}
}

// ShaderTileSize returns the workgroup edge length shared by the init, update and draw
// entry points. The simulation's dispatch tiling must use the same value or the
// dispatches stop covering the whole surface.
//
// Parameters:
//   - shaders: the loaded shaders
//
// Returns:
//   - uint32: the workgroup edge length
//   - error: an error if an entry point is not square, not flat in z, or differs from the others
func ShaderTileSize(shaders SimulationShaders) (uint32, error) {
	sizes := []struct {
		entry string
		size  [3]uint32
	}{
		{automata.EntryInit, shaders.Automata.WorkgroupSize(automata.EntryInit)},
		{automata.EntryUpdate, shaders.Automata.WorkgroupSize(automata.EntryUpdate)},
		{automata.EntryDraw, shaders.Draw.WorkgroupSize(automata.EntryDraw)},
	}

	tile := sizes[0].size[0]
	for _, s := range sizes {
		if s.size[0] == 0 || s.size[0] != s.size[1] || s.size[2] != 1 {
			return 0, fmt.Errorf("%s workgroup size %v is not a square tile", s.entry, s.size)
		}
		if s.size[0] != tile {
			return 0, fmt.Errorf("%s workgroup size %v differs from %s %v", s.entry, s.size, sizes[0].entry, sizes[0].size)
		}
	}
	return tile, nil
}

// ComputePipelines builds the init, update and draw pipelines. Init and update share
// the automata module and both bind the surface through the shared layout at group 0.
//
// Parameters:
//   - keys: the pipeline and layout keys
//   - shaders: the loaded shaders
//
// Returns:
//   - []pipeline.Pipeline: init, update and draw, in that order
func ComputePipelines(keys automata.PipelineKeys, shaders SimulationShaders) []pipeline.Pipeline {
	surface := pipeline.WithSharedLayout(0, keys.SurfaceLayout)
	return []pipeline.Pipeline{
		pipeline.NewPipeline(keys.Init, pipeline.PipelineTypeCompute,
			pipeline.WithComputeShader(shaders.Automata, automata.EntryInit), surface),
		pipeline.NewPipeline(keys.Update, pipeline.PipelineTypeCompute,
			pipeline.WithComputeShader(shaders.Automata, automata.EntryUpdate), surface),
		pipeline.NewPipeline(keys.Draw, pipeline.PipelineTypeCompute,
			pipeline.WithComputeShader(shaders.Draw, automata.EntryDraw), surface,
			pipeline.WithPushConstants(automata.DrawPushConstantsSize, "DrawPushConstants")),
	}
}

// PresentPipeline builds the render pipeline that samples the surface onto a quad.
func PresentPipeline(key string, shaders SimulationShaders) pipeline.Pipeline {
	return pipeline.NewPipeline(key, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(shaders.PresentV),
		pipeline.WithFragmentShader(shaders.PresentF),
		pipeline.WithBlendEnabled(false),
	)
}

// quadVertex matches the VertexInput struct of the present shader.
type quadVertex struct {
	Position [2]float32
	UV       [2]float32
}

// SurfaceQuad returns the vertex and index data of a width x height quad centered on
// the world origin. The top-left corner samples texel (0, 0), so canvas y runs down
// while world y runs up.
//
// Parameters:
//   - width, height: the quad size in world units
//
// Returns:
//   - []byte: the vertex data
//   - []byte: the uint32 index data
//   - int: the index count
func SurfaceQuad(width, height float32) ([]byte, []byte, int) {
	hw, hh := width/2, height/2
	vertices := []quadVertex{
		{Position: [2]float32{-hw, -hh}, UV: [2]float32{0, 1}},
		{Position: [2]float32{hw, -hh}, UV: [2]float32{1, 1}},
		{Position: [2]float32{hw, hh}, UV: [2]float32{1, 0}},
		{Position: [2]float32{-hw, hh}, UV: [2]float32{0, 0}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return common.SliceToBytes(vertices), common.SliceToBytes(indices), len(indices)
}
