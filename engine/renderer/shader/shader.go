package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// ShaderType identifies the pipeline stage a shader is loaded for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing one or more @compute entry points.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment stage of a render pipeline.
	ShaderTypeFragment
)

// Stage is the stage of a single entry point.
type Stage int

const (
	StageCompute Stage = iota
	StageVertex
	StageFragment
)

// EntryPoint is one entry function declared in the source.
type EntryPoint struct {
	Name          string
	Stage         Stage
	WorkgroupSize [3]uint32 // [1,1,1] for compute entries without @workgroup_size, zero otherwise
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	path                       string
	rawSource                  string
	source                     string
	shaderType                 ShaderType
	entryPoints                []EntryPoint
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	structLayouts              map[string]wgslTypeLayout
	vertexLayouts              []wgpu.VertexBufferLayout
	module                     *wgpu.ShaderModuleDescriptor
	validate                   bool

	pp PreProcessor
}

// Shader is a loaded, pre-processed and reflected WGSL module for one pipeline stage.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source with includes expanded
	Source() string

	// ShaderType returns the stage this shader was loaded for.
	ShaderType() ShaderType

	// EntryPoint returns the first entry point matching the shader type, or "" if none.
	EntryPoint() string

	// EntryPoints returns the entry points matching the shader type in source order.
	// A compute module may declare several, e.g. init and update.
	//
	// Returns:
	//   - []EntryPoint: the matching entry points
	EntryPoints() []EntryPoint

	// HasEntryPoint reports whether name is an entry point of the shader's type.
	HasEntryPoint(name string) bool

	// WorkgroupSize returns the @workgroup_size of the named compute entry point.
	//
	// Parameters:
	//   - entryPoint: the compute entry point name
	//
	// Returns:
	//   - [3]uint32: the workgroup size, or zeros if the entry point is unknown
	WorkgroupSize(entryPoint string) [3]uint32

	// StructSize returns the host-shareable byte size of a struct declared in the source.
	//
	// Parameters:
	//   - name: the WGSL struct name
	//
	// Returns:
	//   - uint64: the struct size in bytes
	//   - bool: false if the struct is unknown or has an unresolvable field
	StructSize(name string) (uint64, bool)

	// BindGroupLayoutDescriptor retrieves the parsed layout for a bind group index.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty one if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves every parsed bind group layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at group and binding, or "".
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName finds the binding index of a variable in a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name
	//
	// Returns:
	//   - int: the binding index, or -1
	//   - bool: true if found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts returns the vertex buffer layouts of a vertex shader, one per
	// vertex-input struct in source order.
	VertexLayouts() []wgpu.VertexBufferLayout

	// Includes returns the names of the snippets expanded into the source.
	Includes() []string

	// Module returns the shader module descriptor built from the processed source.
	Module() *wgpu.ShaderModuleDescriptor

	// Validate runs the naga front end over the processed source when validation is
	// enabled. It returns nil when validation is disabled.
	//
	// Returns:
	//   - error: the naga diagnostic, wrapped with the shader key
	Validate() error
}

var _ Shader = &shader{}

// NewShader loads, pre-processes and reflects a WGSL shader. Exactly one of
// WithSourcePath or WithSource must be given. Panics if the source cannot be read or
// an include is unknown; both are asset bugs.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is loaded for
//   - options: source and pre-processor options
//
// Returns:
//   - Shader: the loaded shader
func NewShader(key string, shaderType ShaderType, options ...ShaderBuilderOption) Shader {
	s := &shader{
		key:                        key,
		shaderType:                 shaderType,
		bindGroupLayoutDescriptors: make(map[int]wgpu.BindGroupLayoutDescriptor),
		bindingVarNames:            make(map[int]map[int]string),
		structLayouts:              make(map[string]wgslTypeLayout),
		pp:                         NewPreProcessor(),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			panic(fmt.Sprintf("shader: failed to read source file %q: %v", s.path, err))
		}
		s.rawSource = string(data)
	}
	if s.rawSource == "" {
		panic(fmt.Sprintf("shader: %s must have a source provided via WithSourcePath or WithSource", key))
	}

	if err := s.parse(); err != nil {
		panic(fmt.Sprintf("shader: failed to process %s: %v", key, err))
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	if eps := s.EntryPoints(); len(eps) > 0 {
		return eps[0].Name
	}
	return ""
}

func (s *shader) EntryPoints() []EntryPoint {
	want := stageFor(s.shaderType)
	var out []EntryPoint
	for _, ep := range s.entryPoints {
		if ep.Stage == want {
			out = append(out, ep)
		}
	}
	return out
}

func (s *shader) HasEntryPoint(name string) bool {
	for _, ep := range s.EntryPoints() {
		if ep.Name == name {
			return true
		}
	}
	return false
}

func (s *shader) WorkgroupSize(entryPoint string) [3]uint32 {
	for _, ep := range s.entryPoints {
		if ep.Name == entryPoint && ep.Stage == StageCompute {
			return ep.WorkgroupSize
		}
	}
	return [3]uint32{}
}

func (s *shader) StructSize(name string) (uint64, bool) {
	l, ok := s.structLayouts[name]
	return l.size, ok
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Includes() []string {
	return s.pp.Included()
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Validate() error {
	if !s.validate {
		return nil
	}
	if _, err := naga.Compile(s.source); err != nil {
		return fmt.Errorf("shader %s failed validation: %w", s.key, err)
	}
	return nil
}

// parse expands includes, builds the module descriptor and extracts entry points,
// struct layouts and bind group layouts.
func (s *shader) parse() error {
	processed, err := s.pp.Process(s.rawSource)
	if err != nil {
		return err
	}
	s.source = processed
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}

	cleaned := stripComments(s.source)
	structs := parseStructBlocks(cleaned)
	s.structLayouts = computeStructSizes(structs)
	s.entryPoints = parseEntryPoints(cleaned)

	bindings := parseBindings(cleaned)
	s.bindGroupLayoutDescriptors = buildBindGroupLayouts(bindings, visibilityFor(s.shaderType), s.structLayouts)
	s.bindingVarNames = make(map[int]map[int]string)
	for _, b := range bindings {
		if s.bindingVarNames[b.group] == nil {
			s.bindingVarNames[b.group] = make(map[int]string)
		}
		s.bindingVarNames[b.group][b.binding] = b.name
	}

	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(structs)
	}
	return nil
}

func stageFor(t ShaderType) Stage {
	switch t {
	case ShaderTypeVertex:
		return StageVertex
	case ShaderTypeFragment:
		return StageFragment
	default:
		return StageCompute
	}
}

func visibilityFor(t ShaderType) wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}
