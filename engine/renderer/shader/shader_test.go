package shader

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestComputeShaderReflection(t *testing.T) {
	s := NewShader("automata", ShaderTypeCompute, WithSource(automata.AutomataShaderSource))

	var names []string
	for _, ep := range s.EntryPoints() {
		names = append(names, ep.Name)
	}
	if want := []string{"init", "update"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("entry points = %v, want %v", names, want)
	}
	if s.EntryPoint() != "init" || !s.HasEntryPoint("update") || s.HasEntryPoint("draw") {
		t.Fatalf("entry point lookup is wrong: %q", s.EntryPoint())
	}
	if got := s.WorkgroupSize("update"); got != [3]uint32{8, 8, 1} {
		t.Fatalf("workgroup size = %v, want [8 8 1]", got)
	}
	if got := s.WorkgroupSize("missing"); got != [3]uint32{} {
		t.Fatalf("unknown entry workgroup size = %v", got)
	}

	desc := s.BindGroupLayoutDescriptor(0)
	if len(desc.Entries) != 1 {
		t.Fatalf("group 0 entries = %d, want 1", len(desc.Entries))
	}
	e := desc.Entries[0]
	if e.Visibility != wgpu.ShaderStageCompute {
		t.Errorf("visibility = %v, want compute", e.Visibility)
	}
	if e.StorageTexture.Access != wgpu.StorageTextureAccessReadWrite ||
		e.StorageTexture.Format != wgpu.TextureFormatRGBA8Unorm ||
		e.StorageTexture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("storage texture entry = %+v", e.StorageTexture)
	}
	if s.BindGroupVarName(0, 0) != "grid" {
		t.Errorf("var name = %q, want grid", s.BindGroupVarName(0, 0))
	}
	if got := s.Includes(); !reflect.DeepEqual(got, []string{IncludePalette}) {
		t.Errorf("includes = %v", got)
	}
	if strings.Contains(s.Source(), "#include") {
		t.Error("processed source still contains an include directive")
	}
}

func TestDrawShaderPushConstantBlock(t *testing.T) {
	s := NewShader("draw", ShaderTypeCompute, WithSource(automata.DrawShaderSource))

	size, ok := s.StructSize("DrawPushConstants")
	if !ok || size != automata.DrawPushConstantsSize {
		t.Fatalf("DrawPushConstants size = %d (%v), want %d", size, ok, automata.DrawPushConstantsSize)
	}

	desc := s.BindGroupLayoutDescriptor(1)
	if len(desc.Entries) != 1 {
		t.Fatalf("group 1 entries = %d, want 1", len(desc.Entries))
	}
	buf := desc.Entries[0].Buffer
	if buf.Type != wgpu.BufferBindingTypeUniform || buf.MinBindingSize != automata.DrawPushConstantsSize {
		t.Fatalf("group 1 buffer = %+v", buf)
	}
	if b, ok := s.BindGroupFromVarName(1, "pc"); !ok || b != 0 {
		t.Fatalf("BindGroupFromVarName = %d, %v", b, ok)
	}
}

func TestStructLayouts(t *testing.T) {
	src := `
struct Inner { a: vec3<f32>, b: f32, }
struct Outer {
    m: mat4x4<f32>,
    inner: Inner,
    tail: array<vec2<f32>, 3>,
    flag: u32,
}
@compute @workgroup_size(4) fn main() {}
`
	s := NewShader("layouts", ShaderTypeCompute, WithSource(src))
	tests := map[string]uint64{
		"Inner": 16,
		"Outer": 64 + 16 + 24 + 8,
	}
	for name, want := range tests {
		if got, ok := s.StructSize(name); !ok || got != want {
			t.Errorf("StructSize(%s) = %d, %v; want %d", name, got, ok, want)
		}
	}
	if got := s.WorkgroupSize("main"); got != [3]uint32{4, 1, 1} {
		t.Errorf("workgroup size = %v, want [4 1 1]", got)
	}
}

func TestVertexAndFragmentReflection(t *testing.T) {
	src := `
// struct Commented { x: f32 }
struct VertexInput {
    @location(0) position: vec2<f32>,
    @location(1) uv: vec2<f32>,
}
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}
@group(0) @binding(0) var<uniform> camera: mat4x4<f32>;
@group(1) @binding(0) var surface: texture_2d<f32>;
@group(1) @binding(1) var surface_sampler: sampler;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(surface, surface_sampler, in.uv);
}
`
	vs := NewShader("present_vs", ShaderTypeVertex, WithSource(src))
	if vs.EntryPoint() != "vs_main" {
		t.Fatalf("vertex entry = %q", vs.EntryPoint())
	}
	layouts := vs.VertexLayouts()
	if len(layouts) != 1 || layouts[0].ArrayStride != 16 || len(layouts[0].Attributes) != 2 {
		t.Fatalf("vertex layouts = %+v", layouts)
	}
	if a := layouts[0].Attributes[1]; a.Offset != 8 || a.ShaderLocation != 1 || a.Format != wgpu.VertexFormatFloat32x2 {
		t.Fatalf("uv attribute = %+v", a)
	}
	if vs.BindGroupLayoutDescriptor(0).Entries[0].Buffer.MinBindingSize != 64 {
		t.Fatal("camera uniform should be 64 bytes")
	}

	fs := NewShader("present_fs", ShaderTypeFragment, WithSource(src))
	if fs.EntryPoint() != "fs_main" {
		t.Fatalf("fragment entry = %q", fs.EntryPoint())
	}
	entries := fs.BindGroupLayoutDescriptor(1).Entries
	if len(entries) != 2 {
		t.Fatalf("group 1 entries = %d, want 2", len(entries))
	}
	if entries[0].Texture.SampleType != wgpu.TextureSampleTypeFloat || entries[1].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Fatalf("group 1 = %+v", entries)
	}
	if entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Fatalf("visibility = %v, want fragment", entries[0].Visibility)
	}
	if len(fs.VertexLayouts()) != 0 {
		t.Fatal("fragment shaders should not reflect vertex layouts")
	}
}

func TestPreProcessor(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("extra", "const EXTRA: u32 = 7u;\n")

	out, err := pp.Process("#include <extra>\n  #include < extra >\nfn f() {}")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "const EXTRA") != 1 {
		t.Fatalf("snippet expanded %d times:\n%s", strings.Count(out, "const EXTRA"), out)
	}
	if !reflect.DeepEqual(pp.Included(), []string{"extra"}) {
		t.Fatalf("included = %v", pp.Included())
	}

	if _, err := pp.Process("fn f() {}\n#include <nope>"); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want an unknown include on line 2", err)
	}

	names := pp.Names()
	for _, want := range []string{IncludeCameraUniform, IncludeDrawPushConstants, IncludePalette, "extra"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("Names() missing %q", want)
		}
	}
}

func TestNewShaderPanicsOnBadSource(t *testing.T) {
	cases := map[string][]ShaderBuilderOption{
		"empty":           nil,
		"missing file":    {WithSourcePath("does/not/exist.wgsl")},
		"unknown include": {WithSource("#include <missing>")},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected a panic")
				}
			}()
			NewShader(name, ShaderTypeCompute, opts...)
		})
	}
}

func TestValidate(t *testing.T) {
	broken := NewShader("broken", ShaderTypeCompute, WithSource("@compute @workgroup_size(1) fn main( {"))
	if err := broken.Validate(); err != nil {
		t.Fatalf("validation disabled, got %v", err)
	}

	broken = NewShader("broken", ShaderTypeCompute, WithSource("@compute @workgroup_size(1) fn main( {"), WithValidation(true))
	if err := broken.Validate(); err == nil {
		t.Fatal("expected naga to reject malformed source")
	}
}
