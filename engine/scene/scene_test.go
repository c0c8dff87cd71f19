package scene

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/camera"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline_cache"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type drawRecord struct {
	key        string
	mesh       bind_group_provider.BindGroupProvider
	instances  uint32
	bindGroups []bind_group_provider.BindGroupProvider
}

// fakeRenderer records the calls the scene makes. Methods the scene never calls are
// left to the nil embedded interface.
type fakeRenderer struct {
	renderer.Renderer

	status      map[string]pipeline_cache.Status
	shared      map[string]wgpu.BindGroupLayoutDescriptor
	pipelines   []pipeline.Pipeline
	layouts     map[string]wgpu.BindGroupLayoutDescriptor
	samplers    map[string]int
	meshIndices int
	surfaces    int
	passes      []string
	writes      []bind_group_provider.BufferWrite
	draws       []drawRecord
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		status:   make(map[string]pipeline_cache.Status),
		shared:   make(map[string]wgpu.BindGroupLayoutDescriptor),
		layouts:  make(map[string]wgpu.BindGroupLayoutDescriptor),
		samplers: make(map[string]int),
	}
}

func (f *fakeRenderer) PipelineStatus(key string) pipeline_cache.Status {
	return f.status[key]
}

func (f *fakeRenderer) RegisterSharedLayout(key string, descriptor wgpu.BindGroupLayoutDescriptor) error {
	f.shared[key] = descriptor
	return nil
}

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.pipelines = append(f.pipelines, pipelines...)
	return nil
}

func (f *fakeRenderer) CreateSurfaceImage(label string, width, height uint32) (renderer.SurfaceImage, error) {
	f.surfaces++
	provider := bind_group_provider.NewBindGroupProvider(label)
	return renderer.NewSurfaceImage(provider, renderer.SurfaceBinding, width, height), nil
}

func (f *fakeRenderer) BuildSurfaceBindGroup(layoutKey string, surface automata.Surface) (automata.BindGroup, error) {
	return fakeGroup(layoutKey + "/" + surface.Label()), nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, _ map[int]uint64) error {
	f.layouts[provider.Label()] = descriptor
	return nil
}

func (f *fakeRenderer) InitMeshBuffers(_ bind_group_provider.BindGroupProvider, _, _ []byte, indexCount int) error {
	f.meshIndices = indexCount
	return nil
}

func (f *fakeRenderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, _ common.SamplerStagingData) error {
	f.samplers[provider.Label()] = bindingKey
	return nil
}

func (f *fakeRenderer) BeginComputePass(label string) automata.ComputePass {
	f.passes = append(f.passes, label)
	return fakePass{}
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeRenderer) DrawCall(key string, mesh bind_group_provider.BindGroupProvider, instances uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, drawRecord{key: key, mesh: mesh, instances: instances,
		bindGroups: append([]bind_group_provider.BindGroupProvider(nil), bindGroups...)})
	return nil
}

type fakeGroup string

func (g fakeGroup) Label() string { return string(g) }

type fakePass struct{}

func (fakePass) SetBindGroup(uint32, automata.BindGroup) {}
func (fakePass) SetPipeline(string) error { return nil }
func (fakePass) SetPushConstants(uint32, []byte) {}
func (fakePass) DispatchWorkgroups(uint32, uint32, uint32) {}
func (fakePass) End() {}

func newTestScene(t *testing.T, options ...SceneBuilderOption) (Scene, *fakeRenderer) {
	t.Helper()
	r := newFakeRenderer()
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	return NewScene("pixel world", cam, r, options...), r
}

func TestNewSceneRegistersEverything(t *testing.T) {
	s, r := newTestScene(t, WithSurfaceSize(320, 200))

	keys := automata.DefaultPipelineKeys()
	surfaceLayout, ok := r.shared[keys.SurfaceLayout]
	if !ok || len(surfaceLayout.Entries) != 1 {
		t.Fatalf("shared layout = %+v", surfaceLayout)
	}
	if surfaceLayout.Entries[0].StorageTexture.Access != wgpu.StorageTextureAccessReadWrite {
		t.Errorf("surface access = %v", surfaceLayout.Entries[0].StorageTexture.Access)
	}

	var got []string
	for _, p := range r.pipelines {
		got = append(got, p.PipelineKey())
	}
	want := []string{keys.Init, keys.Update, keys.Draw, DefaultPresentPipelineKey}
	if len(got) != len(want) {
		t.Fatalf("registered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pipeline %d = %q, want %q", i, got[i], want[i])
		}
	}

	if r.surfaces != 1 || s.Surface().Width() != 320 || s.Surface().Height() != 200 {
		t.Errorf("surface = %d created, %dx%d", r.surfaces, s.Surface().Width(), s.Surface().Height())
	}
	if s.SurfaceSize().X() != 320 || s.SurfaceSize().Y() != 200 {
		t.Errorf("surface size = %v", s.SurfaceSize())
	}
	if s.Simulation().Surface() != automata.Surface(s.Surface()) {
		t.Error("simulation not bound to the scene surface")
	}
	if r.meshIndices != 6 {
		t.Errorf("quad indices = %d, want 6", r.meshIndices)
	}
	if r.samplers["pixel world_present"] != presentSamplerSlot {
		t.Errorf("samplers = %v", r.samplers)
	}
	if len(r.layouts["pixel world_present"].Entries) != 2 {
		t.Errorf("present layout = %+v", r.layouts["pixel world_present"])
	}
}

func TestPrepareComputeRunsTheGraph(t *testing.T) {
	s, r := newTestScene(t)

	if err := s.PrepareCompute(automata.FrameParams{}, r); err != nil {
		t.Fatalf("PrepareCompute() = %v", err)
	}
	if len(r.passes) != 0 {
		t.Errorf("passes recorded before pipelines are ready: %v", r.passes)
	}

	keys := automata.DefaultPipelineKeys()
	r.status[keys.Init] = pipeline_cache.StatusReady
	r.status[keys.Update] = pipeline_cache.StatusReady
	for range 2 {
		if err := s.PrepareCompute(automata.FrameParams{}, r); err != nil {
			t.Fatalf("PrepareCompute() = %v", err)
		}
	}
	if len(r.passes) == 0 {
		t.Fatal("no automata passes once pipelines are ready")
	}
	if st := s.Simulation().Stats(); st.Frames != 3 {
		t.Errorf("frames = %d, want 3", st.Frames)
	}
}

func TestDrawCallsUploadsCameraAndDrawsQuad(t *testing.T) {
	s, r := newTestScene(t)

	if err := s.DrawCalls(); err != nil {
		t.Fatalf("DrawCalls() = %v", err)
	}
	if len(r.writes) != 1 || len(r.writes[0].Data) != camera.GPUCameraUniformSize {
		t.Fatalf("writes = %+v", r.writes)
	}
	if r.writes[0].Provider != s.Camera().BindGroupProvider() {
		t.Error("camera uniform written to the wrong provider")
	}
	if len(r.draws) != 1 {
		t.Fatalf("draws = %d", len(r.draws))
	}
	d := r.draws[0]
	if d.key != DefaultPresentPipelineKey || d.instances != 1 || len(d.bindGroups) != 2 {
		t.Fatalf("draw = %+v", d)
	}
	if d.bindGroups[0] != s.Camera().BindGroupProvider() {
		t.Error("group 0 is not the camera")
	}
}

func TestSurfaceQuad(t *testing.T) {
	vertices, indices, count := SurfaceQuad(1280, 720)
	if count != 6 || len(indices) != 6*4 {
		t.Fatalf("indices = %d bytes, count %d", len(indices), count)
	}
	if len(vertices) != 4*16 {
		t.Fatalf("vertices = %d bytes, want 64", len(vertices))
	}
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(vertices[i*4:]))
	}
	// Vertex 3 is the top-left corner and samples texel (0, 0).
	if f(12) != -640 || f(13) != 360 || f(14) != 0 || f(15) != 0 {
		t.Errorf("top-left vertex = (%v, %v) uv (%v, %v)", f(12), f(13), f(14), f(15))
	}
}

func TestComputePipelines(t *testing.T) {
	shaders := LoadSimulationShaders(false)
	keys := automata.DefaultPipelineKeys()
	ps := ComputePipelines(keys, shaders)

	entries := []string{automata.EntryInit, automata.EntryUpdate, automata.EntryDraw}
	for i, p := range ps {
		if p.EntryPoint() != entries[i] {
			t.Errorf("%s entry = %q, want %q", p.PipelineKey(), p.EntryPoint(), entries[i])
		}
		if p.SharedLayouts()[0] != keys.SurfaceLayout {
			t.Errorf("%s group 0 = %q", p.PipelineKey(), p.SharedLayouts()[0])
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", p.PipelineKey(), err)
		}
	}
	if ps[2].PushConstantSize() != automata.DrawPushConstantsSize || ps[0].PushConstantSize() != 0 {
		t.Errorf("push constant sizes = %d, %d", ps[0].PushConstantSize(), ps[2].PushConstantSize())
	}
	if ws := shaders.Automata.WorkgroupSize(automata.EntryUpdate); ws != [3]uint32{automata.DefaultTileSize, automata.DefaultTileSize, 1} {
		t.Errorf("update workgroup size = %v", ws)
	}
}

func TestPresentShaderReflection(t *testing.T) {
	shaders := LoadSimulationShaders(false)

	layouts := shaders.PresentV.VertexLayouts()
	if len(layouts) != 1 || layouts[0].ArrayStride != 16 || len(layouts[0].Attributes) != 2 {
		t.Fatalf("vertex layouts = %+v", layouts)
	}
	if !shaders.PresentF.HasEntryPoint("fs_main") || !shaders.PresentV.HasEntryPoint("vs_main") {
		t.Error("present entry points missing")
	}
	if g := shaders.PresentV.BindGroupLayoutDescriptor(presentCameraGroup); len(g.Entries) != 1 || g.Entries[0].Buffer.MinBindingSize != camera.GPUCameraUniformSize {
		t.Errorf("camera group = %+v", g)
	}
	if includes := shaders.PresentV.Includes(); len(includes) != 1 || includes[0] != shader.IncludeCameraUniform {
		t.Errorf("includes = %v", includes)
	}
}

func TestShaderTileSize(t *testing.T) {
	shaders := LoadSimulationShaders(false)
	tile, err := ShaderTileSize(shaders)
	if err != nil || tile != automata.DefaultTileSize {
		t.Fatalf("ShaderTileSize() = %d, %v", tile, err)
	}

	shaders.Draw = shader.NewShader("wide_draw", shader.ShaderTypeCompute, shader.WithSource(`
@compute @workgroup_size(16, 16, 1)
fn draw(@builtin(global_invocation_id) id: vec3<u32>) {
}
`))
	if _, err := ShaderTileSize(shaders); err == nil {
		t.Fatal("expected an error when draw uses a different workgroup size")
	}
}

func TestNewSceneTileCoversSurface(t *testing.T) {
	s, _ := newTestScene(t, WithSurfaceSize(1280, 720))
	if got := s.Simulation().TileSize(); got != automata.DefaultTileSize {
		t.Fatalf("tile size = %d", got)
	}
	wg := s.Simulation().Workgroups()
	if wg[0]*automata.DefaultTileSize < 1280 || wg[1]*automata.DefaultTileSize < 720 {
		t.Errorf("workgroups %v do not cover 1280x720", wg)
	}
}

func TestNewSceneRejectsForeignTileSize(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected NewScene to panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "tile size 16") {
			t.Errorf("panic = %v", r)
		}
	}()
	newTestScene(t, WithSimulationOptions(automata.WithTileSize(16)))
}
