package renderer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline_cache"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type plainSurface struct{}

func (plainSurface) Label() string      { return "plain" }
func (plainSurface) Width() uint32      { return 4 }
func (plainSurface) Height() uint32     { return 4 }
func (plainSurface) Generation() uint64 { return 0 }

func TestComputeRegistrationIsAsync(t *testing.T) {
	release := make(chan struct{})
	var compiles atomic.Int32

	r := newRenderer(BackendTypeWGPU, WithCompileWorkers(2))
	r.compileCompute = func(p pipeline.Pipeline) error {
		compiles.Add(1)
		<-release
		if p.PipelineKey() == "automata_draw" {
			return errors.New("push-constant block mismatch")
		}
		return nil
	}

	update := pipeline.NewPipeline("automata_update", pipeline.PipelineTypeCompute)
	draw := pipeline.NewPipeline("automata_draw", pipeline.PipelineTypeCompute)
	if err := r.RegisterPipelines(update, draw, update); err != nil {
		t.Fatalf("RegisterPipelines() = %v", err)
	}

	if got := r.PipelineStatus("automata_update"); got != pipeline_cache.StatusPending {
		t.Fatalf("status before compile = %v, want pending", got)
	}
	if got := r.PipelineStatus("never_registered"); got != pipeline_cache.StatusPending {
		t.Fatalf("unknown key status = %v, want pending", got)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.WaitForPipelines(ctx); err != nil {
		t.Fatalf("WaitForPipelines() = %v", err)
	}

	if got := r.PipelineStatus("automata_update"); got != pipeline_cache.StatusReady {
		t.Errorf("update status = %v, want ready", got)
	}
	if got := r.PipelineStatus("automata_draw"); got != pipeline_cache.StatusFailed {
		t.Errorf("draw status = %v, want failed", got)
	}
	if err := r.PipelineErr("automata_draw"); err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Errorf("draw error = %v", err)
	}
	if n := compiles.Load(); n != 2 {
		t.Errorf("compiles = %d, want 2 (duplicate key skipped)", n)
	}
	if len(r.Pipelines()) != 2 || r.Pipeline("automata_update") != update {
		t.Errorf("registry = %v", r.Pipelines())
	}
}

func TestBuildSurfaceBindGroupRejectsForeignSurface(t *testing.T) {
	r := newRenderer(BackendTypeWGPU)
	if _, err := r.BuildSurfaceBindGroup("automata_surface", plainSurface{}); err == nil {
		t.Fatal("expected an error for a surface the renderer did not create")
	}
}

func TestSurfaceImageFollowsProvider(t *testing.T) {
	provider := bind_group_provider.NewBindGroupProvider("pixel world")
	img := NewSurfaceImage(provider, SurfaceBinding, 1280, 720)

	if img.Label() != "pixel world" || img.Width() != 1280 || img.Height() != 720 {
		t.Fatalf("image = %s %dx%d", img.Label(), img.Width(), img.Height())
	}
	before := img.Generation()
	provider.SetTexture(SurfaceBinding, nil, nil)
	if img.Generation() == before {
		t.Fatal("replacing the texture should change the generation")
	}
	if img.View() != nil {
		t.Fatal("expected no view")
	}
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "camera", Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex},
		}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageFragment},
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
		}},
		1: {Label: "surface", Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
		}},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)
	if len(merged) != 2 {
		t.Fatalf("groups = %d, want 2", len(merged))
	}
	g0 := merged[0].Entries
	if len(g0) != 2 || g0[0].Binding != 0 || g0[1].Binding != 1 {
		t.Fatalf("group 0 entries = %+v", g0)
	}
	if g0[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("binding 0 visibility = %v", g0[0].Visibility)
	}
	if merged[1].Label != "surface" {
		t.Errorf("group 1 label = %q", merged[1].Label)
	}
}

func TestLayoutGroups(t *testing.T) {
	descriptors := map[int]wgpu.BindGroupLayoutDescriptor{1: {}, 0: {}}
	shared := map[int]string{0: "automata_surface", 3: "extra"}
	if got := layoutGroups(descriptors, shared); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Fatalf("layoutGroups = %v", got)
	}
}

func TestBuilderOptions(t *testing.T) {
	cache := pipeline_cache.NewPipelineCache(pipeline_cache.WithWorkers(1))
	r := newRenderer(BackendTypeWGPU,
		WithClearColor(ClearColor{0, 0, 0, 1}),
		WithPresentMode(PresentModeUncapped),
		WithPipelineCache(cache),
		WithForceSoftwareRenderer(true),
	)
	if r.clearColor != (ClearColor{0, 0, 0, 1}) {
		t.Errorf("clear color = %v", r.clearColor)
	}
	if r.pendingPresentMode == nil || *r.pendingPresentMode != PresentModeUncapped {
		t.Error("present mode not recorded")
	}
	if r.pipelineCache != cache || !r.forceFallbackAdapter {
		t.Error("cache or fallback flag not applied")
	}
	if newRenderer(BackendTypeWGPU).clearColor != DefaultClearColor {
		t.Error("default clear color not applied")
	}
	if ParsePresentMode("uncapped") != PresentModeUncapped || ParsePresentMode("vsync") != PresentModeVSync {
		t.Error("ParsePresentMode")
	}
}

const quadSource = `
@group(0) @binding(0) var<uniform> offset: vec4<f32>;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var samp: sampler;

struct VertexInput {
    @location(0) position: vec2<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, 0.0, 1.0) + offset;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return textureSample(tex, samp, vec2<f32>(0.5, 0.5));
}
`

func TestRenderBindGroupLayout(t *testing.T) {
	p := pipeline.NewPipeline("quad", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(shader.NewShader("quad_vs", shader.ShaderTypeVertex, shader.WithSource(quadSource))),
		pipeline.WithFragmentShader(shader.NewShader("quad_fs", shader.ShaderTypeFragment, shader.WithSource(quadSource))),
	)

	g1 := RenderBindGroupLayout(p, 1)
	if len(g1.Entries) != 2 {
		t.Fatalf("group 1 entries = %+v", g1.Entries)
	}
	for _, e := range g1.Entries {
		if e.Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
			t.Errorf("binding %d visibility = %v", e.Binding, e.Visibility)
		}
	}
	if len(RenderBindGroupLayout(p, 4).Entries) != 0 {
		t.Error("undeclared group should be empty")
	}
}

func TestRequiredDeviceFeatures(t *testing.T) {
	features, err := requiredDeviceFeatures(func(f wgpu.FeatureName) bool { return f == surfaceStorageFeature })
	if err != nil {
		t.Fatalf("requiredDeviceFeatures() = %v", err)
	}
	if len(features) != 1 || features[0] != surfaceStorageFeature {
		t.Errorf("features = %v", features)
	}

	if _, err := requiredDeviceFeatures(func(wgpu.FeatureName) bool { return false }); err == nil || !strings.Contains(err.Error(), "read_write") {
		t.Errorf("missing feature error = %v", err)
	}
}
