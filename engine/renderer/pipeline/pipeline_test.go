package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/shader"
)

func TestComputePipelineValidate(t *testing.T) {
	automataShader := shader.NewShader("automata", shader.ShaderTypeCompute, shader.WithSource(automata.AutomataShaderSource))
	drawShader := shader.NewShader("draw", shader.ShaderTypeCompute, shader.WithSource(automata.DrawShaderSource))

	tests := []struct {
		name    string
		p       Pipeline
		wantErr error
	}{
		{
			name: "update entry",
			p:    NewPipeline("automata_update", PipelineTypeCompute, WithComputeShader(automataShader, "update")),
		},
		{
			name: "default entry is init",
			p:    NewPipeline("automata_init", PipelineTypeCompute, WithComputeShader(automataShader, "")),
		},
		{
			name: "draw with matching block",
			p: NewPipeline("automata_draw", PipelineTypeCompute,
				WithComputeShader(drawShader, "draw"),
				WithPushConstants(automata.DrawPushConstantsSize, "DrawPushConstants")),
		},
		{
			name:    "no shader",
			p:       NewPipeline("empty", PipelineTypeCompute),
			wantErr: ErrMissingShader,
		},
		{
			name:    "unknown entry",
			p:       NewPipeline("bad_entry", PipelineTypeCompute, WithComputeShader(automataShader, "draw")),
			wantErr: ErrMissingEntryPoint,
		},
		{
			name: "block size mismatch",
			p: NewPipeline("short_block", PipelineTypeCompute,
				WithComputeShader(drawShader, "draw"),
				WithPushConstants(20, "DrawPushConstants")),
			wantErr: ErrPushConstantMismatch,
		},
		{
			name: "block struct missing",
			p: NewPipeline("no_block", PipelineTypeCompute,
				WithComputeShader(automataShader, "update"),
				WithPushConstants(24, "DrawPushConstants")),
			wantErr: ErrPushConstantMismatch,
		},
		{
			name:    "render without fragment",
			p:       NewPipeline("present", PipelineTypeRender, WithVertexShader(drawShader)),
			wantErr: ErrMissingShader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntryPointAndSharedLayouts(t *testing.T) {
	s := shader.NewShader("automata", shader.ShaderTypeCompute, shader.WithSource(automata.AutomataShaderSource))
	p := NewPipeline("automata_update", PipelineTypeCompute,
		WithComputeShader(s, "update"),
		WithSharedLayout(2, "extra"),
		WithSharedLayout(0, "automata_surface"),
	)
	if p.EntryPoint() != "update" {
		t.Fatalf("entry point = %q", p.EntryPoint())
	}
	if got := p.SharedGroups(); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("shared groups = %v", got)
	}
	if p.SharedLayouts()[0] != "automata_surface" {
		t.Fatalf("group 0 layout = %q", p.SharedLayouts()[0])
	}
	if p.PushConstantSize() != 0 || p.PushConstantGroup() != DefaultPushConstantGroup {
		t.Fatalf("unexpected push-constant defaults: %d @ %d", p.PushConstantSize(), p.PushConstantGroup())
	}
}
