package automata

import (
	"fmt"

	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline_cache"
)

type fakePipelines map[string]pipeline_cache.Status

func (f fakePipelines) PipelineStatus(key string) pipeline_cache.Status {
	return f[key]
}

// dispatch is one recorded compute pass.
type dispatch struct {
	label      string
	pipeline   string
	bindGroup  BindGroup
	slot       uint32
	push       []byte
	workgroups [3]uint32
	ended      bool
}

type recordingEncoder struct {
	passes []*dispatch
}

func (e *recordingEncoder) BeginComputePass(label string) ComputePass {
	d := &dispatch{label: label}
	e.passes = append(e.passes, d)
	return &recordingPass{d: d}
}

type recordingPass struct {
	d *dispatch
}

func (p *recordingPass) SetBindGroup(index uint32, group BindGroup) {
	p.d.slot = index
	p.d.bindGroup = group
}

func (p *recordingPass) SetPipeline(key string) error {
	p.d.pipeline = key
	return nil
}

func (p *recordingPass) SetPushConstants(offset uint32, data []byte) {
	buf := make([]byte, int(offset)+len(data))
	copy(buf[offset:], data)
	p.d.push = buf
}

func (p *recordingPass) DispatchWorkgroups(x, y, z uint32) {
	p.d.workgroups = [3]uint32{x, y, z}
}

func (p *recordingPass) End() {
	p.d.ended = true
}

type fakeSurface struct {
	label      string
	w, h       uint32
	generation uint64
}

func (s *fakeSurface) Label() string      { return s.label }
func (s *fakeSurface) Width() uint32      { return s.w }
func (s *fakeSurface) Height() uint32     { return s.h }
func (s *fakeSurface) Generation() uint64 { return s.generation }

type fakeBindGroup string

func (g fakeBindGroup) Label() string { return string(g) }

type fakeBuilder struct {
	calls int
	err   error
}

func (b *fakeBuilder) BuildSurfaceBindGroup(layoutKey string, surface Surface) (BindGroup, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.calls++
	return fakeBindGroup(fmt.Sprintf("%s#%d", layoutKey, b.calls)), nil
}

func newTestSimulation(p fakePipelines) (Simulation, *fakeBuilder) {
	b := &fakeBuilder{}
	sim := NewSimulation(p, b, WithSurface(&fakeSurface{label: "surface", w: DefaultWidth, h: DefaultHeight}))
	return sim, b
}
