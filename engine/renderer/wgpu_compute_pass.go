package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuComputeEncoder opens labelled passes on the frame's compute command encoder.
type wgpuComputeEncoder struct {
	backend *wgpuRendererBackendImpl
	encoder *wgpu.CommandEncoder
}

var _ automata.ComputeEncoder = &wgpuComputeEncoder{}

func (e *wgpuComputeEncoder) BeginComputePass(label string) automata.ComputePass {
	pass := e.encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})
	return &wgpuComputePass{backend: e.backend, label: label, pass: pass}
}

// wgpuComputePass records into one compute pass. Push constants are written to the bound
// pipeline's uniform block through the queue, so they land before the frame's submission
// executes. Each pipeline therefore sees one push-constant value per frame.
type wgpuComputePass struct {
	backend *wgpuRendererBackendImpl
	label   string
	pass    *wgpu.ComputePassEncoder
	bound   *computeEntry
}

var _ automata.ComputePass = &wgpuComputePass{}

func (p *wgpuComputePass) SetBindGroup(index uint32, group automata.BindGroup) {
	bg, ok := group.(*surfaceBindGroup)
	if !ok || bg.group == nil {
		panic(fmt.Sprintf("renderer: pass %q was given a bind group this renderer did not create", p.label))
	}
	p.pass.SetBindGroup(index, bg.group, nil)
}

func (p *wgpuComputePass) SetPipeline(key string) error {
	entry := p.backend.readyCompute(key)
	if entry == nil {
		return fmt.Errorf("renderer: compute pipeline %q is not ready", key)
	}
	p.pass.SetPipeline(entry.compute)
	if entry.push != nil {
		p.pass.SetBindGroup(entry.pushGroup, entry.push.BindGroup(), nil)
	}
	p.bound = entry
	return nil
}

func (p *wgpuComputePass) SetPushConstants(offset uint32, data []byte) {
	if p.bound == nil || p.bound.push == nil {
		panic(fmt.Sprintf("renderer: pass %q set push constants without a pipeline that declares them", p.label))
	}
	size := p.bound.pipeline.PushConstantSize()
	if uint64(offset)+uint64(len(data)) > uint64(size) {
		panic(fmt.Sprintf("renderer: push constants [%d, %d) overflow the %d-byte block of %q",
			offset, int(offset)+len(data), size, p.bound.pipeline.PipelineKey()))
	}
	p.backend.queue.WriteBuffer(p.bound.push.Buffer(p.bound.pushBinding), uint64(offset), data)
}

func (p *wgpuComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *wgpuComputePass) End() {
	p.pass.End()
	p.bound = nil
}
