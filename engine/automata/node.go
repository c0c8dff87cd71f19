package automata

// Stats counts dispatches issued by the nodes.
type Stats struct {
	Frames           uint64
	InitDispatches   uint64
	UpdateDispatches uint64
	DrawDispatches   uint64
}

// RenderContext carries the shared frame state into each node. It is built once per
// frame by the Simulation and passed by pointer; nodes read it and never retain it.
type RenderContext struct {
	Pipelines  PipelineStatusSource
	Encoder    ComputeEncoder
	BindGroup  BindGroup
	Params     FrameParams
	Workgroups [3]uint32
	Stats      *Stats
}

// Node is one scheduled unit of GPU work. Update advances readiness state, Run issues
// zero or more dispatches. Neither may block.
type Node interface {
	Label() string
	Update(ctx *RenderContext)
	Run(ctx *RenderContext) error
}

// WorkgroupCount returns the dispatch size that covers a width x height grid with
// tile x tile workgroups. Partial tiles at the edges get their own workgroup.
//
// Parameters:
//   - width: the grid width in cells
//   - height: the grid height in cells
//   - tile: the workgroup edge length
//
// Returns:
//   - [3]uint32: the workgroup count as [x, y, 1]
func WorkgroupCount(width, height, tile uint32) [3]uint32 {
	if tile == 0 {
		tile = 1
	}
	return [3]uint32{
		(width + tile - 1) / tile,
		(height + tile - 1) / tile,
		1,
	}
}
