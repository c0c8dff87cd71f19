package automata

import "github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline_cache"

// PipelineStatusSource reports the compile status of a pipeline by key.
// The renderer satisfies it; the nodes poll it once per frame and never block.
type PipelineStatusSource interface {
	PipelineStatus(key string) pipeline_cache.Status
}

// ComputeEncoder opens labelled compute passes on the frame's command encoder.
type ComputeEncoder interface {
	// BeginComputePass opens a new compute pass. The caller must End it.
	//
	// Parameters:
	//   - label: the debug label for the pass
	//
	// Returns:
	//   - ComputePass: the open pass
	BeginComputePass(label string) ComputePass
}

// ComputePass is one open compute pass.
type ComputePass interface {
	// SetBindGroup binds a group at the given slot.
	//
	// Parameters:
	//   - index: the bind group slot
	//   - group: the bind group to bind
	SetBindGroup(index uint32, group BindGroup)

	// SetPipeline binds the compute pipeline registered under key.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - error: an error if the key does not resolve to a ready pipeline
	SetPipeline(key string) error

	// SetPushConstants uploads data into the bound pipeline's push-constant block.
	// SetPipeline must be called first.
	//
	// Parameters:
	//   - offset: the byte offset into the block
	//   - data: the bytes to upload
	SetPushConstants(offset uint32, data []byte)

	// DispatchWorkgroups records a dispatch of x*y*z workgroups.
	DispatchWorkgroups(x, y, z uint32)

	// End closes the pass.
	End()
}

// Surface is a non-owning handle to the simulation image. Generation changes whenever
// the underlying GPU texture is replaced.
type Surface interface {
	Label() string
	Width() uint32
	Height() uint32
	Generation() uint64
}

// BindGroup is an opaque, immutable binding object. Implementations that also have a
// Release method are released when a newer bind group replaces them.
type BindGroup interface {
	Label() string
}

// BindGroupBuilder creates the bind group that attaches a surface to a shared layout.
type BindGroupBuilder interface {
	// BuildSurfaceBindGroup pairs the layout registered under layoutKey with the surface view.
	//
	// Parameters:
	//   - layoutKey: the shared bind group layout key
	//   - surface: the surface to bind
	//
	// Returns:
	//   - BindGroup: the new bind group
	//   - error: an error if the surface has no device-side view or creation fails
	BuildSurfaceBindGroup(layoutKey string, surface Surface) (BindGroup, error)
}
