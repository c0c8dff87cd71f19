package automata

import (
	"fmt"
	"log"
)

const (
	// DrawNodeLabel is the graph label of the draw node.
	DrawNodeLabel = "draw"

	// DrawPassLabel is the debug label of the brush compute pass.
	DrawPassLabel = "cpd-draw"
)

// DrawNode paints the selected element along the cursor's last motion segment.
type DrawNode struct {
	drawKey string
	radius  float32
	state   DrawState
}

var _ Node = &DrawNode{}

// NewDrawNode creates a draw node in the Loading state.
//
// Parameters:
//   - drawKey: the pipeline key of the brush entry point
//   - radius: the brush radius in world units
//
// Returns:
//   - *DrawNode: the new node
func NewDrawNode(drawKey string, radius float32) *DrawNode {
	return &DrawNode{drawKey: drawKey, radius: radius}
}

func (n *DrawNode) Label() string {
	return DrawNodeLabel
}

// State returns the node's current lifecycle state.
func (n *DrawNode) State() DrawState {
	return n.state
}

// Radius returns the brush radius.
func (n *DrawNode) Radius() float32 {
	return n.radius
}

func (n *DrawNode) Update(ctx *RenderContext) {
	if n.state == DrawStateLoading && ctx.Pipelines.PipelineStatus(n.drawKey).IsReady() {
		n.state = DrawStateUpdate
		log.Printf("[Simulation] draw node %s -> %s", DrawStateLoading, n.state)
	}
}

// Run dispatches the brush pipeline while the draw flag is held. The stroke runs from
// the current cursor back to the previous one so fast motion leaves no gaps.
func (n *DrawNode) Run(ctx *RenderContext) error {
	if n.state != DrawStateUpdate || !ctx.Params.IsDrawing {
		return nil
	}

	pc := NewDrawPushConstants(ctx.Params.MousePos, ctx.Params.PrevMousePos, n.radius, ctx.Params.Element)

	pass := ctx.Encoder.BeginComputePass(DrawPassLabel)
	defer pass.End()

	if err := pass.SetPipeline(n.drawKey); err != nil {
		return fmt.Errorf("failed to bind pipeline %q: %w", n.drawKey, err)
	}
	pass.SetBindGroup(0, ctx.BindGroup)
	pass.SetPushConstants(0, pc.Marshal())
	wg := ctx.Workgroups
	pass.DispatchWorkgroups(wg[0], wg[1], wg[2])

	if ctx.Stats != nil {
		ctx.Stats.DrawDispatches++
	}
	return nil
}
