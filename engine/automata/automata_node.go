package automata

import (
	"fmt"
	"log"
)

const (
	// AutomataNodeLabel is the graph label of the automata node.
	AutomataNodeLabel = "automata"

	// AutomataPassLabel is the debug label of the automata compute pass.
	AutomataPassLabel = "cpd-automata"
)

// AutomataNode steps the cellular automaton over the whole surface.
type AutomataNode struct {
	initKey   string
	updateKey string
	state     AutomataState
}

var _ Node = &AutomataNode{}

// NewAutomataNode creates an automata node in the Loading state.
//
// Parameters:
//   - initKey: the pipeline key of the seeding entry point
//   - updateKey: the pipeline key of the step entry point
//
// Returns:
//   - *AutomataNode: the new node
func NewAutomataNode(initKey, updateKey string) *AutomataNode {
	return &AutomataNode{initKey: initKey, updateKey: updateKey}
}

func (n *AutomataNode) Label() string {
	return AutomataNodeLabel
}

// State returns the node's current lifecycle state.
func (n *AutomataNode) State() AutomataState {
	return n.state
}

// Update advances the state by at most one step based on pipeline readiness.
func (n *AutomataNode) Update(ctx *RenderContext) {
	prev := n.state
	switch n.state {
	case AutomataStateLoading:
		if ctx.Pipelines.PipelineStatus(n.initKey).IsReady() {
			n.state = AutomataStateInit
		}
	case AutomataStateInit:
		if ctx.Pipelines.PipelineStatus(n.updateKey).IsReady() {
			n.state = AutomataStateUpdate
		}
	}
	if n.state != prev {
		log.Printf("[Simulation] automata node %s -> %s", prev, n.state)
	}
}

// Run dispatches the init or update pipeline across the grid. Nothing is dispatched
// while loading or while the erase flag is held.
func (n *AutomataNode) Run(ctx *RenderContext) error {
	if ctx.Params.IsErasing {
		return nil
	}

	var key string
	switch n.state {
	case AutomataStateInit:
		// Init keeps re-seeding every frame until update is ready.
		key = n.initKey
	case AutomataStateUpdate:
		key = n.updateKey
	default:
		return nil
	}

	pass := ctx.Encoder.BeginComputePass(AutomataPassLabel)
	defer pass.End()

	pass.SetBindGroup(0, ctx.BindGroup)
	if err := pass.SetPipeline(key); err != nil {
		return fmt.Errorf("failed to bind pipeline %q: %w", key, err)
	}
	wg := ctx.Workgroups
	pass.DispatchWorkgroups(wg[0], wg[1], wg[2])

	if ctx.Stats != nil {
		if n.state == AutomataStateInit {
			ctx.Stats.InitDispatches++
		} else {
			ctx.Stats.UpdateDispatches++
		}
	}
	return nil
}
