package automata

// AutomataState is the lifecycle of the automata node. Transitions only move forward.
type AutomataState int

const (
	// AutomataStateLoading waits for the init pipeline. Nothing is dispatched.
	AutomataStateLoading AutomataState = iota

	// AutomataStateInit dispatches the init pipeline every frame until the update
	// pipeline is ready.
	AutomataStateInit

	// AutomataStateUpdate dispatches one update generation per frame. Terminal.
	AutomataStateUpdate
)

func (s AutomataState) String() string {
	switch s {
	case AutomataStateLoading:
		return "loading"
	case AutomataStateInit:
		return "init"
	case AutomataStateUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// DrawState is the lifecycle of the draw node.
type DrawState int

const (
	DrawStateLoading DrawState = iota
	DrawStateUpdate
)

func (s DrawState) String() string {
	switch s {
	case DrawStateLoading:
		return "loading"
	case DrawStateUpdate:
		return "update"
	default:
		return "unknown"
	}
}
