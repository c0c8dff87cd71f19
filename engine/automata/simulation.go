package automata

import (
	"fmt"
	"sync"
)

const (
	// DefaultWidth is the default simulation surface width in cells.
	DefaultWidth uint32 = 1280

	// DefaultHeight is the default simulation surface height in cells.
	DefaultHeight uint32 = 720

	// DefaultTileSize is the workgroup edge length declared by the compute shaders.
	DefaultTileSize uint32 = 8

	// DefaultBrushRadius is the brush radius in canvas pixels.
	DefaultBrushRadius float32 = 10
)

// PipelineKeys names the pipelines and layout the simulation depends on.
type PipelineKeys struct {
	Init          string
	Update        string
	Draw          string
	SurfaceLayout string
}

// DefaultPipelineKeys returns the keys the renderer registers the simulation pipelines under.
func DefaultPipelineKeys() PipelineKeys {
	return PipelineKeys{
		Init:          "automata_init",
		Update:        "automata_update",
		Draw:          "automata_draw",
		SurfaceLayout: "automata_surface",
	}
}

// simulation is the implementation of the Simulation interface.
type simulation struct {
	mu         *sync.Mutex
	pipelines  PipelineStatusSource
	bindGroups BindGroupManager
	graph      *Graph
	automata   *AutomataNode
	draw       *DrawNode
	keys       PipelineKeys
	tileSize   uint32
	radius     float32
	surface    Surface
	stats      Stats
}

// Simulation owns the node graph and the shared surface bind group, and records one
// frame of compute work per call to Frame.
type Simulation interface {
	// Frame runs the draw node then the automata node against the bound surface.
	// Panics if no surface has been bound.
	//
	// Parameters:
	//   - params: the frame's interaction snapshot
	//   - encoder: the frame's compute encoder
	//
	// Returns:
	//   - error: an error if a node failed to record its pass
	Frame(params FrameParams, encoder ComputeEncoder) error

	// SetSurface binds the simulation to a surface. The bind group is rebuilt lazily on
	// the next frame if the surface differs from the previous one.
	SetSurface(surface Surface)

	// Surface returns the bound surface, or nil.
	Surface() Surface

	// Workgroups returns the dispatch size covering the bound surface.
	//
	// Returns:
	//   - [3]uint32: the workgroup count, or zeros with no surface
	Workgroups() [3]uint32

	AutomataState() AutomataState
	DrawState() DrawState

	// Stats returns a copy of the dispatch counters.
	Stats() Stats

	Keys() PipelineKeys
	BrushRadius() float32
	TileSize() uint32
}

var _ Simulation = &simulation{}

// NewSimulation wires the draw and automata nodes into a graph, draw first.
//
// Parameters:
//   - pipelines: the pipeline readiness source
//   - builder: the bind group factory for the surface layout
//   - options: optional configuration
//
// Returns:
//   - Simulation: the new simulation
func NewSimulation(pipelines PipelineStatusSource, builder BindGroupBuilder, options ...SimulationBuilderOption) Simulation {
	if pipelines == nil {
		panic("automata: NewSimulation requires a PipelineStatusSource")
	}

	s := &simulation{
		mu:        &sync.Mutex{},
		pipelines: pipelines,
		keys:      DefaultPipelineKeys(),
		tileSize:  DefaultTileSize,
		radius:    DefaultBrushRadius,
	}
	for _, opt := range options {
		opt(s)
	}

	s.bindGroups = NewBindGroupManager(s.keys.SurfaceLayout, builder)
	s.automata = NewAutomataNode(s.keys.Init, s.keys.Update)
	s.draw = NewDrawNode(s.keys.Draw, s.radius)

	s.graph = NewGraph()
	mustGraph(s.graph.AddNode(s.draw))
	mustGraph(s.graph.AddNode(s.automata))
	mustGraph(s.graph.AddEdge(DrawNodeLabel, AutomataNodeLabel))
	return s
}

func mustGraph(err error) {
	if err != nil {
		panic(fmt.Sprintf("automata: invalid simulation graph: %v", err))
	}
}

func (s *simulation) Frame(params FrameParams, encoder ComputeEncoder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bindGroups.Prepare(s.surface)

	ctx := &RenderContext{
		Pipelines:  s.pipelines,
		Encoder:    encoder,
		BindGroup:  s.bindGroups.BindGroup(),
		Params:     params,
		Workgroups: WorkgroupCount(s.surface.Width(), s.surface.Height(), s.tileSize),
		Stats:      &s.stats,
	}
	s.stats.Frames++
	return s.graph.Run(ctx)
}

func (s *simulation) SetSurface(surface Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
}

func (s *simulation) Surface() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *simulation) Workgroups() [3]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return [3]uint32{}
	}
	return WorkgroupCount(s.surface.Width(), s.surface.Height(), s.tileSize)
}

func (s *simulation) AutomataState() AutomataState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.automata.State()
}

func (s *simulation) DrawState() DrawState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draw.State()
}

func (s *simulation) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *simulation) Keys() PipelineKeys {
	return s.keys
}

func (s *simulation) BrushRadius() float32 {
	return s.radius
}

func (s *simulation) TileSize() uint32 {
	return s.tileSize
}
