package automata

import (
	"fmt"
	"log"
	"sync"
)

// bindGroupManager is the implementation of the BindGroupManager interface.
type bindGroupManager struct {
	mu         *sync.Mutex
	layoutKey  string
	builder    BindGroupBuilder
	surface    Surface
	generation uint64
	group      BindGroup
	rebuilds   int
}

// BindGroupManager caches the surface bind group shared by every node. The group is
// rebuilt only when the surface handle changes, never per frame.
type BindGroupManager interface {
	// Prepare ensures the cached bind group matches surface, rebuilding it if the surface
	// is new or its generation changed. Panics if surface is nil or the build fails, since
	// both mean the frame would dispatch against a missing resource.
	//
	// Parameters:
	//   - surface: the current simulation surface
	//
	// Returns:
	//   - bool: true if the bind group was rebuilt
	Prepare(surface Surface) bool

	// BindGroup returns the cached bind group, or nil before the first Prepare.
	BindGroup() BindGroup

	// Surface returns the surface the cached group was built from.
	Surface() Surface

	// Rebuilds returns how many times the bind group has been built.
	Rebuilds() int
}

var _ BindGroupManager = &bindGroupManager{}

// NewBindGroupManager creates a manager that builds groups for the layout registered under layoutKey.
//
// Parameters:
//   - layoutKey: the shared bind group layout key
//   - builder: the device-side bind group factory
//
// Returns:
//   - BindGroupManager: the new manager
func NewBindGroupManager(layoutKey string, builder BindGroupBuilder) BindGroupManager {
	if builder == nil {
		panic("automata: NewBindGroupManager requires a non-nil BindGroupBuilder")
	}
	return &bindGroupManager{
		mu:        &sync.Mutex{},
		layoutKey: layoutKey,
		builder:   builder,
	}
}

func (m *bindGroupManager) Prepare(surface Surface) bool {
	if surface == nil {
		panic("automata: simulation surface is not available")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.group != nil && m.surface == surface && m.generation == surface.Generation() {
		return false
	}

	group, err := m.builder.BuildSurfaceBindGroup(m.layoutKey, surface)
	if err != nil {
		panic(fmt.Sprintf("automata: failed to build bind group for surface %q: %v", surface.Label(), err))
	}

	if old, ok := m.group.(interface{ Release() }); ok {
		old.Release()
	}
	m.surface = surface
	m.generation = surface.Generation()
	m.group = group
	m.rebuilds++
	log.Printf("[Simulation] bind group %q built for surface %q (generation %d)", group.Label(), surface.Label(), m.generation)
	return true
}

func (m *bindGroupManager) BindGroup() BindGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group
}

func (m *bindGroupManager) Surface() Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface
}

func (m *bindGroupManager) Rebuilds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuilds
}
