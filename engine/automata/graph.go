package automata

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateNode is returned when a node label is added twice.
	ErrDuplicateNode = errors.New("automata: duplicate node")

	// ErrUnknownNode is returned when an edge references a label that was never added.
	ErrUnknownNode = errors.New("automata: unknown node")

	// ErrCycle is returned when the edges do not form a DAG.
	ErrCycle = errors.New("automata: graph contains a cycle")
)

// Graph is a small static DAG of nodes. An edge from A to B means A runs before B.
type Graph struct {
	nodes    map[string]Node
	labels   []string
	edges    map[string][]string
	order    []Node
	resolved bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string][]string),
	}
}

// AddNode registers n under its label.
//
// Parameters:
//   - n: the node to add
//
// Returns:
//   - error: ErrDuplicateNode if the label is taken
func (g *Graph) AddNode(n Node) error {
	label := n.Label()
	if _, exists := g.nodes[label]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, label)
	}
	g.nodes[label] = n
	g.labels = append(g.labels, label)
	g.resolved = false
	return nil
}

// AddEdge declares that from must run before to.
//
// Parameters:
//   - from: the label of the earlier node
//   - to: the label of the later node
//
// Returns:
//   - error: ErrUnknownNode if either label is missing
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, to)
	}
	g.edges[from] = append(g.edges[from], to)
	g.resolved = false
	return nil
}

// Order returns the node labels in execution order. Nodes with no ordering constraint
// between them keep their insertion order.
//
// Returns:
//   - []string: the ordered labels
//   - error: ErrCycle if the edges contain a cycle
func (g *Graph) Order() ([]string, error) {
	if err := g.resolve(); err != nil {
		return nil, err
	}
	labels := make([]string, len(g.order))
	for i, n := range g.order {
		labels[i] = n.Label()
	}
	return labels, nil
}

// Run executes one frame: every node's Update in order, then every node's Run in order.
// The first Run error stops the frame.
//
// Parameters:
//   - ctx: the frame's render context
//
// Returns:
//   - error: a wrapped node error, or ErrCycle
func (g *Graph) Run(ctx *RenderContext) error {
	if err := g.resolve(); err != nil {
		return err
	}
	for _, n := range g.order {
		n.Update(ctx)
	}
	for _, n := range g.order {
		if err := n.Run(ctx); err != nil {
			return fmt.Errorf("node %q: %w", n.Label(), err)
		}
	}
	return nil
}

// resolve computes a topological order with Kahn's algorithm, scanning candidates in
// insertion order so the result is deterministic.
func (g *Graph) resolve() error {
	if g.resolved {
		return nil
	}

	inDegree := make(map[string]int, len(g.labels))
	for _, l := range g.labels {
		inDegree[l] = 0
	}
	for _, targets := range g.edges {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	order := make([]Node, 0, len(g.labels))
	done := make(map[string]bool, len(g.labels))
	for len(order) < len(g.labels) {
		progressed := false
		for _, l := range g.labels {
			if done[l] || inDegree[l] > 0 {
				continue
			}
			done[l] = true
			order = append(order, g.nodes[l])
			for _, t := range g.edges[l] {
				inDegree[t]--
			}
			progressed = true
			break
		}
		if !progressed {
			return ErrCycle
		}
	}

	g.order = order
	g.resolved = true
	return nil
}
