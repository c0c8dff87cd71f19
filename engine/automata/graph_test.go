package automata

import (
	"errors"
	"reflect"
	"testing"
)

type stubNode struct {
	label string
	log   *[]string
	err   error
}

func (n *stubNode) Label() string { return n.label }

func (n *stubNode) Update(ctx *RenderContext) {
	*n.log = append(*n.log, "update:"+n.label)
}

func (n *stubNode) Run(ctx *RenderContext) error {
	*n.log = append(*n.log, "run:"+n.label)
	return n.err
}

func TestGraphOrderFollowsEdges(t *testing.T) {
	var calls []string
	g := NewGraph()
	for _, l := range []string{"automata", "draw", "present"} {
		if err := g.AddNode(&stubNode{label: l, log: &calls}); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge("draw", "automata"); err != nil {
		t.Fatal(err)
	}

	order, err := g.Order()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"draw", "automata", "present"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}

	if err := g.Run(&RenderContext{}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"update:draw", "update:automata", "update:present",
		"run:draw", "run:automata", "run:present",
	}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestGraphErrors(t *testing.T) {
	var calls []string
	g := NewGraph()
	_ = g.AddNode(&stubNode{label: "a", log: &calls})
	_ = g.AddNode(&stubNode{label: "b", log: &calls})

	if err := g.AddNode(&stubNode{label: "a", log: &calls}); !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("duplicate: err = %v", err)
	}
	if err := g.AddEdge("a", "missing"); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("unknown: err = %v", err)
	}

	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")
	if _, err := g.Order(); !errors.Is(err, ErrCycle) {
		t.Fatalf("cycle: err = %v", err)
	}
	if err := g.Run(&RenderContext{}); !errors.Is(err, ErrCycle) {
		t.Fatalf("run with cycle: err = %v", err)
	}
}

func TestGraphRunStopsOnNodeError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	g := NewGraph()
	_ = g.AddNode(&stubNode{label: "first", log: &calls, err: boom})
	_ = g.AddNode(&stubNode{label: "second", log: &calls})

	err := g.Run(&RenderContext{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	for _, c := range calls {
		if c == "run:second" {
			t.Fatal("second node ran after the first failed")
		}
	}
}
