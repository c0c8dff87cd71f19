package input

import (
	"testing"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/camera"
	"github.com/Carmen-Shannon/pixel-world/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

var canvas = mgl32.Vec2{1280, 720}

func newCamera() camera.Camera {
	return camera.NewCamera(camera.WithViewport(1280, 720), camera.WithController(camera.NewCameraController()))
}

func TestMoveDirection(t *testing.T) {
	tr := NewTracker()
	if d := tr.MoveDirection(); d != (mgl32.Vec2{}) {
		t.Fatalf("idle direction = %v", d)
	}
	tr.KeyDown(common.KeyW)
	tr.KeyDown(common.KeyD)
	if d := tr.MoveDirection(); d != (mgl32.Vec2{1, 1}) {
		t.Fatalf("W+D direction = %v", d)
	}
	tr.KeyDown(common.KeyS)
	tr.KeyUp(common.KeyD)
	if d := tr.MoveDirection(); d != (mgl32.Vec2{}) {
		t.Fatalf("W+S direction = %v, want zero", d)
	}
	if !tr.IsKeyHeld(common.KeyW) || tr.IsKeyHeld(common.KeyD) {
		t.Fatal("held set out of date")
	}
}

func TestElementKeys(t *testing.T) {
	tr := NewTracker()
	if tr.Element() != automata.ElementSand {
		t.Fatalf("default element = %v", tr.Element())
	}
	tests := []struct {
		key  uint32
		want automata.Element
	}{
		{common.Key3, automata.ElementWater},
		{common.Key4, automata.ElementRock},
		{common.KeyW, automata.ElementRock},
		{common.Key1, automata.ElementAir},
		{common.Key2, automata.ElementSand},
	}
	for _, tt := range tests {
		tr.KeyDown(tt.key)
		if got := tr.Element(); got != tt.want {
			t.Errorf("after key %d element = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestSnapshotTracksCursor(t *testing.T) {
	tr := NewTracker(WithElement(automata.ElementWater))
	cam := newCamera()

	if p := tr.Snapshot(cam, canvas); p.MousePos != (mgl32.Vec2{}) || p.IsDrawing {
		t.Fatalf("snapshot without input = %+v", p)
	}

	tr.CursorMoved(640, 360)
	tr.MouseButton(window.MouseButtonLeft, true)
	first := tr.Snapshot(cam, canvas)
	if !first.MousePos.ApproxEqualThreshold(mgl32.Vec2{640, 360}, 1e-2) {
		t.Fatalf("mouse = %v, want canvas center", first.MousePos)
	}
	if !first.IsDrawing || first.IsErasing || first.Element != automata.ElementWater {
		t.Fatalf("first snapshot = %+v", first)
	}

	tr.CursorMoved(0, 0)
	second := tr.Snapshot(cam, canvas)
	if second.PrevMousePos != first.MousePos {
		t.Fatalf("prev = %v, want %v", second.PrevMousePos, first.MousePos)
	}
	if !second.MousePos.ApproxEqualThreshold(mgl32.Vec2{0, 0}, 1e-2) {
		t.Fatalf("mouse = %v, want canvas origin", second.MousePos)
	}
}

func TestSnapshotKeepsPositionsWhenCursorLeaves(t *testing.T) {
	tr := NewTracker()
	cam := newCamera()

	tr.CursorMoved(100, 100)
	tr.Snapshot(cam, canvas)
	tr.CursorMoved(200, 100)
	inside := tr.Snapshot(cam, canvas)

	tr.CursorMoved(-50, 100)
	outside := tr.Snapshot(cam, canvas)
	if outside.MousePos != inside.MousePos || outside.PrevMousePos != inside.PrevMousePos {
		t.Fatalf("positions changed for an unresolved cursor: %+v vs %+v", outside, inside)
	}
}

func TestEraseButton(t *testing.T) {
	tr := NewTracker()
	tr.MouseButton(window.MouseButtonRight, true)
	if p := tr.Snapshot(nil, canvas); !p.IsErasing || p.IsDrawing {
		t.Fatalf("snapshot = %+v", p)
	}
	tr.MouseButton(window.MouseButtonRight, false)
	if p := tr.Snapshot(nil, canvas); p.IsErasing {
		t.Fatal("erase still set after release")
	}

	swapped := NewTracker(WithButtons(window.MouseButtonRight, window.MouseButtonLeft))
	swapped.MouseButton(window.MouseButtonRight, true)
	if p := swapped.Snapshot(nil, canvas); !p.IsDrawing {
		t.Fatal("swapped draw button not honored")
	}
}
