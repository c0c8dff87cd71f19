package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b mgl32.Vec2) bool {
	return a.ApproxEqualThreshold(b, 1e-2)
}

func TestViewportToWorld(t *testing.T) {
	tests := []struct {
		name   string
		pos    mgl32.Vec2
		scale  float32
		cursor mgl32.Vec2
		want   mgl32.Vec2
	}{
		{"center maps to position", mgl32.Vec2{0, 0}, 1, mgl32.Vec2{640, 360}, mgl32.Vec2{0, 0}},
		{"top-left corner", mgl32.Vec2{0, 0}, 1, mgl32.Vec2{0, 0}, mgl32.Vec2{-640, 360}},
		{"bottom-right corner", mgl32.Vec2{0, 0}, 1, mgl32.Vec2{1280, 720}, mgl32.Vec2{640, -360}},
		{"panned center", mgl32.Vec2{100, 50}, 2, mgl32.Vec2{640, 360}, mgl32.Vec2{100, 50}},
		{"panned and zoomed corner", mgl32.Vec2{100, 50}, 2, mgl32.Vec2{0, 0}, mgl32.Vec2{-1180, 770}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewCameraController(WithPosition(tt.pos.X(), tt.pos.Y()), WithScale(tt.scale))
			cam := NewCamera(WithViewport(1280, 720), WithController(ctrl))
			got, ok := cam.ViewportToWorld(tt.cursor)
			if !ok {
				t.Fatal("cursor did not resolve")
			}
			if !near(got, tt.want) {
				t.Fatalf("ViewportToWorld(%v) = %v, want %v", tt.cursor, got, tt.want)
			}
		})
	}
}

func TestViewportToWorldOutside(t *testing.T) {
	cam := NewCamera(WithController(NewCameraController()))
	for _, c := range []mgl32.Vec2{{-1, 10}, {10, -1}, {1281, 10}, {10, 721}} {
		if _, ok := cam.ViewportToWorld(c); ok {
			t.Errorf("cursor %v outside the viewport resolved", c)
		}
	}
}

func TestCursorToCanvasRoundTrip(t *testing.T) {
	cam := NewCamera(WithController(NewCameraController()))
	size := mgl32.Vec2{1280, 720}

	world, ok := cam.ViewportToWorld(mgl32.Vec2{0, 0})
	if !ok {
		t.Fatal("cursor did not resolve")
	}
	if got := WorldToCanvas(world, size); !near(got, mgl32.Vec2{0, 0}) {
		t.Fatalf("top-left cursor maps to canvas %v", got)
	}
	if got := WorldToCanvas(mgl32.Vec2{0, 0}, size); got != (mgl32.Vec2{640, 360}) {
		t.Fatalf("origin maps to canvas %v", got)
	}
	if got := CanvasToWorld(WorldToCanvas(mgl32.Vec2{12, -34}, size), size); got != (mgl32.Vec2{12, -34}) {
		t.Fatalf("round trip = %v", got)
	}
}

func TestZoom(t *testing.T) {
	ctrl := NewCameraController()

	ctrl.Zoom(-1)
	if got := ctrl.Scale(); mgl32.Abs(got-1.05) > 1e-6 {
		t.Fatalf("scroll down scale = %v, want 1.05", got)
	}
	ctrl.Zoom(1)
	ctrl.Zoom(1)
	if got := ctrl.Scale(); mgl32.Abs(got-1/1.05) > 1e-6 {
		t.Fatalf("scroll up scale = %v, want %v", got, 1/1.05)
	}
	ctrl.Zoom(0)
	if got := ctrl.Scale(); mgl32.Abs(got-1/1.05) > 1e-6 {
		t.Fatal("zero delta should not zoom")
	}

	for range 200 {
		ctrl.Zoom(1)
	}
	if ctrl.Scale() != DefaultMinScale {
		t.Fatalf("scale = %v, want clamp at %v", ctrl.Scale(), DefaultMinScale)
	}
	for range 200 {
		ctrl.Zoom(-1)
	}
	if ctrl.Scale() != DefaultMaxScale {
		t.Fatalf("scale = %v, want clamp at %v", ctrl.Scale(), DefaultMaxScale)
	}
}

func TestMove(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.Move(mgl32.Vec2{0, 1}, 0.5)
	if got := ctrl.Position(); !near(got, mgl32.Vec2{0, 250}) {
		t.Fatalf("position = %v, want (0, 250)", got)
	}
	ctrl.Move(mgl32.Vec2{1, 1}, 1)
	want := mgl32.Vec2{0, 250}.Add(mgl32.Vec2{1, 1}.Normalize().Mul(500))
	if got := ctrl.Position(); !near(got, want) {
		t.Fatalf("diagonal move = %v, want %v", got, want)
	}
	ctrl.Move(mgl32.Vec2{}, 1)
	if got := ctrl.Position(); !near(got, want) {
		t.Fatal("zero direction should not move")
	}
}

func TestUniform(t *testing.T) {
	cam := NewCamera(WithController(NewCameraController()))
	u := cam.Uniform()
	if u.Size() != GPUCameraUniformSize || len(u.Marshal()) != GPUCameraUniformSize {
		t.Fatalf("uniform size = %d", u.Size())
	}
	if u.ViewProj != cam.ViewProjectionMatrix() {
		t.Fatal("uniform does not carry the view-projection matrix")
	}
}

func TestSetViewportIgnoresEmpty(t *testing.T) {
	cam := NewCamera()
	cam.SetViewport(0, 0)
	if w, h := cam.Viewport(); w != 1280 || h != 720 {
		t.Fatalf("viewport = %vx%v", w, h)
	}
}
