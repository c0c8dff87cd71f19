package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("sand"),
		WithSize(800, 0),
		WithSizeLimits(320, 200, 1920, 0),
	} {
		opt(w)
	}

	if w.title != "sand" {
		t.Errorf("title = %q", w.title)
	}
	if w.width != 800 || w.height != 720 {
		t.Errorf("size = %dx%d, want 800x720", w.width, w.height)
	}
	minW, minH, maxW, maxH := w.glfwSizeLimits()
	if minW != 320 || minH != 200 || maxW != 1920 || maxH != glfw.DontCare {
		t.Errorf("size limits = %d %d %d %d", minW, minH, maxW, maxH)
	}
}

func TestUnboundedSizeLimits(t *testing.T) {
	w := &engineWindow{}
	WithSizeLimits(0, -1, 0, 0)(w)
	minW, minH, maxW, maxH := w.glfwSizeLimits()
	for i, v := range []int{minW, minH, maxW, maxH} {
		if v != glfw.DontCare {
			t.Errorf("limit %d = %d, want DontCare", i, v)
		}
	}
}
