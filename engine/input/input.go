package input

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/camera"
	"github.com/Carmen-Shannon/pixel-world/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultElementKeys maps the number row to the paintable elements.
var DefaultElementKeys = map[uint32]automata.Element{
	common.Key1: automata.ElementAir,
	common.Key2: automata.ElementSand,
	common.Key3: automata.ElementWater,
	common.Key4: automata.ElementRock,
}

// tracker is the implementation of the Tracker interface.
type tracker struct {
	mu *sync.Mutex

	held    map[uint32]bool
	buttons map[window.MouseButton]bool

	cursor    mgl32.Vec2
	hasCursor bool

	mousePos     mgl32.Vec2
	prevMousePos mgl32.Vec2

	element     automata.Element
	elementKeys map[uint32]automata.Element
	drawButton  window.MouseButton
	eraseButton window.MouseButton
}

// Tracker collects window input events from the platform thread and turns them into a
// per-frame automata.FrameParams snapshot on the render thread.
type Tracker interface {
	// KeyDown records a key press. Number keys mapped to elements switch the brush element.
	KeyDown(keyCode uint32)

	// KeyUp records a key release.
	KeyUp(keyCode uint32)

	// MouseButton records a button press or release.
	//
	// Parameters:
	//   - button: the button
	//   - pressed: true while held
	MouseButton(button window.MouseButton, pressed bool)

	// CursorMoved records the cursor position in window pixels.
	CursorMoved(x, y float32)

	// IsKeyHeld reports whether a key is currently down.
	IsKeyHeld(keyCode uint32) bool

	// MoveDirection returns the unnormalized pan direction from the held WASD keys,
	// with W pointing to +y.
	//
	// Returns:
	//   - mgl32.Vec2: the direction, zero when no movement key is held
	MoveDirection() mgl32.Vec2

	// Element returns the element the brush paints.
	Element() automata.Element

	// SetElement selects the element the brush paints.
	SetElement(e automata.Element)

	// Snapshot produces the frame parameters. If the cursor is known and resolves through
	// the camera, the previous canvas position takes the current one and the current one
	// takes the cursor's canvas position. Otherwise both positions are left unchanged.
	//
	// Parameters:
	//   - cam: the camera used to unproject the cursor
	//   - canvasSize: the simulation surface size in texels
	//
	// Returns:
	//   - automata.FrameParams: the snapshot for this frame
	Snapshot(cam camera.Camera, canvasSize mgl32.Vec2) automata.FrameParams
}

var _ Tracker = &tracker{}

// NewTracker creates a Tracker that draws with the left button, erases with the right
// button and starts on sand.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Tracker: the new tracker
func NewTracker(options ...TrackerBuilderOption) Tracker {
	t := &tracker{
		mu:          &sync.Mutex{},
		held:        make(map[uint32]bool),
		buttons:     make(map[window.MouseButton]bool),
		element:     automata.ElementSand,
		elementKeys: DefaultElementKeys,
		drawButton:  window.MouseButtonLeft,
		eraseButton: window.MouseButtonRight,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *tracker) KeyDown(keyCode uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held[keyCode] = true
	if e, ok := t.elementKeys[keyCode]; ok && e != t.element {
		t.element = e
		log.Printf("[Engine] brush element: %s", e)
	}
}

func (t *tracker) KeyUp(keyCode uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, keyCode)
}

func (t *tracker) MouseButton(button window.MouseButton, pressed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pressed {
		t.buttons[button] = true
	} else {
		delete(t.buttons, button)
	}
}

func (t *tracker) CursorMoved(x, y float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor = mgl32.Vec2{x, y}
	t.hasCursor = true
}

func (t *tracker) IsKeyHeld(keyCode uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.held[keyCode]
}

func (t *tracker) MoveDirection() mgl32.Vec2 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var dir mgl32.Vec2
	if t.held[common.KeyW] {
		dir[1]++
	}
	if t.held[common.KeyS] {
		dir[1]--
	}
	if t.held[common.KeyD] {
		dir[0]++
	}
	if t.held[common.KeyA] {
		dir[0]--
	}
	return dir
}

func (t *tracker) Element() automata.Element {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.element
}

func (t *tracker) SetElement(e automata.Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.element = e
}

func (t *tracker) Snapshot(cam camera.Camera, canvasSize mgl32.Vec2) automata.FrameParams {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hasCursor && cam != nil {
		if world, ok := cam.ViewportToWorld(t.cursor); ok {
			t.prevMousePos = t.mousePos
			t.mousePos = camera.WorldToCanvas(world, canvasSize)
		}
	}

	return automata.FrameParams{
		MousePos:     t.mousePos,
		PrevMousePos: t.prevMousePos,
		IsDrawing:    t.buttons[t.drawButton],
		IsErasing:    t.buttons[t.eraseButton],
		Element:      t.element,
	}
}
