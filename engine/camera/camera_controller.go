package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the 2D camera's positional state: the world-space center of the
// view and the orthographic scale (world units per screen pixel). Camera reads from it
// and computes the matrices.
type CameraController interface {
	// Position returns the world-space point at the center of the view.
	//
	// Returns:
	//   - mgl32.Vec2: the camera position
	Position() mgl32.Vec2

	// SetPosition moves the camera to a world-space point.
	//
	// Parameters:
	//   - pos: the new position
	SetPosition(pos mgl32.Vec2)

	// Pan translates the camera by a world-space offset.
	//
	// Parameters:
	//   - delta: the offset in world units
	Pan(delta mgl32.Vec2)

	// Move translates the camera along dir at MoveSpeed for dt seconds. dir is normalized
	// first; a zero dir does nothing.
	//
	// Parameters:
	//   - dir: the movement direction, e.g. from held WASD keys
	//   - dt: the elapsed time in seconds
	Move(dir mgl32.Vec2, dt float32)

	// Scale returns the orthographic scale. Larger values show more of the world.
	Scale() float32

	// SetScale sets the orthographic scale, clamped to the scale bounds.
	SetScale(scale float32)

	// Zoom applies one scroll step. Scrolling down (negative delta) multiplies the scale
	// by the zoom factor, scrolling up divides it. The result is clamped to the bounds.
	//
	// Parameters:
	//   - delta: the scroll delta; only its sign is used
	Zoom(delta float32)

	// MoveSpeed returns the pan speed in world units per second.
	MoveSpeed() float32

	// ZoomFactor returns the per-step scale multiplier.
	ZoomFactor() float32

	// ScaleBounds returns the minimum and maximum scale.
	ScaleBounds() (min, max float32)
}
