package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial camera position.
//
// Parameters:
//   - x, y: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = mgl32.Vec2{x, y}
	}
}

// WithScale sets the initial orthographic scale. It is clamped to the bounds.
func WithScale(scale float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.scale = scale
	}
}

// WithMoveSpeed sets the pan speed in world units per second.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}

// WithZoomFactor sets the per-step scale multiplier. Values at or below 1 are ignored.
func WithZoomFactor(factor float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if factor > 1 {
			cc.zoomFactor = factor
		}
	}
}

// WithScaleBounds sets the minimum and maximum orthographic scale.
//
// Parameters:
//   - min: the smallest scale (most zoomed in)
//   - max: the largest scale (most zoomed out)
//
// Returns:
//   - CameraControllerOption: functional option to set the scale bounds
func WithScaleBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minScale = min
		cc.maxScale = max
	}
}
