package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Defaults for the planar controller.
const (
	DefaultMoveSpeed  = 500.0
	DefaultZoomFactor = 1.05
	DefaultMinScale   = 0.15
	DefaultMaxScale   = 5.0
)

// cameraControllerImpl is the implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec2
	scale    float32

	moveSpeed  float32
	zoomFactor float32
	minScale   float32
	maxScale   float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a planar controller centered on the world origin at scale 1.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:         &sync.Mutex{},
		scale:      1.0,
		moveSpeed:  DefaultMoveSpeed,
		zoomFactor: DefaultZoomFactor,
		minScale:   DefaultMinScale,
		maxScale:   DefaultMaxScale,
	}

	for _, option := range options {
		option(cc)
	}
	if cc.minScale > cc.maxScale {
		panic("camera: minimum scale exceeds maximum scale")
	}
	cc.scale = mgl32.Clamp(cc.scale, cc.minScale, cc.maxScale)
	return cc
}

func (cc *cameraControllerImpl) Position() mgl32.Vec2 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(pos mgl32.Vec2) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = pos
}

func (cc *cameraControllerImpl) Pan(delta mgl32.Vec2) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = cc.position.Add(delta)
}

func (cc *cameraControllerImpl) Move(dir mgl32.Vec2, dt float32) {
	if dir.Len() == 0 || dt <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = cc.position.Add(dir.Normalize().Mul(cc.moveSpeed * dt))
}

func (cc *cameraControllerImpl) Scale() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.scale
}

func (cc *cameraControllerImpl) SetScale(scale float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.scale = mgl32.Clamp(scale, cc.minScale, cc.maxScale)
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch {
	case delta < 0:
		cc.scale *= cc.zoomFactor
	case delta > 0:
		cc.scale /= cc.zoomFactor
	default:
		return
	}
	cc.scale = mgl32.Clamp(cc.scale, cc.minScale, cc.maxScale)
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) ZoomFactor() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomFactor
}

func (cc *cameraControllerImpl) ScaleBounds() (min, max float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minScale, cc.maxScale
}
