package camera

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// Depth range of the orthographic projection. Everything in the scene sits at z = 0.
const (
	orthoNear = -1000.0
	orthoFar  = 1000.0
)

type cameraImpl struct {
	mu *sync.Mutex

	viewportWidth  float32
	viewportHeight float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera is a 2D orthographic camera. It reads position and scale from an attached
// CameraController and computes view and projection matrices for a viewport measured in
// screen pixels, so that at scale 1 one world unit covers one pixel.
type Camera interface {
	// Viewport returns the viewport size in pixels.
	//
	// Returns:
	//   - width, height: the viewport size
	Viewport() (width, height float32)

	// SetViewport sets the viewport size in pixels and recomputes matrices.
	// Non-positive sizes are ignored (minimized windows report 0x0).
	//
	// Parameters:
	//   - width, height: the viewport size
	SetViewport(width, height float32)

	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
	ViewProjectionMatrix() mgl32.Mat4

	// ViewportToWorld unprojects a cursor position into world space.
	//
	// Parameters:
	//   - cursor: the cursor in window pixels, origin top-left, y down
	//
	// Returns:
	//   - mgl32.Vec2: the world-space point under the cursor
	//   - bool: false if the cursor is outside the viewport or the projection is degenerate
	ViewportToWorld(cursor mgl32.Vec2) (mgl32.Vec2, bool)

	// Uniform returns the GPU representation of the current view-projection.
	Uniform() GPUCameraUniform

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// SetController attaches a CameraController and recomputes matrices.
	SetController(ctrl CameraController)

	// BindGroupProvider returns the provider holding the camera's uniform buffer.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)

	// Update reads position and scale from the controller and recomputes matrices.
	// Should be called once per frame. Does nothing without a controller.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera with a 1280x720 viewport and identity matrices. A controller
// must be attached via SetController or WithController before it tracks anything.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                   &sync.Mutex{},
		viewportWidth:        1280,
		viewportHeight:       720,
		viewMatrix:           mgl32.Ident4(),
		projectionMatrix:     mgl32.Ident4(),
		viewProjectionMatrix: mgl32.Ident4(),
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Load(), 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	cameraCount.Add(1)
	return c
}

func (c *cameraImpl) Viewport() (width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewportWidth, c.viewportHeight
}

func (c *cameraImpl) SetViewport(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewportWidth = width
	c.viewportHeight = height
	c.updateMatrices()
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) ViewportToWorld(cursor mgl32.Vec2) (mgl32.Vec2, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, h := c.viewportWidth, c.viewportHeight
	if cursor.X() < 0 || cursor.Y() < 0 || cursor.X() > w || cursor.Y() > h {
		return mgl32.Vec2{}, false
	}
	if c.viewProjectionMatrix.Det() == 0 {
		return mgl32.Vec2{}, false
	}

	ndc := mgl32.Vec4{2*cursor.X()/w - 1, 1 - 2*cursor.Y()/h, 0, 1}
	world := c.viewProjectionMatrix.Inv().Mul4x1(ndc)
	if world.W() == 0 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{world.X() / world.W(), world.Y() / world.W()}, true
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{ViewProj: c.viewProjectionMatrix}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindGroupProvider = provider
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and view-projection matrices from the
// controller. This is a no-op when the controller is nil. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}

	pos := c.controller.Position()
	scale := c.controller.Scale()
	halfW := c.viewportWidth / 2 * scale
	halfH := c.viewportHeight / 2 * scale

	c.viewMatrix = mgl32.Translate3D(-pos.X(), -pos.Y(), 0)
	c.projectionMatrix = mgl32.Ortho(-halfW, halfW, -halfH, halfH, orthoNear, orthoFar)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
