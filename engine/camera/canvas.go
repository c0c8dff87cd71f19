package camera

import "github.com/go-gl/mathgl/mgl32"

// WorldToCanvas maps a world-space point onto a canvas of the given size centered on the
// world origin. Canvas space has its origin at the top-left and y pointing down.
//
// Parameters:
//   - world: the world-space point
//   - size: the canvas size in texels
//
// Returns:
//   - mgl32.Vec2: the canvas-space point
func WorldToCanvas(world, size mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{world.X() + size.X()/2, -world.Y() + size.Y()/2}
}

// CanvasToWorld is the inverse of WorldToCanvas.
func CanvasToWorld(canvas, size mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{canvas.X() - size.X()/2, size.Y()/2 - canvas.Y()}
}
