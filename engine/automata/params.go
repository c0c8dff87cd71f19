package automata

import "github.com/go-gl/mathgl/mgl32"

// FrameParams is the per-frame interaction snapshot fed to the simulation.
// Positions are in canvas space: texel units with the origin at the top-left of the surface.
type FrameParams struct {
	MousePos     mgl32.Vec2
	PrevMousePos mgl32.Vec2
	IsDrawing    bool
	IsErasing    bool
	Element      Element
}
