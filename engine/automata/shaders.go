package automata

import _ "embed"

// Entry point names the pipelines are created from.
const (
	EntryInit   = "init"
	EntryUpdate = "update"
	EntryDraw   = "draw"
)

// AutomataShaderSource holds the init and update entry points. It includes the
// palette snippet and binds the surface at @group(0) @binding(0).
//
//go:embed assets/automata.wgsl
var AutomataShaderSource string

// DrawShaderSource holds the brush entry point. The brush block is read from a
// uniform at @group(1) @binding(0).
//
//go:embed assets/draw.wgsl
var DrawShaderSource string
