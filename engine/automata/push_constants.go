package automata

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawPushConstantsSize is the byte size of the brush parameter block the draw shader expects.
const DrawPushConstantsSize = 24

// DrawPushConstantsSource is the canonical WGSL definition of the DrawPushConstants struct.
// The draw shader includes it verbatim so both sides share one layout.
//
//go:embed assets/draw_push_constants.wgsl
var DrawPushConstantsSource string

// DrawPushConstants is the brush parameter block uploaded before each draw dispatch.
// Matches the WGSL DrawPushConstants struct exactly (24 bytes, natural alignment).
type DrawPushConstants struct {
	DrawStart  [2]float32 // offset  0: current cursor, canvas space
	DrawEnd    [2]float32 // offset  8: previous cursor, canvas space
	DrawRadius float32    // offset 16
	Element    uint32     // offset 20
}

// Fails to compile if the Go layout drifts from the shader block size.
var _ [DrawPushConstantsSize]byte = [unsafe.Sizeof(DrawPushConstants{})]byte{}

// NewDrawPushConstants packs a brush stroke from start to end.
//
// Parameters:
//   - start: the current cursor position
//   - end: the previous cursor position
//   - radius: the brush radius in canvas pixels
//   - element: the element to paint; unknown values encode as air
//
// Returns:
//   - DrawPushConstants: the packed block
func NewDrawPushConstants(start, end mgl32.Vec2, radius float32, element Element) DrawPushConstants {
	return DrawPushConstants{
		DrawStart:  [2]float32(start),
		DrawEnd:    [2]float32(end),
		DrawRadius: radius,
		Element:    element.Index(),
	}
}

// Size returns the size of the DrawPushConstants struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (24)
func (g *DrawPushConstants) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the block into little-endian bytes suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized 24-byte buffer
func (g *DrawPushConstants) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.DrawStart[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.DrawStart[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.DrawEnd[0]))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.DrawEnd[1]))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(g.DrawRadius))
	binary.LittleEndian.PutUint32(buf[20:], g.Element)
	return buf
}

// UnmarshalDrawPushConstants decodes a block the way the shader reads it.
//
// Parameters:
//   - data: exactly DrawPushConstantsSize bytes
//
// Returns:
//   - DrawPushConstants: the decoded block
//   - error: an error if data has the wrong length
func UnmarshalDrawPushConstants(data []byte) (DrawPushConstants, error) {
	if len(data) != DrawPushConstantsSize {
		return DrawPushConstants{}, fmt.Errorf("automata: push constant block is %d bytes, want %d", len(data), DrawPushConstantsSize)
	}
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
	return DrawPushConstants{
		DrawStart:  [2]float32{f(0), f(4)},
		DrawEnd:    [2]float32{f(8), f(12)},
		DrawRadius: f(16),
		Element:    binary.LittleEndian.Uint32(data[20:]),
	}, nil
}
