package automata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Element identifies the cell type painted by the brush. The numeric value is the
// index written into the draw push-constant block.
type Element uint32

const (
	ElementAir Element = iota
	ElementSand
	ElementWater
	ElementRock
)

var elementNames = map[Element]string{
	ElementAir:   "air",
	ElementSand:  "sand",
	ElementWater: "water",
	ElementRock:  "rock",
}

var elementColors = map[Element]mgl32.Vec4{
	ElementAir:   {0.02, 0.02, 0.02, 1.0},
	ElementSand:  {0.8, 0.8, 0.2, 1.0},
	ElementWater: {0.2, 0.2, 0.8, 1.0},
	ElementRock:  {0.4, 0.4, 0.4, 1.0},
}

// Elements returns every known element in index order.
func Elements() []Element {
	return []Element{ElementAir, ElementSand, ElementWater, ElementRock}
}

// Index returns the shader-side index of the element. Values outside the known set
// encode as air.
//
// Returns:
//   - uint32: the element index written to the GPU
func (e Element) Index() uint32 {
	if _, ok := elementNames[e]; ok {
		return uint32(e)
	}
	return uint32(ElementAir)
}

func (e Element) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return "element(" + strconv.FormatUint(uint64(e), 10) + ")"
}

// Color returns the RGBA color the shaders use for the element. Unknown elements
// return the air color.
func (e Element) Color() mgl32.Vec4 {
	if c, ok := elementColors[e]; ok {
		return c
	}
	return elementColors[ElementAir]
}

// ParseElement resolves an element by name (case-insensitive) or by its numeric index.
//
// Parameters:
//   - s: the element name or index, e.g. "sand" or "1"
//
// Returns:
//   - Element: the parsed element
//   - error: an error if s names no known element
func ParseElement(s string) (Element, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for e, name := range elementNames {
		if name == s {
			return e, nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		if _, ok := elementNames[Element(n)]; ok {
			return Element(n), nil
		}
	}
	return ElementAir, fmt.Errorf("automata: unknown element %q", s)
}

// PaletteSource renders the element indices and colors as WGSL constants so the
// compute shaders share the table defined here.
//
// Returns:
//   - string: WGSL constant declarations
func PaletteSource() string {
	var sb strings.Builder
	for _, e := range Elements() {
		upper := strings.ToUpper(e.String())
		c := e.Color()
		fmt.Fprintf(&sb, "const %s: u32 = %du;\n", upper, e.Index())
		fmt.Fprintf(&sb, "const %s_COLOR = vec4<f32>(%s, %s, %s, %s);\n",
			upper, wgslFloat(c[0]), wgslFloat(c[1]), wgslFloat(c[2]), wgslFloat(c[3]))
	}
	return sb.String()
}

// wgslFloat formats f as a WGSL float literal, always with a decimal point.
func wgslFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
