// Package config holds the runtime settings of the pixel world application and binds
// them to command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full set of application settings.
type Config struct {
	// Simulation
	Width       int
	Height      int
	TileSize    int
	BrushRadius float64
	Element     string

	// Window and renderer
	WindowWidth      int
	WindowHeight     int
	MinWindowWidth   int
	MinWindowHeight  int
	MaxWindowWidth   int // 0 leaves the width unbounded
	MaxWindowHeight  int // 0 leaves the height unbounded
	Title            string
	PresentMode      string
	CompileWorkers   int
	ValidateShaders  bool
	SoftwareRenderer bool

	// Camera
	MoveSpeed  float64
	ZoomFactor float64
	MinScale   float64
	MaxScale   float64

	// Engine
	TickRate float64
	Profiler bool
}

// DefaultConfig returns the settings of the stock application: a 1280x720 world in a
// window of the same size, sand selected.
func DefaultConfig() Config {
	return Config{
		Width:        int(automata.DefaultWidth),
		Height:       int(automata.DefaultHeight),
		TileSize:     int(automata.DefaultTileSize),
		BrushRadius:  float64(automata.DefaultBrushRadius),
		Element:      automata.ElementSand.String(),
		WindowWidth:     1280,
		WindowHeight:    720,
		MinWindowWidth:  320,
		MinWindowHeight: 200,
		Title:           "Pixel World",
		PresentMode:     "vsync",
		MoveSpeed:       500,
		ZoomFactor:      1.05,
		MinScale:        0.15,
		MaxScale:        5,
		TickRate:        60,
	}
}

// RegisterFlags binds every field to a flag on fs, using the current values as defaults.
//
// Parameters:
//   - fs: the flag set to register on
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "simulation width in cells")
	fs.IntVar(&c.Height, "height", c.Height, "simulation height in cells")
	fs.IntVar(&c.TileSize, "tile", c.TileSize, "compute workgroup edge length (must equal the shaders' @workgroup_size)")
	fs.Float64Var(&c.BrushRadius, "brush-radius", c.BrushRadius, "brush radius in cells")
	fs.StringVar(&c.Element, "element", c.Element, "starting brush element: air, sand, water or rock")

	fs.IntVar(&c.WindowWidth, "window-width", c.WindowWidth, "window width in pixels")
	fs.IntVar(&c.WindowHeight, "window-height", c.WindowHeight, "window height in pixels")
	fs.IntVar(&c.MinWindowWidth, "min-window-width", c.MinWindowWidth, "smallest window width when resizing")
	fs.IntVar(&c.MinWindowHeight, "min-window-height", c.MinWindowHeight, "smallest window height when resizing")
	fs.IntVar(&c.MaxWindowWidth, "max-window-width", c.MaxWindowWidth, "largest window width when resizing (0 = unbounded)")
	fs.IntVar(&c.MaxWindowHeight, "max-window-height", c.MaxWindowHeight, "largest window height when resizing (0 = unbounded)")
	fs.StringVar(&c.Title, "title", c.Title, "window title")
	fs.StringVar(&c.PresentMode, "present-mode", c.PresentMode, "vsync or uncapped")
	fs.IntVar(&c.CompileWorkers, "compile-workers", c.CompileWorkers, "concurrent compute pipeline compiles (0 = default)")
	fs.BoolVar(&c.ValidateShaders, "validate-shaders", c.ValidateShaders, "run naga over each shader before pipeline creation")
	fs.BoolVar(&c.SoftwareRenderer, "software", c.SoftwareRenderer, "force the software fallback adapter")

	fs.Float64Var(&c.MoveSpeed, "move-speed", c.MoveSpeed, "camera pan speed in world units per second")
	fs.Float64Var(&c.ZoomFactor, "zoom-factor", c.ZoomFactor, "scale change per scroll step")
	fs.Float64Var(&c.MinScale, "min-scale", c.MinScale, "smallest camera scale")
	fs.Float64Var(&c.MaxScale, "max-scale", c.MaxScale, "largest camera scale")

	fs.Float64Var(&c.TickRate, "tick-rate", c.TickRate, "engine ticks per second")
	fs.BoolVar(&c.Profiler, "profile", c.Profiler, "log frame and dispatch statistics every second")
}

// Validate reports every invalid field at once.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalid that lists each problem
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Width > 0 && c.Height > 0, "simulation size %dx%d must be positive", c.Width, c.Height)
	check(c.TileSize == int(automata.DefaultTileSize), "tile size %d must match the shader workgroup size %d", c.TileSize, automata.DefaultTileSize)
	check(c.BrushRadius >= 0, "brush radius %v must not be negative", c.BrushRadius)
	if _, err := c.StartElement(); err != nil {
		problems = append(problems, err.Error())
	}
	check(c.WindowWidth > 0 && c.WindowHeight > 0, "window size %dx%d must be positive", c.WindowWidth, c.WindowHeight)
	check(c.MinWindowWidth >= 0 && c.MinWindowHeight >= 0 && c.MaxWindowWidth >= 0 && c.MaxWindowHeight >= 0,
		"window size limits must not be negative")
	check(fitsLimit(c.MinWindowWidth, c.WindowWidth, c.MaxWindowWidth) && fitsLimit(c.MinWindowHeight, c.WindowHeight, c.MaxWindowHeight),
		"window size %dx%d must lie within the limits %dx%d to %dx%d",
		c.WindowWidth, c.WindowHeight, c.MinWindowWidth, c.MinWindowHeight, c.MaxWindowWidth, c.MaxWindowHeight)
	mode := strings.ToLower(c.PresentMode)
	check(mode == "vsync" || mode == "uncapped", "present mode %q must be vsync or uncapped", c.PresentMode)
	check(c.CompileWorkers >= 0, "compile workers %d must not be negative", c.CompileWorkers)
	check(c.MoveSpeed >= 0, "move speed %v must not be negative", c.MoveSpeed)
	check(c.ZoomFactor > 1, "zoom factor %v must be greater than 1", c.ZoomFactor)
	check(c.MinScale > 0 && c.MinScale <= c.MaxScale, "scale bounds [%v, %v] must be positive and ordered", c.MinScale, c.MaxScale)
	check(c.TickRate > 0, "tick rate %v must be positive", c.TickRate)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// fitsLimit reports whether min <= v <= max, where a max of zero is unbounded.
func fitsLimit(min, v, max int) bool {
	return v >= min && (max == 0 || v <= max)
}

// StartElement parses Element.
func (c Config) StartElement() (automata.Element, error) {
	return automata.ParseElement(c.Element)
}
