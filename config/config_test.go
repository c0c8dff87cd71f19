package config

import (
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if e, err := c.StartElement(); err != nil || e != automata.ElementSand {
		t.Fatalf("StartElement() = %v, %v", e, err)
	}
}

func TestRegisterFlags(t *testing.T) {
	c := DefaultConfig()
	fs := flag.NewFlagSet("pixel-world", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c.RegisterFlags(fs)

	args := []string{"-width", "640", "-element", "water", "-present-mode", "uncapped", "-profile", "-zoom-factor", "1.1", "-max-window-width", "1920"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if c.Width != 640 || c.Height != int(automata.DefaultHeight) {
		t.Errorf("size = %dx%d", c.Width, c.Height)
	}
	if c.Element != "water" || c.PresentMode != "uncapped" || !c.Profiler || c.ZoomFactor != 1.1 || c.MaxWindowWidth != 1920 {
		t.Errorf("config = %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, "simulation size"},
		{"zero tile", func(c *Config) { c.TileSize = 0 }, "tile size"},
		{"tile larger than the workgroup", func(c *Config) { c.TileSize = 16 }, "workgroup size 8"},
		{"unknown element", func(c *Config) { c.Element = "lava" }, "lava"},
		{"bad present mode", func(c *Config) { c.PresentMode = "mailbox" }, "present mode"},
		{"zoom factor of one", func(c *Config) { c.ZoomFactor = 1 }, "zoom factor"},
		{"inverted scale bounds", func(c *Config) { c.MinScale, c.MaxScale = 5, 1 }, "scale bounds"},
		{"negative workers", func(c *Config) { c.CompileWorkers = -1 }, "compile workers"},
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }, "tick rate"},
		{"window below its minimum", func(c *Config) { c.MinWindowWidth = 1600 }, "within the limits"},
		{"window above its maximum", func(c *Config) { c.MaxWindowHeight = 600 }, "within the limits"},
		{"negative limit", func(c *Config) { c.MaxWindowWidth = -1 }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateListsEveryProblem(t *testing.T) {
	c := DefaultConfig()
	c.Width = -1
	c.TickRate = 0
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "simulation size") || !strings.Contains(err.Error(), "tick rate") {
		t.Fatalf("Validate() = %v", err)
	}
}
