package automata

// SimulationBuilderOption configures a Simulation at construction time.
type SimulationBuilderOption func(*simulation)

// WithTileSize sets the workgroup edge length. It must match the @workgroup_size
// declared by the compute shaders. Zero is ignored.
func WithTileSize(tile uint32) SimulationBuilderOption {
	return func(s *simulation) {
		if tile > 0 {
			s.tileSize = tile
		}
	}
}

// WithBrushRadius sets the brush radius in canvas pixels.
func WithBrushRadius(radius float32) SimulationBuilderOption {
	return func(s *simulation) {
		s.radius = radius
	}
}

// WithPipelineKeys overrides the pipeline and layout keys. Empty fields keep their defaults.
func WithPipelineKeys(keys PipelineKeys) SimulationBuilderOption {
	return func(s *simulation) {
		if keys.Init != "" {
			s.keys.Init = keys.Init
		}
		if keys.Update != "" {
			s.keys.Update = keys.Update
		}
		if keys.Draw != "" {
			s.keys.Draw = keys.Draw
		}
		if keys.SurfaceLayout != "" {
			s.keys.SurfaceLayout = keys.SurfaceLayout
		}
	}
}

// WithSurface binds an initial surface.
func WithSurface(surface Surface) SimulationBuilderOption {
	return func(s *simulation) {
		s.surface = surface
	}
}
