package scene

import (
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithSurfaceSize sets the simulation surface size in cells. Zero values keep the default.
//
// Parameters:
//   - width: the surface width
//   - height: the surface height
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSurfaceSize(width, height uint32) SceneBuilderOption {
	return func(s *scene) {
		if width > 0 {
			s.width = width
		}
		if height > 0 {
			s.height = height
		}
	}
}

// WithShaderValidation runs naga over every simulation shader before its pipeline is created.
func WithShaderValidation(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.validate = enabled
	}
}

// WithPipelineKeys overrides the simulation pipeline and layout keys. Empty fields keep
// their defaults.
func WithPipelineKeys(keys automata.PipelineKeys) SceneBuilderOption {
	return func(s *scene) {
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

// WithPresentPipelineKey sets the key the present render pipeline is registered under.
func WithPresentPipelineKey(key string) SceneBuilderOption {
	return func(s *scene) {
		if key != "" {
			s.presentKey = key
		}
	}
}

// WithSimulationOptions forwards options to the simulation, e.g. brush radius or tile size.
//
// Parameters:
//   - options: the simulation options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSimulationOptions(options ...automata.SimulationBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.simOptions = append(s.simOptions, options...)
	}
}
