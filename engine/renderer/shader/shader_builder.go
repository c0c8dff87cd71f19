package shader

// ShaderBuilderOption configures a Shader at construction time.
type ShaderBuilderOption func(*shader)

// WithSourcePath reads the WGSL source from a file.
func WithSourcePath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.path = path
	}
}

// WithSource uses the given WGSL source, typically an embedded asset.
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.rawSource = source
	}
}

// WithInclude registers an extra snippet for `#include <name>` directives.
func WithInclude(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.pp.Register(name, source)
	}
}

// WithValidation enables naga validation in Validate.
func WithValidation(enabled bool) ShaderBuilderOption {
	return func(s *shader) {
		s.validate = enabled
	}
}
