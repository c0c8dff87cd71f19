package renderer

import (
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceBinding is the binding index the simulation image occupies in its provider and
// in the shared surface layout.
const SurfaceBinding = 0

// SurfaceImageFill is the initial value of every texel of a new simulation image.
var SurfaceImageFill = [4]byte{0, 0, 0, 255}

// surfaceImage is the implementation of the SurfaceImage interface.
type surfaceImage struct {
	provider      bind_group_provider.BindGroupProvider
	binding       int
	width, height uint32
}

// SurfaceImage is the simulation image: a storage texture owned by a bind group provider.
// It satisfies automata.Surface, and its generation follows the provider so replacing the
// texture invalidates any bind group built from it.
type SurfaceImage interface {
	automata.Surface

	// Provider returns the provider that owns the texture.
	Provider() bind_group_provider.BindGroupProvider

	// Binding returns the binding index of the texture in the provider.
	Binding() int

	// View returns the current texture view, or nil after release.
	View() *wgpu.TextureView
}

var _ SurfaceImage = &surfaceImage{}

// NewSurfaceImage wraps a provider whose binding already holds a texture of the given size.
//
// Parameters:
//   - provider: the provider owning the texture
//   - binding: the binding index of the texture
//   - width, height: the texture size in texels
//
// Returns:
//   - SurfaceImage: the surface handle
func NewSurfaceImage(provider bind_group_provider.BindGroupProvider, binding int, width, height uint32) SurfaceImage {
	if provider == nil {
		panic("renderer: surface image needs a provider")
	}
	return &surfaceImage{provider: provider, binding: binding, width: width, height: height}
}

func (s *surfaceImage) Label() string {
	return s.provider.Label()
}

func (s *surfaceImage) Width() uint32 {
	return s.width
}

func (s *surfaceImage) Height() uint32 {
	return s.height
}

func (s *surfaceImage) Generation() uint64 {
	return s.provider.Generation()
}

func (s *surfaceImage) Provider() bind_group_provider.BindGroupProvider {
	return s.provider
}

func (s *surfaceImage) Binding() int {
	return s.binding
}

func (s *surfaceImage) View() *wgpu.TextureView {
	return s.provider.TextureView(s.binding)
}

// surfaceBindGroup wraps a bind group created for a surface so the simulation can hold it
// without seeing wgpu types.
type surfaceBindGroup struct {
	label string
	group *wgpu.BindGroup
}

var _ automata.BindGroup = &surfaceBindGroup{}

func (g *surfaceBindGroup) Label() string {
	return g.label
}

// Release frees the GPU bind group. The simulation calls it when the surface changes.
func (g *surfaceBindGroup) Release() {
	if g.group != nil {
		g.group.Release()
		g.group = nil
	}
}
