package scene

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/camera"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/pixel-world/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene owns the simulation surface, the compute graph that evolves it and the quad it
// is presented on. It records one compute frame and one draw per displayed frame.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene name.
	Name() string

	// Active reports whether the engine should run the scene.
	Active() bool

	// SetActive sets whether the engine should run the scene.
	SetActive(active bool)

	// Camera returns the camera the surface is presented through.
	Camera() camera.Camera

	// Renderer returns the renderer the scene records into.
	Renderer() renderer.Renderer

	// Simulation returns the compute graph driving the surface.
	Simulation() automata.Simulation

	// Surface returns the simulation image.
	Surface() renderer.SurfaceImage

	// SurfaceSize returns the surface size in texels as a vector, the canvas space the
	// frame parameters are expressed in.
	SurfaceSize() mgl32.Vec2

	// PrepareCompute records the simulation graph into the frame's compute encoder. Must
	// be called between the renderer's BeginComputeFrame and EndComputeFrame.
	//
	// Parameters:
	//   - params: the frame's interaction snapshot
	//   - encoder: the compute encoder of the current frame
	//
	// Returns:
	//   - error: an error if a node failed to record its pass
	PrepareCompute(params automata.FrameParams, encoder automata.ComputeEncoder) error

	// DrawCalls uploads the camera and draws the surface quad. Must be called between the
	// renderer's BeginFrame and EndFrame.
	//
	// Returns:
	//   - error: an error if the present pipeline is not registered
	DrawCalls() error

	// Release frees the scene's GPU resources. The scene must not be used afterwards.
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam camera.Camera
	r   renderer.Renderer

	width, height uint32
	validate      bool
	keys          automata.PipelineKeys
	presentKey    string
	simOptions    []automata.SimulationBuilderOption

	sim     automata.Simulation
	surface renderer.SurfaceImage

	meshBGP    bind_group_provider.BindGroupProvider
	presentBGP bind_group_provider.BindGroupProvider

	// Reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider
}

var _ Scene = &scene{}

// NewScene registers the simulation pipelines, creates the surface image and wires the
// present quad. Panics if cam or r is nil or if a GPU resource cannot be created.
//
// Parameters:
//   - name: the name of the scene, also the surface label
//   - cam: the camera to present through (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		name:               name,
		cam:                cam,
		r:                  r,
		width:              automata.DefaultWidth,
		height:             automata.DefaultHeight,
		keys:               automata.DefaultPipelineKeys(),
		presentKey:         DefaultPresentPipelineKey,
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 2),
		writePool:          make([]bind_group_provider.BufferWrite, 0, 1),
	}
	for _, option := range options {
		option(s)
	}

	if err := s.init(); err != nil {
		panic(fmt.Sprintf("scene: failed to initialize %q: %v", name, err))
	}
	return s
}

// init performs the GPU setup in dependency order: the shared layout must exist before
// the compute pipelines are queued, and the surface before the present bind group.
func (s *scene) init() error {
	shaders := LoadSimulationShaders(s.validate)
	tile, err := ShaderTileSize(shaders)
	if err != nil {
		return err
	}

	if err := s.r.RegisterSharedLayout(s.keys.SurfaceLayout, shaders.Automata.BindGroupLayoutDescriptor(0)); err != nil {
		return fmt.Errorf("shared layout: %w", err)
	}

	present := PresentPipeline(s.presentKey, shaders)
	pipelines := append(ComputePipelines(s.keys, shaders), present)
	if err := s.r.RegisterPipelines(pipelines...); err != nil {
		return fmt.Errorf("pipelines: %w", err)
	}

	surface, err := s.r.CreateSurfaceImage(s.name, s.width, s.height)
	if err != nil {
		return fmt.Errorf("surface image: %w", err)
	}
	s.surface = surface

	opts := append([]automata.SimulationBuilderOption{
		automata.WithPipelineKeys(s.keys),
		automata.WithSurface(surface),
		automata.WithTileSize(tile),
	}, s.simOptions...)
	s.sim = automata.NewSimulation(s.r, s.r, opts...)
	if got := s.sim.TileSize(); got != tile {
		return fmt.Errorf("tile size %d does not match the shader workgroup size %d", got, tile)
	}

	return s.initPresent(present)
}

func (s *scene) initPresent(present pipeline.Pipeline) error {
	if bgp := s.cam.BindGroupProvider(); bgp != nil {
		if err := s.r.InitBindGroup(bgp, renderer.RenderBindGroupLayout(present, presentCameraGroup), nil, nil); err != nil {
			return fmt.Errorf("camera bind group: %w", err)
		}
	}

	s.meshBGP = bind_group_provider.NewBindGroupProvider(s.name + "_quad")
	vertices, indices, count := SurfaceQuad(float32(s.width), float32(s.height))
	if err := s.r.InitMeshBuffers(s.meshBGP, vertices, indices, count); err != nil {
		return fmt.Errorf("quad mesh: %w", err)
	}

	// The present provider borrows the surface view; it does not own the texture.
	s.presentBGP = bind_group_provider.NewBindGroupProvider(s.name+"_present",
		bind_group_provider.WithTextureView(renderer.SurfaceBinding, s.surface.View()))
	if err := s.r.InitSampler(s.presentBGP, presentSamplerSlot, common.SamplerStagingData{}); err != nil {
		return fmt.Errorf("present sampler: %w", err)
	}
	if err := s.r.InitBindGroup(s.presentBGP, renderer.RenderBindGroupLayout(present, presentSurfaceGroup), nil, nil); err != nil {
		return fmt.Errorf("present bind group: %w", err)
	}

	log.Printf("[Scene] %s ready: surface %dx%d presented by %s", s.name, s.width, s.height, s.presentKey)
	return nil
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Simulation() automata.Simulation {
	return s.sim
}

func (s *scene) Surface() renderer.SurfaceImage {
	return s.surface
}

func (s *scene) SurfaceSize() mgl32.Vec2 {
	return mgl32.Vec2{float32(s.width), float32(s.height)}
}

func (s *scene) PrepareCompute(params automata.FrameParams, encoder automata.ComputeEncoder) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.sim.Frame(params, encoder); err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}
	return nil
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uniform := s.cam.Uniform()
	s.writePool = append(s.writePool[:0],
		bind_group_provider.NewBufferWrite(s.cam.BindGroupProvider(), 0, uniform.Marshal()))
	s.r.WriteBuffers(s.writePool)

	bindGroups := append(s.drawBindGroupsPool[:0], s.cam.BindGroupProvider(), s.presentBGP)
	if err := s.r.DrawCall(s.presentKey, s.meshBGP, 1, bindGroups); err != nil {
		return fmt.Errorf("draw call failed in scene %q: %w", s.name, err)
	}
	return nil
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.presentBGP != nil {
		s.presentBGP.SetTextureView(renderer.SurfaceBinding, nil)
		s.presentBGP.Release()
		s.presentBGP = nil
	}
	if s.meshBGP != nil {
		s.meshBGP.Release()
		s.meshBGP = nil
	}
	if s.surface != nil {
		s.surface.Provider().Release()
	}
}
