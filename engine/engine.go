package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/pixel-world/common"
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/input"
	"github.com/Carmen-Shannon/pixel-world/engine/profiler"
	"github.com/Carmen-Shannon/pixel-world/engine/scene"
	"github.com/Carmen-Shannon/pixel-world/engine/window"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window
	input  input.Tracker

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenesMu *sync.RWMutex
	scenes   map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Input returns the tracker fed by the window's input callbacks.
	Input() input.Tracker

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate after the cameras have moved.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Run starts the engine and render goroutines and pumps the window on the calling
	// goroutine, which must be the main thread. Blocks until the window closes or Quit is
	// called, then releases every scene and its renderer.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// When a window is attached its input callbacks feed the engine's input tracker, scroll
// zooms every active camera and resizes reach each scene's renderer and camera.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		scenesMu:         &sync.RWMutex{},
		scenes:           make(map[int]scene.Scene),
		running:          false,
		wg:               sync.WaitGroup{},
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.input == nil {
		e.input = input.NewTracker()
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithStatsSource(e.simulationStats))
	}
	if e.window != nil {
		e.bindWindow()
	}

	return e
}

// bindWindow routes window events. Callbacks run on the main thread.
func (e *engine) bindWindow() {
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode == common.KeyEsc {
			e.signalQuit()
			return
		}
		e.input.KeyDown(keyCode)
	})
	e.window.SetKeyUpCallback(e.input.KeyUp)
	e.window.SetMouseButtonCallback(e.input.MouseButton)
	e.window.SetMouseMoveCallback(func(x, y int32) {
		e.input.CursorMoved(float32(x), float32(y))
	})
	e.window.SetScrollCallback(func(delta float32) {
		for _, s := range e.activeScenes() {
			if c := s.Camera(); c != nil && c.Controller() != nil {
				c.Controller().Zoom(delta)
			}
		}
	})
	e.window.SetResizeCallback(func(width, height int) {
		for _, s := range e.Scenes() {
			if r := s.Renderer(); r != nil {
				r.Resize(width, height)
			}
			if c := s.Camera(); c != nil {
				c.SetViewport(float32(width), float32(height))
			}
		}
	})
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
		default:
		}
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Input() input.Tracker {
	return e.input
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.release()
	if err := e.window.Close(); err != nil {
		log.Printf("[Engine] window close: %v", err)
	}
}

// release frees each scene, then each distinct renderer once.
func (e *engine) release() {
	released := make(map[any]bool)
	for _, s := range e.sortedScenes(false) {
		s.Release()
		if r := s.Renderer(); r != nil && !released[r] {
			released[r] = true
			r.Release()
		}
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Pans active cameras from the held movement keys, then fires the tick callback.
// Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick advances the cameras by one engine step.
func (e *engine) tick(dt float32) {
	dir := e.input.MoveDirection()
	for _, s := range e.activeScenes() {
		if c := s.Camera(); c != nil && c.Controller() != nil {
			c.Controller().Move(dir, dt)
		}
	}
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame()

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame records one frame for every active scene in ascending z-index order. The
// first active scene's renderer owns the frame: all compute work is batched into one
// submission, then every scene draws into a single render pass.
func (e *engine) renderFrame() {
	active := e.activeScenes()
	if len(active) == 0 {
		return
	}
	frameRenderer := active[0].Renderer()
	if frameRenderer == nil {
		return
	}

	for _, s := range active {
		s.Camera().Update()
	}

	encoder, err := frameRenderer.BeginComputeFrame()
	if err != nil {
		log.Printf("[Engine] compute frame skipped: %v", err)
	} else {
		for _, s := range active {
			params := e.input.Snapshot(s.Camera(), s.SurfaceSize())
			if err := s.PrepareCompute(params, encoder); err != nil {
				log.Printf("[Engine] compute: %v", err)
			}
		}
		frameRenderer.EndComputeFrame()
	}

	if err := frameRenderer.BeginFrame(); err == nil {
		for _, s := range active {
			if err := s.DrawCalls(); err != nil {
				log.Printf("[Engine] draw: %v", err)
			}
		}
		frameRenderer.EndFrame()
		frameRenderer.Present()
	}
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	return e.sortedScenes(true)
}

func (e *engine) sortedScenes(activeOnly bool) []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; !activeOnly || s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// simulationStats sums the dispatch counters of every active scene for the profiler.
func (e *engine) simulationStats() (total automata.Stats) {
	for _, s := range e.activeScenes() {
		if sim := s.Simulation(); sim != nil {
			st := sim.Stats()
			total.Frames += st.Frames
			total.InitDispatches += st.InitDispatches
			total.UpdateDispatches += st.UpdateDispatches
			total.DrawDispatches += st.DrawDispatches
		}
	}
	return total
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send; a pending update is replaced.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
