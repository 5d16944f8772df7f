package engine

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-lines/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lines/engine/scene"
	"github.com/Carmen-Shannon/oxy-lines/engine/window"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.engine")
}

// FrameRenderer is the frame lifecycle of renderer.Renderer the engine drives.
type FrameRenderer interface {
	BeginFrame() error
	EndFrame()
	Present()
	Resize(width, height int)
}

var _ FrameRenderer = renderer.Renderer(nil)

type engine struct {
	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup

	// done is closed once by stop
	done     chan struct{}
	doneOnce sync.Once

	window   window.Window
	renderer FrameRenderer
	scenes   map[int]scene.Scene

	profiler  *profiler.Profiler
	profiling bool

	tickInterval time.Duration
	rateUpdates  chan time.Duration
	minFrameTime time.Duration // 0 when uncapped

	onTick  func(deltaTime float32)
	onFrame func(deltaTime float32)
}

// Engine runs a tick loop and a render loop next to the window message loop. Each render frame
// prepares and draws the active scenes in one render pass.
type Engine interface {
	Window() window.Window

	// Renderer returns the renderer whose frames the engine drives.
	Renderer() FrameRenderer

	// EnableProfiler turns on the periodic frame report (frame rate, line records per frame, heap).
	EnableProfiler()
	DisableProfiler()

	// SetTickRate changes the tick callback rate. Values <= 0 mean 60 ticks per second.
	// A running engine picks up the change at its next tick.
	SetTickRate(fps float64)

	// SetTickCallback registers the function called on every tick with the elapsed seconds.
	// Input handling and animation of line data belong here.
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after every presented frame.
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop. 0 removes the cap.
	SetRenderFrameLimit(fps float64)

	// AddScene registers s at z-index key, replacing any scene there. Lower keys draw first so
	// later scenes overlap them.
	//
	// Parameters:
	//   - key: the z-index
	//   - s: the scene
	AddScene(key int, s scene.Scene)

	RemoveScene(key int)

	// Scene returns the scene at key, or nil.
	Scene(key int) scene.Scene

	// Scenes returns a snapshot of the registered scenes.
	Scenes() map[int]scene.Scene

	// Run blocks in the window message loop until the window closes, then stops both loops.
	// It panics without a window or a renderer.
	Run()

	// Quit stops the loops and closes the window. Repeated calls do nothing.
	Quit()
}

// NewEngine creates an Engine. When a window is configured, its resize events reconfigure the
// renderer surface and every scene camera.
//
// Parameters:
//   - options: window, renderer, scenes and loop rates
//
// Returns:
//   - Engine: the engine, not yet running
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		done:         make(chan struct{}),
		rateUpdates:  make(chan time.Duration, 1),
		scenes:       make(map[int]scene.Scene),
		profiler:     profiler.NewProfiler(time.Second),
		tickInterval: time.Second / 60,
	}
	for _, option := range options {
		option(e)
	}
	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}
	return e
}

// resize reconfigures the surface and the scene cameras. Zero sizes come from minimized windows.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if e.renderer != nil {
		e.renderer.Resize(width, height)
	}
	for _, s := range e.Scenes() {
		if c := s.Camera(); c != nil {
			c.SetViewport(width, height)
		}
	}
	tracer().Debugf("resized to %dx%d", width, height)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() FrameRenderer {
	return e.renderer
}

func (e *engine) Run() {
	if e.window == nil || e.renderer == nil {
		panic("engine: Run requires a window and a renderer")
	}
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	tracer().Infof("engine started with %d scenes", len(e.Scenes()))

	e.wg.Add(2)
	go e.tickLoop()
	go e.renderLoop()
	e.window.ProcessMessages()
	e.stop()
	e.wg.Wait()
	tracer().Infof("engine stopped")
}

func (e *engine) Quit() {
	e.stop()
	if e.window != nil {
		_ = e.window.Close()
	}
}

func (e *engine) stop() {
	e.doneOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.done)
	})
}

// tickLoop runs the fixed-rate tick loop. Rate changes arrive through rateUpdates.
func (e *engine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	prevTick := time.Now()
	for {
		select {
		case <-e.done:
			return
		case interval := <-e.rateUpdates:
			e.tickInterval = interval
			ticker.Reset(interval)
		case now := <-ticker.C:
			dt := float32(now.Sub(prevTick).Seconds())
			prevTick = now
			if e.onTick != nil {
				e.onTick(dt)
			}
		}
	}
}

// renderLoop runs the uncapped (or frame-limited) render loop. A panic stops the engine
// instead of crashing the process.
func (e *engine) renderLoop() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			tracer().Errorf("render loop stopped by panic: %v", r)
			e.stop()
		}
	}()

	frameStart := time.Now()
	for {
		select {
		case <-e.done:
			return
		default:
		}
		now := time.Now()
		dt := float32(now.Sub(frameStart).Seconds())
		frameStart = now

		records := e.renderFrame(dt)

		if e.onFrame != nil {
			e.onFrame(dt)
		}
		if e.profiling && e.profiler != nil {
			e.profiler.Tick(records)
		}
		if e.minFrameTime > 0 {
			if remaining := e.minFrameTime - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame draws all active scenes in ascending z-index order within a single render pass.
// A failing scene is logged and skipped so the others still draw.
//
// Returns:
//   - int: the number of line records drawn
func (e *engine) renderFrame(dt float32) int {
	scenes := e.Scenes()
	keys := make([]int, 0, len(scenes))
	for k, s := range scenes {
		if s.Active() {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return 0
	}
	slices.Sort(keys)

	for _, k := range keys {
		scenes[k].Prepare(dt)
	}
	if err := e.renderer.BeginFrame(); err != nil {
		tracer().Debugf("frame skipped: %v", err)
		return 0
	}
	records := 0
	for _, k := range keys {
		s := scenes[k]
		if err := s.DrawCalls(); err != nil {
			tracer().Errorf("scene %d: %v", k, err)
			continue
		}
		records += s.Count()
	}
	e.renderer.EndFrame()
	e.renderer.Present()
	return records
}

func (e *engine) EnableProfiler() {
	e.profiling = true
}

func (e *engine) DisableProfiler() {
	e.profiling = false
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.RLock()
	running := e.running
	e.mu.RUnlock()
	if !running {
		e.tickInterval = newRate
		return
	}
	// replace a pending update instead of blocking
	select {
	case e.rateUpdates <- newRate:
	default:
		select {
		case <-e.rateUpdates:
		default:
		}
		e.rateUpdates <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.onTick = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.onFrame = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.minFrameTime = 0
		return
	}
	e.minFrameTime = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.scenes)
}
