package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-lines/engine/scene"
	"github.com/Carmen-Shannon/oxy-lines/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the per-second frame report.
//
// Parameters:
//   - enabled: if true, frame rate and lines per frame are traced
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profiling = enabled
	}
}

// WithTickRate sets the tick callback rate in ticks per second. Values <= 0 mean 60.
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.tickInterval = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window whose message loop drives Run.
//
// Parameters:
//   - w: a configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer whose frames the engine begins, ends and presents.
func WithRenderer(r FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithScene registers a scene at the given z-index key. Lower keys draw first.
//
// Parameters:
//   - key: the z-index determining render order
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit caps the render loop in frames per second. 0 leaves it uncapped.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.minFrameTime = 0
			return
		}
		e.minFrameTime = time.Duration(float64(time.Second) / fps)
	}
}
