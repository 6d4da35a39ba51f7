package engine

import (
	"github.com/Carmen-Shannon/orbit-go/engine/element"
	"github.com/Carmen-Shannon/orbit-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig replaces the whole configuration. Apply before any option that
// tweaks individual fields.
//
// Parameters:
//   - cfg: the configuration to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithConfigFile loads a TOML configuration file over the defaults. A load
// error is surfaced by NewEngine.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigFile(path string) EngineBuilderOption {
	return func(e *engine) {
		cfg, err := LoadConfig(path)
		if err != nil {
			e.initErr = err
			return
		}
		e.cfg = cfg
	}
}

// WithProfiling enables or disables the per-second frame statistics log line.
//
// Parameters:
//   - enabled: if true, enables profiling output
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.Profiling = enabled
	}
}

// WithTickRate caps the frame loop rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.TickRate = fps
	}
}

// WithVSync selects FIFO presentation when true, immediate when false.
//
// Parameters:
//   - enabled: if true, presentation waits for vertical sync
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVSync(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.VSync = enabled
	}
}

// WithWindow sets a custom configured window for the engine to use rather
// than allowing the engine to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithShaderLibraryRoot sets the directory file-based shaders resolve
// against.
//
// Parameters:
//   - root: the shader library directory
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderLibraryRoot(root string) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.ShaderLibraryRoot = root
	}
}

// WithElement registers an element during engine construction. Its initial
// changes are applied once the world exists; a registration error is
// surfaced by NewEngine.
//
// Parameters:
//   - elem: the element to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithElement(elem element.Element) EngineBuilderOption {
	return func(e *engine) {
		e.pendingElements = append(e.pendingElements, elem)
	}
}

// WithStartupCallback sets a hook fired once per process, after the first
// renderer comes up. Use it to load assets that need GPU state.
//
// Parameters:
//   - fn: the callback, receiving the running engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStartupCallback(fn func(Engine)) EngineBuilderOption {
	return func(e *engine) {
		e.onStartup = fn
	}
}

// WithSuspendCallback sets a hook fired just before the renderer is
// released on Suspend.
//
// Parameters:
//   - fn: the callback, receiving the running engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSuspendCallback(fn func(Engine)) EngineBuilderOption {
	return func(e *engine) {
		e.onSuspend = fn
	}
}
