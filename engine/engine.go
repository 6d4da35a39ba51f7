// Package engine owns the frame scheduler: it drives element updates,
// applies the proposed changes to the world, hands runtime commands to the
// window, and renders the world state once per frame.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/element"
	"github.com/Carmen-Shannon/orbit-go/engine/environment"
	"github.com/Carmen-Shannon/orbit-go/engine/profiler"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer"
	"github.com/Carmen-Shannon/orbit-go/engine/window"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
)

// engine is the implementation of the Engine interface.
type engine struct {
	cfg     Config
	initErr error

	window   window.Window
	world    world.World
	elements element.Store
	renderer renderer.Renderer

	ctx      context.Context
	cancel   context.CancelFunc
	quitOnce sync.Once

	profiler         *profiler.Profiler
	profilingEnabled bool

	// input accumulates raw events between updates; touched only on the
	// event-loop thread.
	input common.InputState

	onStartup func(Engine)
	onSuspend func(Engine)
	started   bool

	lastFrame     time.Time
	minFrame      time.Duration
	pipelineSweep time.Time
	materialSweep time.Time

	pendingElements []element.Element
}

// Engine is the main entry point: it wires the window, world, element store
// and renderer together and runs the frame loop.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// World returns the entity store the frame loop renders from.
	//
	// Returns:
	//   - world.World: the world instance
	World() world.World

	// Renderer returns the active renderer, or nil while suspended.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance or nil
	Renderer() renderer.Renderer

	// Register stores an element and applies its initial changes to the
	// world.
	//
	// Parameters:
	//   - elem: the element to register
	//
	// Returns:
	//   - uint64: the element's store index
	//   - error: the registration hook's error
	Register(elem element.Element) (uint64, error)

	// Remove drops an element from the store. Entities it spawned stay in
	// the world until despawned.
	//
	// Parameters:
	//   - id: the element's store index
	Remove(id uint64)

	// ApplyChanges applies world changes directly, outside the element
	// update path. Call from the frame thread or before Run.
	//
	// Parameters:
	//   - changes: the changes to apply, in order
	ApplyChanges(changes ...world.Change)

	// EnableProfiler enables the per-second frame statistics log line.
	EnableProfiler()

	// DisableProfiler disables the frame statistics log line.
	DisableProfiler()

	// SetTickRate caps the frame loop rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// Resume creates the renderer against the current window surface. The
	// startup callback fires on the first resume of the process. Safe to
	// call again after Suspend; realized state is rebuilt from the world
	// on the next frame.
	//
	// Returns:
	//   - error: an error if renderer creation fails
	Resume() error

	// Suspend releases the renderer and its GPU resources. The world and
	// elements keep running; frames are skipped until Resume.
	Suspend()

	// Run starts the frame loop, resuming first if needed. Blocks until
	// the window closes.
	//
	// Returns:
	//   - error: an error if the renderer could not be created
	Run() error

	// Quit requests the frame loop to exit. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine with the provided options. Defaults come from
// DefaultConfig; later options override earlier ones.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the configured engine
//   - error: an error if configuration loading or window creation fails
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:      DefaultConfig(),
		elements: element.NewStore(),
		profiler: profiler.NewProfiler(),
		input:    common.NewInputState(),
	}

	for _, opt := range options {
		opt(e)
	}
	if e.initErr != nil {
		return nil, e.initErr
	}

	e.profilingEnabled = e.cfg.Profiling
	e.applyTickRate(e.cfg.TickRate)
	environment.SetCacheRoot(e.cfg.IBLCacheDir)
	e.ctx, e.cancel = context.WithCancel(context.Background())

	if e.window == nil {
		w, err := window.New(
			window.WithTitle(e.cfg.Window.Title),
			window.WithSize(e.cfg.Window.Width, e.cfg.Window.Height),
		)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.window = w
	}

	aspect := float32(1)
	if h := e.window.Height(); h > 0 {
		aspect = float32(e.window.Width()) / float32(h)
	}
	e.world = world.New(aspect, e.elements)

	e.window.SetInputCallback(func(ev common.InputEvent) {
		e.input.Apply(ev)
		e.elements.InputEvent(e.ctx, ev)
	})
	e.window.SetFocusCallback(func(focused bool) {
		e.elements.FocusChange(e.ctx, focused)
	})
	e.window.SetResizeCallback(func(width, height int) {
		if height > 0 {
			e.world.SetAspect(float32(width) / float32(height))
		}
		if e.renderer != nil {
			e.renderer.Resize(uint32(width), uint32(height))
		}
	})

	for _, elem := range e.pendingElements {
		if _, err := e.Register(elem); err != nil {
			return nil, fmt.Errorf("engine: register element: %w", err)
		}
	}
	e.pendingElements = nil

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) World() world.World {
	return e.world
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Register(elem element.Element) (uint64, error) {
	id, changes, err := e.elements.Register(e.ctx, elem)
	if err != nil {
		return 0, err
	}
	if len(changes) > 0 {
		e.world.ApplyChanges(changes...)
	}
	return id, nil
}

func (e *engine) Remove(id uint64) {
	e.elements.Remove(id)
}

func (e *engine) ApplyChanges(changes ...world.Change) {
	e.world.ApplyChanges(changes...)
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	e.applyTickRate(fps)
}

func (e *engine) applyTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.minFrame = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Resume() error {
	if e.renderer != nil {
		return nil
	}

	desc := e.window.SurfaceDescriptor()
	if desc == nil {
		return fmt.Errorf("engine: window has no surface")
	}
	r, err := renderer.New(desc, uint32(e.window.Width()), uint32(e.window.Height()), e.cfg.ShaderLibraryRoot, e.cfg.VSync)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	e.renderer = r

	now := time.Now()
	e.pipelineSweep = now
	e.materialSweep = now

	if !e.started {
		e.started = true
		if e.onStartup != nil {
			e.onStartup(e)
		}
	}
	return nil
}

func (e *engine) Suspend() {
	if e.renderer == nil {
		return
	}
	if e.onSuspend != nil {
		e.onSuspend(e)
	}
	e.renderer.Release()
	e.renderer = nil
	log.Printf("[Engine] suspended, GPU resources released")
}

func (e *engine) Run() error {
	if err := e.Resume(); err != nil {
		return err
	}
	e.lastFrame = time.Now()
	e.window.SetUpdateCallback(e.frame)
	e.window.ProcessMessages()
	e.cancel()
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.window.Apply([]world.AppChange{{Kind: world.AppExit}})
	})
}

// frame runs one scheduler iteration: element updates, world application,
// runtime commands, change-list sync and the render itself.
func (e *engine) frame() {
	now := time.Now()
	dt := now.Sub(e.lastFrame)
	if dt < e.minFrame {
		time.Sleep(e.minFrame - dt)
		now = time.Now()
		dt = now.Sub(e.lastFrame)
	}
	e.lastFrame = now

	changes := e.elements.Update(e.ctx, dt, e.input)
	e.input.ResetDeltas()
	if len(changes) > 0 {
		e.world.ApplyChanges(changes...)
	}

	if app := e.world.DrainAppChanges(); len(app) > 0 {
		e.window.Apply(app)
	}
	e.world.EnsureActiveCamera()

	if e.renderer == nil {
		return
	}

	if err := e.renderer.Sync(e.world); err != nil {
		log.Printf("[Engine] sync failed: %v", err)
	}
	if err := e.renderer.RenderFrame(e.world); err != nil {
		log.Printf("[Engine] render failed: %v", err)
	}

	if e.profilingEnabled {
		e.profiler.Tick()
	}

	if now.Sub(e.pipelineSweep) >= e.cfg.PipelineCache.CleanupInterval.Duration {
		e.renderer.CleanupPipelines(e.cfg.PipelineCache.RetainPeriod.Duration)
		e.pipelineSweep = now
	}
	if now.Sub(e.materialSweep) >= e.cfg.MaterialCache.CleanupInterval.Duration {
		e.renderer.CleanupMaterials(e.cfg.MaterialCache.RetainPeriod.Duration)
		e.materialSweep = now
	}
}
