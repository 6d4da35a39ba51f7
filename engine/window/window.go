// Package window provides platform windowing and raw input delivery. It
// translates platform events into common.InputEvent values and executes the
// runtime commands elements propose through the world's app change queue.
package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is
	// resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetInputCallback sets the function called for each raw input event.
	//
	// Parameters:
	//   - callback: function receiving the event
	SetInputCallback(callback func(event common.InputEvent))

	// SetFocusCallback sets the function called when window focus flips.
	//
	// Parameters:
	//   - callback: function receiving the new focus state
	SetFocusCallback(callback func(focused bool))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for
	// creating a WebGPU surface on this platform.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor, or nil
	//     if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Apply executes drained runtime commands: cursor visibility, cursor
	// capture, cursor warps and exit requests.
	//
	// Parameters:
	//   - changes: the commands to execute, in order
	Apply(changes []world.AppChange)

	// IsRunning returns true while the window is active.
	//
	// Returns:
	//   - bool: true if running, false once closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close fails
	Close() error

	// ProcessMessages runs the window message loop. Blocks until the window
	// closes, invoking the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title  string
	width  int
	height int

	internalWindow any

	onUpdate func()
	onResize func(width, height int)
	onInput  func(event common.InputEvent)
	onFocus  func(focused bool)
}

var _ Window = &engineWindow{}

// New creates a window with the specified options. Defaults are applied
// first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
//   - error: an error if platform window creation fails
func New(options ...Option) (Window, error) {
	w := &engineWindow{
		title:  "orbit",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	return w, nil
}

// Option is a functional option for configuring a window.
type Option func(w *engineWindow)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title bar text
//
// Returns:
//   - Option: option function to apply
func WithTitle(title string) Option {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - Option: option function to apply
func WithSize(width, height int) Option {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetInputCallback(callback func(event common.InputEvent)) {
	w.onInput = callback
}

func (w *engineWindow) SetFocusCallback(callback func(focused bool)) {
	w.onFocus = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) Apply(changes []world.AppChange) {
	platformApplyChanges(w, changes)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
