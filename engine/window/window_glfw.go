package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool

	// lastX, lastY track the cursor for delta computation; haveCursor is
	// false until the first position event.
	lastX, lastY float64
	haveCursor   bool
}

// newPlatformWindow creates the GLFW window with input callbacks and stores
// it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context
	// creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		running: true,
	}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if w.onInput == nil || action == glfw.Repeat {
			return
		}
		w.onInput(common.InputEvent{
			Kind:    common.InputEventKey,
			Key:     uint32(key),
			Pressed: action == glfw.Press,
		})
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.onInput == nil {
			return
		}
		w.onInput(common.InputEvent{
			Kind:    common.InputEventMouseButton,
			Button:  uint32(button),
			Pressed: action == glfw.Press,
		})
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if !gw.haveCursor {
			gw.lastX, gw.lastY = xpos, ypos
			gw.haveCursor = true
			return
		}
		dx := float32(xpos - gw.lastX)
		// Screen Y grows downward; flip so upward movement is positive.
		dy := float32(gw.lastY - ypos)
		gw.lastX, gw.lastY = xpos, ypos
		if w.onInput != nil && (dx != 0 || dy != 0) {
			w.onInput(common.InputEvent{
				Kind:   common.InputEventMouseMotion,
				DeltaX: dx,
				DeltaY: dy,
			})
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onInput != nil {
			w.onInput(common.InputEvent{
				Kind:   common.InputEventScroll,
				DeltaY: float32(yoff),
			})
		}
	})

	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		// A focus regain must not fold the hidden cursor travel into one
		// large motion delta.
		gw.haveCursor = false
		if w.onFocus != nil {
			w.onFocus(focused)
		}
	})

	// Framebuffer size gives pixel-accurate dimensions on high-DPI
	// displays, which the surface configuration requires.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformGetSurfaceDescriptor creates a platform-appropriate surface
// descriptor from the GLFW window via the wgpuglfw bridge.
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	gw := w.internalWindow.(*glfwWindow)
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// platformApplyChanges executes runtime commands against the GLFW window.
func platformApplyChanges(w *engineWindow, changes []world.AppChange) {
	if w.internalWindow == nil {
		return
	}
	gw := w.internalWindow.(*glfwWindow)
	for _, c := range changes {
		switch c.Kind {
		case world.AppCursorVisible:
			if c.Enabled {
				gw.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			} else {
				gw.window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
			}
		case world.AppCursorGrab:
			if c.Enabled {
				gw.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				gw.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
			gw.haveCursor = false
		case world.AppCursorPosition:
			gw.window.SetCursorPos(c.X, c.Y)
			gw.haveCursor = false
		case world.AppExit:
			gw.running = false
			gw.window.SetShouldClose(true)
		}
	}
}

// platformIsRunningCheck returns whether the GLFW window is still active.
func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the GLFW window and terminates the library.
func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
