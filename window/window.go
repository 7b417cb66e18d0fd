// Package window opens the SDL2 window the renderer presents to and turns
// its events into per-frame input.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// Input is the user input gathered by one PollEvents call.
type Input struct {
	MouseX, MouseY int
	// DeltaX and DeltaY are the pointer movement since the last poll.
	DeltaX, DeltaY int
	// Scroll is the wheel movement since the last poll, positive away
	// from the user.
	Scroll int
	// Dragging is set while the left mouse button is held.
	Dragging bool
}

// events folds SDL events into input state. It knows nothing about the
// window itself, so it can be driven without one.
type events struct {
	input    Input
	quit     bool
	resized  bool
	onResize []func(width, height int)
}

func (e *events) reset() {
	e.input.DeltaX, e.input.DeltaY, e.input.Scroll = 0, 0, 0
	e.resized = false
}

func (e *events) handle(event sdl.Event) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		e.quit = true
	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED,
			sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED:
			e.resized = true
		}
	case *sdl.MouseMotionEvent:
		e.input.MouseX, e.input.MouseY = int(ev.X), int(ev.Y)
		if e.input.Dragging {
			e.input.DeltaX += int(ev.XRel)
			e.input.DeltaY += int(ev.YRel)
		}
	case *sdl.MouseButtonEvent:
		if ev.Button == sdl.BUTTON_LEFT {
			e.input.Dragging = ev.State == sdl.PRESSED
		}
	case *sdl.MouseWheelEvent:
		scroll := int(ev.Y)
		if ev.Direction == sdl.MOUSEWHEEL_FLIPPED {
			scroll = -scroll
		}
		e.input.Scroll += scroll
	case *sdl.KeyboardEvent:
		if ev.Keysym.Sym == sdl.K_ESCAPE && ev.State == sdl.PRESSED {
			e.quit = true
		}
	}
}

// Window is a resizable SDL2 window that Vulkan can present to.
type Window struct {
	window *sdl.Window
	events events
}

// Open initializes SDL video and shows a window. Only one window may be
// open at a time.
func Open(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init SDL")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{window: window}, nil
}

// SDL returns the underlying window, for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// FramebufferSize returns the drawable size in pixels, which is zero while
// the window is minimized.
func (w *Window) FramebufferSize() (width, height int) {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	dw, dh := w.window.VulkanGetDrawableSize()
	return int(dw), int(dh)
}

// OnResize registers a callback run by PollEvents after the window size
// changed, including minimizing and restoring.
func (w *Window) OnResize(cb func(width, height int)) {
	w.events.onResize = append(w.events.onResize, cb)
}

// PollEvents drains the event queue. It returns false once the user asked
// to quit.
func (w *Window) PollEvents() bool {
	w.events.reset()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.events.handle(event)
	}
	if w.events.resized {
		width, height := w.FramebufferSize()
		for _, cb := range w.events.onResize {
			cb(width, height)
		}
	}
	return !w.events.quit
}

// Input returns the input gathered by the last PollEvents.
func (w *Window) Input() Input {
	return w.events.input
}

func (w *Window) Close() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
