// Package view holds render-world copies of main-world windows.
package view

import (
	"sort"

	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render/resource"
	"github.com/vkngwrapper/minimal_render/window"
)

type ExtractedWindow struct {
	ID             window.ID
	PhysicalWidth  int
	PhysicalHeight int
	PresentMode    window.PresentMode
	Minimized      bool
	Resized        bool
	Handle         *window.RawHandle

	// SwapChainTextureView is nil until a texture has been acquired for the
	// current frame, and stays nil for frames with nothing to draw to.
	SwapChainTextureView   *resource.TextureView
	SwapChainTextureFormat core1_0.Format
}

// ExtractedWindows is rebuilt from the main world at the start of every frame.
type ExtractedWindows struct {
	windows    map[window.ID]*ExtractedWindow
	order      []window.ID
	primary    window.ID
	hasPrimary bool
}

func (e *ExtractedWindows) Len() int {
	return len(e.order)
}

func (e *ExtractedWindows) Get(id window.ID) (*ExtractedWindow, bool) {
	w, ok := e.windows[id]
	return w, ok
}

// First returns the window with the lowest ID.
func (e *ExtractedWindows) First() (*ExtractedWindow, bool) {
	if len(e.order) == 0 {
		return nil, false
	}
	return e.windows[e.order[0]], true
}

func (e *ExtractedWindows) Primary() (*ExtractedWindow, bool) {
	if !e.hasPrimary {
		return nil, false
	}
	return e.Get(e.primary)
}

// Iter visits windows in ID order.
func (e *ExtractedWindows) Iter(fn func(w *ExtractedWindow) bool) {
	for _, id := range e.order {
		if !fn(e.windows[id]) {
			return
		}
	}
}

// Extract syncs the render world's windows with the main world and returns
// the IDs of windows that were closed since the last frame.
func Extract(main, render *app.World) []window.ID {
	extracted := app.InitResource[ExtractedWindows](render)
	if extracted.windows == nil {
		extracted.windows = make(map[window.ID]*ExtractedWindow)
	}

	windows, ok := app.Resource[window.Windows](main)
	if !ok {
		return extracted.reset()
	}

	live := make(map[window.ID]bool, windows.Len())
	extracted.order = extracted.order[:0]
	windows.Each(func(id window.ID, w *window.Window) bool {
		live[id] = true
		extracted.order = append(extracted.order, id)

		ew, ok := extracted.windows[id]
		if !ok {
			ew = &ExtractedWindow{ID: id}
			extracted.windows[id] = ew
		}
		ew.PhysicalWidth = w.PhysicalWidth
		ew.PhysicalHeight = w.PhysicalHeight
		ew.PresentMode = w.PresentMode
		ew.Minimized = w.Minimized
		ew.Resized = w.Resized
		ew.Handle = w.Handle
		ew.SwapChainTextureView = nil
		return true
	})

	var closed []window.ID
	for id := range extracted.windows {
		if !live[id] {
			closed = append(closed, id)
			delete(extracted.windows, id)
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i] < closed[j] })

	primary, _, hasPrimary := windows.Primary()
	extracted.primary = primary
	extracted.hasPrimary = hasPrimary
	return closed
}

func (e *ExtractedWindows) reset() []window.ID {
	closed := make([]window.ID, 0, len(e.order))
	closed = append(closed, e.order...)
	e.windows = make(map[window.ID]*ExtractedWindow)
	e.order = nil
	e.hasPrimary = false
	return closed
}

// ClearTextureViews drops this frame's swapchain views once the frame has been
// submitted.
func (e *ExtractedWindows) ClearTextureViews() {
	for _, w := range e.windows {
		w.SwapChainTextureView = nil
	}
}

// Insert adds or replaces a window directly. It is used by code that builds a
// render world without a main world, such as tests.
func (e *ExtractedWindows) Insert(w ExtractedWindow) *ExtractedWindow {
	if e.windows == nil {
		e.windows = make(map[window.ID]*ExtractedWindow)
	}
	if _, exists := e.windows[w.ID]; !exists {
		e.order = append(e.order, w.ID)
		sort.Slice(e.order, func(i, j int) bool { return e.order[i] < e.order[j] })
	}
	stored := w
	e.windows[w.ID] = &stored
	return &stored
}
