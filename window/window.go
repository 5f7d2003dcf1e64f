// Package window describes the windows an app wants and tracks their runtime
// state. Native windows are created by a platform plugin.
package window

import (
	"sort"

	"github.com/veandco/go-sdl2/sdl"
)

type PresentMode int

const (
	// PresentModeAutoVsync picks FifoRelaxed when supported, else Fifo.
	PresentModeAutoVsync PresentMode = iota
	// PresentModeAutoNoVsync picks Immediate, then Mailbox, else Fifo.
	PresentModeAutoNoVsync
	PresentModeImmediate
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

var presentModeNames = map[PresentMode]string{
	PresentModeAutoVsync:   "AutoVsync",
	PresentModeAutoNoVsync: "AutoNoVsync",
	PresentModeImmediate:   "Immediate",
	PresentModeMailbox:     "Mailbox",
	PresentModeFifo:        "Fifo",
	PresentModeFifoRelaxed: "FifoRelaxed",
}

func (m PresentMode) String() string {
	if name, ok := presentModeNames[m]; ok {
		return name
	}
	return "PresentMode(unknown)"
}

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// RawHandle is the native window backing a Window.
type RawHandle struct {
	Window *sdl.Window
}

type Window struct {
	Title       string
	Width       int
	Height      int
	PresentMode PresentMode
	Resizable   bool

	// Runtime state, written by the platform layer.
	PhysicalWidth  int
	PhysicalHeight int
	Minimized      bool
	Resized        bool
	Handle         *RawHandle
}

func DefaultWindow() Window {
	return Window{
		Title:       "app",
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		PresentMode: PresentModeAutoVsync,
		Resizable:   true,
	}
}

// withDefaults fills unset size and title fields.
func (w Window) withDefaults() Window {
	def := DefaultWindow()
	if w.Title == "" {
		w.Title = def.Title
	}
	if w.Width <= 0 {
		w.Width = def.Width
	}
	if w.Height <= 0 {
		w.Height = def.Height
	}
	if w.PhysicalWidth == 0 && w.PhysicalHeight == 0 {
		w.PhysicalWidth, w.PhysicalHeight = w.Width, w.Height
	}
	return w
}

type ID uint32

// Windows is the main-world resource holding every open window.
type Windows struct {
	windows    map[ID]*Window
	primary    ID
	hasPrimary bool
	nextID     ID
}

func (ws *Windows) Spawn(w Window) ID {
	if ws.windows == nil {
		ws.windows = make(map[ID]*Window)
	}
	ws.nextID++
	id := ws.nextID
	w = w.withDefaults()
	ws.windows[id] = &w
	return id
}

func (ws *Windows) SpawnPrimary(w Window) ID {
	id := ws.Spawn(w)
	ws.primary = id
	ws.hasPrimary = true
	return id
}

func (ws *Windows) Get(id ID) (*Window, bool) {
	w, ok := ws.windows[id]
	return w, ok
}

// Remove closes the window. Removing the primary window leaves the app
// without one.
func (ws *Windows) Remove(id ID) (*Window, bool) {
	w, ok := ws.windows[id]
	if !ok {
		return nil, false
	}
	delete(ws.windows, id)
	if ws.hasPrimary && ws.primary == id {
		ws.hasPrimary = false
	}
	return w, true
}

func (ws *Windows) Primary() (ID, *Window, bool) {
	if !ws.hasPrimary {
		return 0, nil, false
	}
	return ws.primary, ws.windows[ws.primary], true
}

func (ws *Windows) Len() int {
	return len(ws.windows)
}

// Each visits windows in ID order and stops early when fn returns false.
func (ws *Windows) Each(fn func(id ID, w *Window) bool) {
	ids := make([]ID, 0, len(ws.windows))
	for id := range ws.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if !fn(id, ws.windows[id]) {
			return
		}
	}
}
