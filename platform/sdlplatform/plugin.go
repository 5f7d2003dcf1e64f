// Package sdlplatform creates native windows with SDL2 and drives the app
// from the SDL event loop.
package sdlplatform

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/window"
)

// Plugin must be added after window.Plugin and before any plugin that needs
// native handles.
type Plugin struct{}

type platformState struct {
	byNative map[uint32]window.ID
	natives  map[window.ID]*sdl.Window

	// drawableSize reports a window's size in pixels.
	drawableSize func(id window.ID) (int32, int32)
}

func newPlatformState() *platformState {
	s := &platformState{
		byNative: make(map[uint32]window.ID),
		natives:  make(map[window.ID]*sdl.Window),
	}
	s.drawableSize = func(id window.ID) (int32, int32) {
		return s.natives[id].VulkanGetDrawableSize()
	}
	return s
}

func (Plugin) Build(a *app.App) error {
	// SDL and the Vulkan WSI calls made from the render sub app must stay on
	// the thread that initialized video.
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}

	state := newPlatformState()
	a.AddExitHook(func() error {
		for id, native := range state.natives {
			native.Destroy()
			delete(state.natives, id)
		}
		sdl.Quit()
		return nil
	})

	windows := app.InitResource[window.Windows](a.World)
	var createErr error
	windows.Each(func(id window.ID, w *window.Window) bool {
		if err := state.create(id, w); err != nil {
			createErr = err
			return false
		}
		return true
	})
	if createErr != nil {
		return createErr
	}

	a.SetRunner(state.run)
	return nil
}

func (s *platformState) create(id window.ID, w *window.Window) error {
	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN | sdl.WINDOW_ALLOW_HIGHDPI)
	if w.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}

	native, err := sdl.CreateWindow(w.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(w.Width), int32(w.Height), flags)
	if err != nil {
		return errors.Wrapf(err, "create window %q", w.Title)
	}

	nativeID, err := native.GetID()
	if err != nil {
		native.Destroy()
		return errors.Wrapf(err, "window %q id", w.Title)
	}

	s.byNative[nativeID] = id
	s.natives[id] = native
	w.Handle = &window.RawHandle{Window: native}
	physicalWidth, physicalHeight := native.VulkanGetDrawableSize()
	w.PhysicalWidth, w.PhysicalHeight = int(physicalWidth), int(physicalHeight)

	app.Logger().Debug("created native window", "id", id, "title", w.Title,
		"width", w.PhysicalWidth, "height", w.PhysicalHeight)
	return nil
}

// close drops a window from the main world. The native window outlives it by
// one frame so the render world can release its surface first.
func (s *platformState) close(windows *window.Windows, id window.ID) {
	if _, ok := windows.Remove(id); ok {
		app.Logger().Info("window closed", "id", id)
	}
}

// reap destroys native windows removed from the main world on an earlier frame.
func (s *platformState) reap(windows *window.Windows) {
	for id, native := range s.natives {
		if _, ok := windows.Get(id); ok {
			continue
		}
		nativeID, err := native.GetID()
		if err == nil {
			delete(s.byNative, nativeID)
		}
		native.Destroy()
		delete(s.natives, id)
	}
}

func (s *platformState) handle(windows *window.Windows, world *app.World, event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		app.InsertResource(world, app.AppExit{})
	case *sdl.WindowEvent:
		id, ok := s.byNative[e.WindowID]
		if !ok {
			return
		}
		w, ok := windows.Get(id)
		if !ok {
			return
		}

		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			s.close(windows, id)
		case sdl.WINDOWEVENT_MINIMIZED:
			w.Minimized = true
		case sdl.WINDOWEVENT_RESTORED:
			w.Minimized = false
			w.Resized = true
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			physicalWidth, physicalHeight := s.drawableSize(id)
			w.PhysicalWidth, w.PhysicalHeight = int(physicalWidth), int(physicalHeight)
			w.Resized = true
		}
	}
}

func (s *platformState) run(a *app.App) error {
	windows := app.MustResource[window.Windows](a.World)

	for !a.ShouldExit() {
		s.reap(windows)
		windows.Each(func(_ window.ID, w *window.Window) bool {
			w.Resized = false
			return true
		})

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			s.handle(windows, a.World, event)
		}

		if err := a.Update(); err != nil {
			return err
		}
	}
	return nil
}
