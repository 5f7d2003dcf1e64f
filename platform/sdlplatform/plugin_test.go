package sdlplatform

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/window"
)

func newState() *platformState {
	s := newPlatformState()
	s.drawableSize = func(window.ID) (int32, int32) {
		return 1600, 900
	}
	return s
}

func TestQuitEventRequestsExit(t *testing.T) {
	world := app.NewWorld()
	windows := app.InitResource[window.Windows](world)

	newState().handle(windows, world, &sdl.QuitEvent{Type: sdl.QUIT})

	if !app.HasResource[app.AppExit](world) {
		t.Fatalf("quit event did not insert AppExit")
	}
}

func TestWindowEvents(t *testing.T) {
	tests := []struct {
		name  string
		event uint8
		setup func(w *window.Window)
		check func(t *testing.T, windows *window.Windows, id window.ID)
	}{
		{"close removes window", sdl.WINDOWEVENT_CLOSE, nil, func(t *testing.T, windows *window.Windows, id window.ID) {
			if _, ok := windows.Get(id); ok {
				t.Errorf("window still present after close")
			}
		}},
		{"minimize", sdl.WINDOWEVENT_MINIMIZED, nil, func(t *testing.T, windows *window.Windows, id window.ID) {
			w, _ := windows.Get(id)
			if !w.Minimized {
				t.Errorf("window not marked minimized")
			}
			if w.Resized {
				t.Errorf("minimize marked the window resized")
			}
		}},
		{"restore", sdl.WINDOWEVENT_RESTORED, func(w *window.Window) { w.Minimized = true }, func(t *testing.T, windows *window.Windows, id window.ID) {
			w, _ := windows.Get(id)
			if w.Minimized || !w.Resized {
				t.Errorf("restore left Minimized=%v Resized=%v", w.Minimized, w.Resized)
			}
		}},
		{"resize", sdl.WINDOWEVENT_RESIZED, nil, func(t *testing.T, windows *window.Windows, id window.ID) {
			w, _ := windows.Get(id)
			if w.PhysicalWidth != 1600 || w.PhysicalHeight != 900 {
				t.Errorf("physical size = %dx%d, want 1600x900", w.PhysicalWidth, w.PhysicalHeight)
			}
			if !w.Resized {
				t.Errorf("resize did not mark the window resized")
			}
		}},
		{"size changed", sdl.WINDOWEVENT_SIZE_CHANGED, nil, func(t *testing.T, windows *window.Windows, id window.ID) {
			w, _ := windows.Get(id)
			if w.PhysicalWidth != 1600 || w.PhysicalHeight != 900 || !w.Resized {
				t.Errorf("size change left %dx%d Resized=%v", w.PhysicalWidth, w.PhysicalHeight, w.Resized)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := app.NewWorld()
			windows := app.InitResource[window.Windows](world)
			id := windows.SpawnPrimary(window.DefaultWindow())
			w, _ := windows.Get(id)
			w.Minimized, w.Resized = false, false
			w.PhysicalWidth, w.PhysicalHeight = 1280, 720
			if tt.setup != nil {
				tt.setup(w)
			}

			state := newState()
			state.byNative[42] = id

			state.handle(windows, world, &sdl.WindowEvent{Type: sdl.WINDOWEVENT, WindowID: 42, Event: tt.event})
			tt.check(t, windows, id)
		})
	}
}

func TestEventsForUnknownWindowsAreIgnored(t *testing.T) {
	world := app.NewWorld()
	windows := app.InitResource[window.Windows](world)
	id := windows.SpawnPrimary(window.DefaultWindow())

	newState().handle(windows, world, &sdl.WindowEvent{Type: sdl.WINDOWEVENT, WindowID: 7, Event: sdl.WINDOWEVENT_CLOSE})

	if _, ok := windows.Get(id); !ok {
		t.Fatalf("close for an unknown native window removed a window")
	}
}
