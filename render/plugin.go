// Package render sets up the render sub app: it extracts windows from the
// main world, acquires their swapchain textures, runs the render graph and
// presents the result every frame.
package render

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render/graph"
	"github.com/vkngwrapper/minimal_render/render/renderer"
	"github.com/vkngwrapper/minimal_render/render/view"
	"github.com/vkngwrapper/minimal_render/window"
)

// RenderApp labels the render sub app.
const RenderApp app.AppLabel = "render"

// Render sub app stages.
const (
	Prepare app.StageLabel = "Prepare"
	Render  app.StageLabel = "Render"
	Cleanup app.StageLabel = "Cleanup"
)

var ErrNoPrimaryWindow = errors.New("render plugin needs a primary window with a native handle; add the platform plugin first")

// RenderDevice exposes the GPU device to render world systems.
type RenderDevice struct {
	Device *renderer.Device
}

type Plugin struct {
	ApplicationName string
	Validation      bool
}

func (p Plugin) Build(a *app.App) error {
	windows, ok := app.Resource[window.Windows](a.World)
	if !ok {
		return ErrNoPrimaryWindow
	}
	primaryID, primary, ok := windows.Primary()
	if !ok || primary.Handle == nil || primary.Handle.Window == nil {
		return ErrNoPrimaryWindow
	}

	device, primarySurface, err := renderer.NewDevice(primary.Handle.Window, renderer.DeviceOptions{
		ApplicationName: p.ApplicationName,
		Validation:      p.Validation,
	})
	if err != nil {
		return err
	}

	state := &renderState{
		device:   device,
		surfaces: make(map[window.ID]*renderer.Surface),
	}
	a.AddExitHook(state.destroy)

	surface, err := renderer.NewSurface(device, primary.Handle.Window, primarySurface, primary.PresentMode)
	if err != nil {
		return err
	}
	state.surfaces[primaryID] = surface

	state.frames, err = renderer.NewFrames(device)
	if err != nil {
		return err
	}

	sub := app.NewSubApp(Prepare, Render, Cleanup)
	app.InsertResource(sub.World, *graph.New())
	app.InitResource[view.ExtractedWindows](sub.World)
	app.InsertResource(sub.World, RenderDevice{Device: device})

	sub.Extract = state.extract
	if err := state.addSystems(sub.Schedule); err != nil {
		return err
	}

	a.InsertSubApp(RenderApp, sub)
	return nil
}

type renderState struct {
	device   *renderer.Device
	frames   *renderer.Frames
	surfaces map[window.ID]*renderer.Surface
}

func (s *renderState) addSystems(schedule *app.Schedule) error {
	systems := []struct {
		stage  app.StageLabel
		system app.System
	}{
		{Prepare, s.prepare},
		{Render, s.render},
		{Cleanup, cleanup},
	}
	for _, entry := range systems {
		if err := schedule.AddSystem(entry.stage, entry.system); err != nil {
			return err
		}
	}
	return nil
}

func (s *renderState) extract(main, sub *app.World) error {
	closed := view.Extract(main, sub)
	if len(closed) == 0 {
		return nil
	}

	if err := s.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	for _, id := range closed {
		if surface, ok := s.surfaces[id]; ok {
			surface.Destroy()
			delete(s.surfaces, id)
			app.Logger().Debug("destroyed surface of closed window", "window", id)
		}
	}
	return nil
}

func (s *renderState) surfaceFor(w *view.ExtractedWindow) (*renderer.Surface, error) {
	if surface, ok := s.surfaces[w.ID]; ok {
		return surface, nil
	}
	if w.Handle == nil || w.Handle.Window == nil {
		return nil, nil
	}

	raw, err := s.device.CreateSurface(w.Handle.Window)
	if err != nil {
		return nil, err
	}
	surface, err := renderer.NewSurface(s.device, w.Handle.Window, raw, w.PresentMode)
	if err != nil {
		return nil, err
	}
	s.surfaces[w.ID] = surface
	return surface, nil
}

func (s *renderState) prepare(world *app.World) error {
	if err := s.frames.Begin(); err != nil {
		return err
	}

	var prepareErr error
	app.MustResource[view.ExtractedWindows](world).Iter(func(w *view.ExtractedWindow) bool {
		surface, err := s.surfaceFor(w)
		if err != nil {
			prepareErr = errors.Wrapf(err, "window %d", w.ID)
			return false
		}
		if surface == nil {
			return true
		}

		if w.Resized {
			surface.MarkOutdated()
		}
		surface.SetPresentMode(w.PresentMode)

		textureView, err := s.frames.Acquire(surface)
		if err != nil {
			prepareErr = errors.Wrapf(err, "window %d", w.ID)
			return false
		}
		w.SwapChainTextureView = textureView
		w.SwapChainTextureFormat = surface.Format()
		return true
	})
	return prepareErr
}

func (s *renderState) render(world *app.World) error {
	rc := renderer.NewRenderContext(s.frames.NewEncoder)
	if err := graph.Run(app.MustResource[graph.RenderGraph](world), rc, world); err != nil {
		return err
	}
	return s.frames.Submit(rc.Finish())
}

func cleanup(world *app.World) error {
	app.MustResource[view.ExtractedWindows](world).ClearTextureViews()
	return nil
}

func (s *renderState) destroy() error {
	err := s.device.WaitIdle()
	for id, surface := range s.surfaces {
		surface.Destroy()
		delete(s.surfaces, id)
	}
	if s.frames != nil {
		s.frames.Destroy()
	}
	s.device.Destroy()
	return err
}
