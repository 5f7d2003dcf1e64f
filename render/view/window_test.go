package view

import (
	"testing"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render/resource"
	"github.com/vkngwrapper/minimal_render/window"
)

func TestExtractCopiesWindows(t *testing.T) {
	main := app.NewWorld()
	render := app.NewWorld()
	windows := app.InitResource[window.Windows](main)
	primary := windows.SpawnPrimary(window.Window{Title: "p", PresentMode: window.PresentModeAutoNoVsync})
	secondary := windows.Spawn(window.Window{Title: "s", Width: 300, Height: 200})

	if closed := Extract(main, render); len(closed) != 0 {
		t.Fatalf("closed = %v on first extract", closed)
	}

	extracted := app.MustResource[ExtractedWindows](render)
	if extracted.Len() != 2 {
		t.Fatalf("Len = %d, want 2", extracted.Len())
	}
	first, ok := extracted.First()
	if !ok || first.ID != primary {
		t.Fatalf("First = %v, want primary", first)
	}
	if first.PresentMode != window.PresentModeAutoNoVsync {
		t.Errorf("PresentMode = %v", first.PresentMode)
	}
	second, _ := extracted.Get(secondary)
	if second.PhysicalWidth != 300 || second.PhysicalHeight != 200 {
		t.Errorf("physical size = %dx%d", second.PhysicalWidth, second.PhysicalHeight)
	}
	if p, ok := extracted.Primary(); !ok || p.ID != primary {
		t.Errorf("Primary = %v, %v", p, ok)
	}
}

func TestExtractReportsClosedWindows(t *testing.T) {
	main := app.NewWorld()
	render := app.NewWorld()
	windows := app.InitResource[window.Windows](main)
	primary := windows.SpawnPrimary(window.DefaultWindow())
	other := windows.Spawn(window.DefaultWindow())
	Extract(main, render)

	windows.Remove(primary)
	closed := Extract(main, render)
	if len(closed) != 1 || closed[0] != primary {
		t.Fatalf("closed = %v, want [%d]", closed, primary)
	}

	extracted := app.MustResource[ExtractedWindows](render)
	if _, ok := extracted.Primary(); ok {
		t.Errorf("primary still extracted")
	}
	if first, ok := extracted.First(); !ok || first.ID != other {
		t.Errorf("First = %v, want %d", first, other)
	}
}

func TestExtractWithoutWindowsResource(t *testing.T) {
	render := app.NewWorld()
	extracted := app.InitResource[ExtractedWindows](render)
	extracted.Insert(ExtractedWindow{ID: 7})

	closed := Extract(app.NewWorld(), render)
	if len(closed) != 1 || closed[0] != 7 {
		t.Fatalf("closed = %v, want [7]", closed)
	}
	if _, ok := extracted.First(); ok {
		t.Errorf("windows left after the main world lost its windows")
	}
}

func TestExtractResetsTextureViews(t *testing.T) {
	main := app.NewWorld()
	render := app.NewWorld()
	windows := app.InitResource[window.Windows](main)
	id := windows.SpawnPrimary(window.DefaultWindow())
	Extract(main, render)

	extracted := app.MustResource[ExtractedWindows](render)
	w, _ := extracted.Get(id)
	w.SwapChainTextureView = &resource.TextureView{}

	Extract(main, render)
	if w.SwapChainTextureView != nil {
		t.Errorf("stale texture view survived extraction")
	}

	w.SwapChainTextureView = &resource.TextureView{}
	extracted.ClearTextureViews()
	if w.SwapChainTextureView != nil {
		t.Errorf("ClearTextureViews left a view")
	}
}

func TestInsertKeepsIDOrder(t *testing.T) {
	var e ExtractedWindows
	e.Insert(ExtractedWindow{ID: 5})
	e.Insert(ExtractedWindow{ID: 2})
	e.Insert(ExtractedWindow{ID: 5, PhysicalWidth: 10})

	var ids []window.ID
	e.Iter(func(w *ExtractedWindow) bool {
		ids = append(ids, w.ID)
		return true
	})
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Fatalf("ids = %v, want [2 5]", ids)
	}
	if w, _ := e.Get(5); w.PhysicalWidth != 10 {
		t.Errorf("Insert did not replace the window")
	}
}
