// Command minimal_render opens a window and clears it to a solid color every
// frame through a single custom render graph node.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/clearpass"
	"github.com/vkngwrapper/minimal_render/platform/sdlplatform"
	"github.com/vkngwrapper/minimal_render/render"
	"github.com/vkngwrapper/minimal_render/window"
)

func main() {
	runtime.LockOSThread()
	app.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	primary := window.DefaultWindow()
	primary.Title = "minimal bevy_render"
	primary.PresentMode = window.PresentModeAutoNoVsync

	err := app.New().
		AddPlugins(app.MinimalPlugins()...).
		AddPlugins(
			app.FrameTimeDiagnosticsPlugin{},
			window.Plugin{PrimaryWindow: &primary},
			sdlplatform.Plugin{},
			render.Plugin{ApplicationName: "minimal_render"},
			clearpass.Plugin{},
		).
		Run()
	if err != nil {
		app.Logger().Error("app exited with error", "err", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}
