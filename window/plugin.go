package window

import (
	"github.com/vkngwrapper/minimal_render/app"
)

type ExitCondition int

const (
	// ExitOnPrimaryClosed stops the app once the primary window is gone.
	ExitOnPrimaryClosed ExitCondition = iota
	// ExitOnAllClosed stops the app once no window is left.
	ExitOnAllClosed
	// DontExit leaves exiting to some other system.
	DontExit
)

// Plugin inserts the Windows resource and spawns the primary window.
type Plugin struct {
	PrimaryWindow *Window
	ExitCondition ExitCondition
}

func (p Plugin) Build(a *app.App) error {
	windows := app.InitResource[Windows](a.World)
	if p.PrimaryWindow != nil {
		id := windows.SpawnPrimary(*p.PrimaryWindow)
		app.Logger().Debug("spawned primary window", "id", id, "title", p.PrimaryWindow.Title)
	}

	switch p.ExitCondition {
	case ExitOnPrimaryClosed:
		a.AddSystem(app.PostUpdate, exitOnPrimaryClosed)
	case ExitOnAllClosed:
		a.AddSystem(app.PostUpdate, exitOnAllClosed)
	}
	return nil
}

func exitOnPrimaryClosed(world *app.World) error {
	windows := app.MustResource[Windows](world)
	if _, _, ok := windows.Primary(); !ok {
		app.Logger().Info("primary window closed, exiting")
		app.InsertResource(world, app.AppExit{})
	}
	return nil
}

func exitOnAllClosed(world *app.World) error {
	if app.MustResource[Windows](world).Len() == 0 {
		app.Logger().Info("no windows are open, exiting")
		app.InsertResource(world, app.AppExit{})
	}
	return nil
}
