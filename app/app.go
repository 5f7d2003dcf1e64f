package app

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

var (
	ErrUnknownStage    = errors.New("unknown stage")
	ErrSubAppNotFound  = errors.New("sub app not found")
	ErrDuplicatePlugin = errors.New("plugin already added")
)

// Main-schedule stages.
const (
	First      StageLabel = "First"
	PreUpdate  StageLabel = "PreUpdate"
	Update     StageLabel = "Update"
	PostUpdate StageLabel = "PostUpdate"
	Last       StageLabel = "Last"
)

// Plugin configures an App. Build is called for every plugin in the order the
// plugins were added.
type Plugin interface {
	Build(app *App) error
}

// PluginFinisher is implemented by plugins that need every other plugin to be
// built before they finish setting up, e.g. to reach into a sub app created by
// a later plugin.
type PluginFinisher interface {
	Finish(app *App) error
}

// AppExit is inserted into the main world to ask the runner to stop.
type AppExit struct {
	Err error
}

// AppLabel identifies a SubApp.
type AppLabel string

// SubApp owns a separate world and schedule and copies what it needs out of
// the main world during Extract.
type SubApp struct {
	World    *World
	Schedule *Schedule
	Extract  func(main, sub *World) error
}

func NewSubApp(stages ...StageLabel) *SubApp {
	return &SubApp{
		World:    NewWorld(),
		Schedule: NewSchedule(stages...),
	}
}

func (s *SubApp) Update(main *World) error {
	if s.Extract != nil {
		if err := s.Extract(main, s.World); err != nil {
			return errors.Wrap(err, "extract")
		}
	}
	return s.Schedule.Run(s.World)
}

type subAppEntry struct {
	label AppLabel
	app   *SubApp
}

type App struct {
	World    *World
	Schedule *Schedule

	plugins []Plugin
	seen    map[reflect.Type]bool
	subApps []subAppEntry
	runner  func(app *App) error
	pending error
	onExit  []func() error
}

func New() *App {
	return &App{
		World:    NewWorld(),
		Schedule: NewSchedule(First, PreUpdate, Update, PostUpdate, Last),
		seen:     make(map[reflect.Type]bool),
		runner:   runOnce,
	}
}

// AddPlugins queues plugins for Run. A second plugin with the same concrete
// type is rejected, and the error surfaces from Run.
func (a *App) AddPlugins(plugins ...Plugin) *App {
	for _, plugin := range plugins {
		t := reflect.TypeOf(plugin)
		if a.seen[t] {
			if a.pending == nil {
				a.pending = errors.Wrapf(ErrDuplicatePlugin, "%s", t)
			}
			continue
		}
		a.seen[t] = true
		a.plugins = append(a.plugins, plugin)
	}
	return a
}

func (a *App) AddSystem(stage StageLabel, system System) *App {
	if err := a.Schedule.AddSystem(stage, system); err != nil && a.pending == nil {
		a.pending = err
	}
	return a
}

func (a *App) InsertSubApp(label AppLabel, sub *SubApp) {
	for i, entry := range a.subApps {
		if entry.label == label {
			a.subApps[i].app = sub
			return
		}
	}
	a.subApps = append(a.subApps, subAppEntry{label: label, app: sub})
}

func (a *App) SubApp(label AppLabel) (*SubApp, error) {
	for _, entry := range a.subApps {
		if entry.label == label {
			return entry.app, nil
		}
	}
	return nil, errors.Wrapf(ErrSubAppNotFound, "%s", label)
}

func (a *App) SetRunner(runner func(app *App) error) {
	a.runner = runner
}

// AddExitHook registers fn to run once the runner returns. Hooks run in
// reverse registration order, so resources are released before whatever
// they were built on.
func (a *App) AddExitHook(fn func() error) {
	a.onExit = append(a.onExit, fn)
}

func (a *App) runExitHooks() error {
	var combined error
	for i := len(a.onExit) - 1; i >= 0; i-- {
		combined = errors.CombineErrors(combined, a.onExit[i]())
	}
	a.onExit = nil
	return combined
}

// Update runs one frame: the main schedule followed by every sub app.
func (a *App) Update() error {
	if err := a.Schedule.Run(a.World); err != nil {
		return err
	}
	for _, entry := range a.subApps {
		if err := entry.app.Update(a.World); err != nil {
			return errors.Wrapf(err, "sub app %s", entry.label)
		}
	}
	return nil
}

// ShouldExit reports whether a system or the platform asked the app to stop.
func (a *App) ShouldExit() bool {
	return HasResource[AppExit](a.World)
}

func (a *App) setup() error {
	if a.pending != nil {
		return a.pending
	}
	for _, plugin := range a.plugins {
		if err := plugin.Build(a); err != nil {
			return errors.Wrapf(err, "build %s", pluginName(plugin))
		}
	}
	for _, plugin := range a.plugins {
		finisher, ok := plugin.(PluginFinisher)
		if !ok {
			continue
		}
		if err := finisher.Finish(a); err != nil {
			return errors.Wrapf(err, "finish %s", pluginName(plugin))
		}
	}
	return a.pending
}

// Run builds and finishes every plugin, then hands control to the runner.
// Exit hooks run even when setup or the runner fails.
func (a *App) Run() error {
	err := a.setup()
	if err == nil {
		err = a.runner(a)
	}
	if err == nil {
		if exit, ok := Resource[AppExit](a.World); ok && exit.Err != nil {
			err = exit.Err
		}
	}
	if hookErr := a.runExitHooks(); hookErr != nil {
		if err == nil {
			return hookErr
		}
		Logger().Error("exit hook failed", "err", hookErr)
	}
	return err
}

func runOnce(a *App) error {
	return a.Update()
}

func pluginName(plugin Plugin) string {
	return fmt.Sprintf("%T", plugin)
}
