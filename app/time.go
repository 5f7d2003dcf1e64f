package app

import (
	"time"

	"github.com/loov/hrtime"
)

// Time tracks frame timing for the main world.
type Time struct {
	Delta   time.Duration
	Elapsed time.Duration

	startup time.Duration
	last    time.Duration
	started bool
}

// Advance moves the clock to now, measured from an arbitrary fixed origin.
func (t *Time) Advance(now time.Duration) {
	if !t.started {
		t.started = true
		t.startup = now
		t.last = now
		return
	}
	t.Delta = now - t.last
	t.Elapsed = now - t.startup
	t.last = now
}

// TimePlugin inserts Time and advances it at the start of every frame.
type TimePlugin struct {
	// Now defaults to the high resolution process clock.
	Now func() time.Duration
}

func (p TimePlugin) Build(app *App) error {
	now := p.Now
	if now == nil {
		now = hrtime.Now
	}
	InitResource[Time](app.World)
	app.AddSystem(First, func(world *World) error {
		MustResource[Time](world).Advance(now())
		return nil
	})
	return nil
}

// FrameCount counts updates and wraps on overflow.
type FrameCount uint32

type FrameCountPlugin struct{}

func (FrameCountPlugin) Build(app *App) error {
	InitResource[FrameCount](app.World)
	app.AddSystem(Last, func(world *World) error {
		*MustResource[FrameCount](world)++
		return nil
	})
	return nil
}

// MinimalPlugins returns the plugins every app in this repository needs to
// drive a frame loop.
func MinimalPlugins() []Plugin {
	return []Plugin{TimePlugin{}, FrameCountPlugin{}}
}
