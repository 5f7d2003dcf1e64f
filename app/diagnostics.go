package app

import (
	"time"
)

const DefaultDiagnosticsInterval = time.Second

// FrameTimeDiagnostics holds the most recent averaged measurement.
type FrameTimeDiagnostics struct {
	FPS       float64
	FrameTime time.Duration

	frames int
	window time.Duration
}

func (d *FrameTimeDiagnostics) record(delta, interval time.Duration) bool {
	d.frames++
	d.window += delta
	if d.window < interval {
		return false
	}
	d.FrameTime = d.window / time.Duration(d.frames)
	d.FPS = float64(d.frames) / d.window.Seconds()
	d.frames = 0
	d.window = 0
	return true
}

// FrameTimeDiagnosticsPlugin logs the average frame rate once per Interval.
// It requires TimePlugin.
type FrameTimeDiagnosticsPlugin struct {
	Interval time.Duration
}

func (p FrameTimeDiagnosticsPlugin) Build(app *App) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultDiagnosticsInterval
	}
	InitResource[FrameTimeDiagnostics](app.World)
	app.AddSystem(Last, func(world *World) error {
		t, ok := Resource[Time](world)
		if !ok || t.Delta == 0 {
			return nil
		}
		diag := MustResource[FrameTimeDiagnostics](world)
		if diag.record(t.Delta, interval) {
			Logger().Info("frame time",
				"fps", diag.FPS,
				"frame_time", diag.FrameTime,
			)
		}
		return nil
	})
	return nil
}
