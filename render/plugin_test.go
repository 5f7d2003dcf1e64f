package render

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/window"
)

func TestBuildRequiresNativePrimaryWindow(t *testing.T) {
	tests := []struct {
		name    string
		plugins []app.Plugin
	}{
		{"no window plugin", nil},
		{"window without native handle", []app.Plugin{window.Plugin{PrimaryWindow: &window.Window{Title: "t"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := app.New()
			a.AddPlugins(tt.plugins...)
			a.AddPlugins(Plugin{})
			if err := a.Run(); !errors.Is(err, ErrNoPrimaryWindow) {
				t.Fatalf("Run error = %v, want ErrNoPrimaryWindow", err)
			}
			if _, err := a.SubApp(RenderApp); !errors.Is(err, app.ErrSubAppNotFound) {
				t.Errorf("render sub app created despite the failure")
			}
		})
	}
}

func TestAddSystemsReportsMissingStage(t *testing.T) {
	state := &renderState{}

	if err := state.addSystems(app.NewSchedule(Prepare, Render, Cleanup)); err != nil {
		t.Fatalf("addSystems: %v", err)
	}

	err := state.addSystems(app.NewSchedule(Prepare, Render))
	if !errors.Is(err, app.ErrUnknownStage) {
		t.Fatalf("addSystems without Cleanup: err = %v, want ErrUnknownStage", err)
	}
}
