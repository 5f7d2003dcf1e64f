package clearpass

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render"
	"github.com/vkngwrapper/minimal_render/render/graph"
	"github.com/vkngwrapper/minimal_render/render/renderer"
	"github.com/vkngwrapper/minimal_render/render/resource"
	"github.com/vkngwrapper/minimal_render/render/view"
)

type recordingEncoder struct {
	passes []resource.RenderPassDescriptor
	ended  int
}

func (e *recordingEncoder) BeginRenderPass(desc resource.RenderPassDescriptor) (resource.RenderPass, error) {
	e.passes = append(e.passes, desc)
	return recordingPass{encoder: e}, nil
}

type recordingPass struct {
	encoder *recordingEncoder
}

func (p recordingPass) End() error {
	p.encoder.ended++
	return nil
}

func runNode(t *testing.T, world *app.World) (*recordingEncoder, int) {
	t.Helper()

	encoder := &recordingEncoder{}
	requests := 0
	rc := renderer.NewRenderContext(func() (resource.CommandEncoder, error) {
		requests++
		return encoder, nil
	})

	if err := (ClearNode{}).Run(&graph.Context{Label: Label}, rc, world); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return encoder, requests
}

func TestClearNodeClearsFirstWindow(t *testing.T) {
	world := app.NewWorld()
	windows := app.InitResource[view.ExtractedWindows](world)
	target := &resource.TextureView{Width: 1280, Height: 720, SRGB: true}
	windows.Insert(view.ExtractedWindow{ID: 0, SwapChainTextureView: target})
	windows.Insert(view.ExtractedWindow{ID: 1, SwapChainTextureView: &resource.TextureView{}})

	encoder, requests := runNode(t, world)

	if requests != 1 {
		t.Fatalf("encoder requested %d times, want 1", requests)
	}
	if len(encoder.passes) != 1 || encoder.ended != 1 {
		t.Fatalf("got %d passes and %d ends, want exactly one of each", len(encoder.passes), encoder.ended)
	}

	desc := encoder.passes[0]
	if desc.Label != "Custom Clear Render Pass" {
		t.Errorf("label = %q", desc.Label)
	}
	if len(desc.ColorAttachments) != 1 {
		t.Fatalf("got %d color attachments, want 1", len(desc.ColorAttachments))
	}
	attachment := desc.ColorAttachments[0]
	if attachment.View != target {
		t.Errorf("pass targets %p, want the first window's view %p", attachment.View, target)
	}
	if attachment.ResolveTarget != nil {
		t.Errorf("unexpected resolve target")
	}
	want := resource.Clear(resource.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0})
	if attachment.Ops.Load != want {
		t.Errorf("load op = %v, want %v", attachment.Ops.Load, want)
	}
	if attachment.Ops.Store != resource.StoreOpStore {
		t.Errorf("store op = %v, want StoreOpStore", attachment.Ops.Store)
	}
}

func TestClearNodeSkipsWithoutTarget(t *testing.T) {
	tests := []struct {
		name  string
		setup func(world *app.World)
	}{
		{"no extracted windows resource", func(*app.World) {}},
		{"no windows", func(world *app.World) {
			app.InitResource[view.ExtractedWindows](world)
		}},
		{"no texture view", func(world *app.World) {
			windows := app.InitResource[view.ExtractedWindows](world)
			windows.Insert(view.ExtractedWindow{ID: 0})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := app.NewWorld()
			tt.setup(world)

			encoder, requests := runNode(t, world)
			if requests != 0 {
				t.Errorf("encoder requested %d times, want 0", requests)
			}
			if len(encoder.passes) != 0 {
				t.Errorf("got %d passes, want 0", len(encoder.passes))
			}
		})
	}
}

func TestClearNodeReportsEncoderFailure(t *testing.T) {
	world := app.NewWorld()
	windows := app.InitResource[view.ExtractedWindows](world)
	windows.Insert(view.ExtractedWindow{ID: 0, SwapChainTextureView: &resource.TextureView{}})

	boom := errors.New("boom")
	rc := renderer.NewRenderContext(func() (resource.CommandEncoder, error) {
		return nil, boom
	})

	err := (ClearNode{}).Run(&graph.Context{Label: Label}, rc, world)
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
}

func TestPluginFinishNeedsRenderApp(t *testing.T) {
	a := app.New()
	if err := (Plugin{}).Finish(a); !errors.Is(err, app.ErrSubAppNotFound) {
		t.Fatalf("Finish error = %v, want ErrSubAppNotFound", err)
	}
}

func TestPluginFinishAddsNode(t *testing.T) {
	a := app.New()
	sub := app.NewSubApp(render.Prepare, render.Render, render.Cleanup)
	app.InsertResource(sub.World, *graph.New())
	a.InsertSubApp(render.RenderApp, sub)

	if err := (Plugin{}).Finish(a); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	g := app.MustResource[graph.RenderGraph](sub.World)
	if _, _, ok := g.Node(Label); !ok {
		t.Fatalf("clear node not registered under %q", Label)
	}
}
