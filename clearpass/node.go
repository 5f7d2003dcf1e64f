// Package clearpass adds a render graph node that clears the first window to a
// solid color every frame.
package clearpass

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render"
	"github.com/vkngwrapper/minimal_render/render/graph"
	"github.com/vkngwrapper/minimal_render/render/renderer"
	"github.com/vkngwrapper/minimal_render/render/resource"
	"github.com/vkngwrapper/minimal_render/render/view"
)

const Label graph.Label = "custom_clear_node"

const passLabel = "Custom Clear Render Pass"

// ClearColor is the linear color the node clears to.
var ClearColor = resource.LinearRGBA(0.1, 0.2, 0.3, 1.0)

// ClearNode clears the swapchain texture of the first extracted window. It
// records no draws.
type ClearNode struct{}

func (ClearNode) Run(ctx *graph.Context, rc *renderer.RenderContext, world *app.World) error {
	logger := app.Logger()

	windows, ok := app.Resource[view.ExtractedWindows](world)
	if !ok {
		logger.Info("no window found")
		return nil
	}
	w, ok := windows.First()
	if !ok {
		logger.Info("no window found")
		return nil
	}
	if w.SwapChainTextureView == nil {
		logger.Info("no swap chain texture view")
		return nil
	}

	encoder, err := rc.CommandEncoder()
	if err != nil {
		return errors.Wrap(err, "command encoder")
	}

	pass, err := encoder.BeginRenderPass(resource.RenderPassDescriptor{
		Label: passLabel,
		ColorAttachments: []resource.RenderPassColorAttachment{
			{
				View: w.SwapChainTextureView,
				Ops: resource.Operations{
					Load:  resource.Clear(ClearColor),
					Store: resource.StoreOpStore,
				},
			},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "begin %q", passLabel)
	}
	if err := pass.End(); err != nil {
		return errors.Wrapf(err, "end %q", passLabel)
	}

	logger.Debug("draw!", "node", ctx.Label, "window", w.ID)
	return nil
}

// Plugin registers ClearNode with the render graph once the render sub app
// exists.
type Plugin struct{}

func (Plugin) Build(*app.App) error {
	return nil
}

func (Plugin) Finish(a *app.App) error {
	sub, err := a.SubApp(render.RenderApp)
	if err != nil {
		return errors.Wrap(err, "clear pass")
	}

	g := app.MustResource[graph.RenderGraph](sub.World)
	_, err = g.AddNode(Label, ClearNode{})
	return err
}
