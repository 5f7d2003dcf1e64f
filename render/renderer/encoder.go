package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/minimal_render/render/resource"
)

const maxColorAttachments = 4

var (
	ErrTooManyAttachments = errors.New("too many color attachments")
	ErrResolveUnsupported = errors.New("resolve targets are not supported")
	ErrEncoderFinished    = errors.New("command encoder already finished")
)

type attachmentKey struct {
	format        core1_0.Format
	load          resource.LoadOpKind
	store         resource.StoreOp
	initialLayout core1_0.ImageLayout
}

type passKey struct {
	attachments [maxColorAttachments]attachmentKey
	count       int
}

type framebufferKey struct {
	pass  core1_0.RenderPass
	views [maxColorAttachments]core1_0.ImageView
	count int
}

// passCache keeps render passes for the lifetime of the device and
// framebuffers until the views they wrap are destroyed.
type passCache struct {
	driver       core1_0.CoreDeviceDriver
	passes       map[passKey]core1_0.RenderPass
	framebuffers map[framebufferKey]core1_0.Framebuffer
}

func newPassCache(driver core1_0.CoreDeviceDriver) *passCache {
	return &passCache{
		driver:       driver,
		passes:       make(map[passKey]core1_0.RenderPass),
		framebuffers: make(map[framebufferKey]core1_0.Framebuffer),
	}
}

func vkLoadOp(kind resource.LoadOpKind) core1_0.AttachmentLoadOp {
	if kind == resource.LoadOpClear {
		return core1_0.AttachmentLoadOpClear
	}
	return core1_0.AttachmentLoadOpLoad
}

func vkStoreOp(op resource.StoreOp) core1_0.AttachmentStoreOp {
	if op == resource.StoreOpDiscard {
		return core1_0.AttachmentStoreOpDontCare
	}
	return core1_0.AttachmentStoreOpStore
}

func (c *passCache) renderPass(key passKey) (core1_0.RenderPass, error) {
	if pass, ok := c.passes[key]; ok {
		return pass, nil
	}

	var attachments []core1_0.AttachmentDescription
	var references []core1_0.AttachmentReference
	for i := 0; i < key.count; i++ {
		a := key.attachments[i]
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         a.format,
			Samples:        core1_0.Samples1,
			LoadOp:         vkLoadOp(a.load),
			StoreOp:        vkStoreOp(a.store),
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  a.initialLayout,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		})
		references = append(references, core1_0.AttachmentReference{
			Attachment: i,
			Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
		})
	}

	pass, _, err := c.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: attachments,
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments:  references,
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return core1_0.RenderPass{}, errors.Wrap(err, "create render pass")
	}

	c.passes[key] = pass
	return pass, nil
}

func (c *passCache) framebuffer(pass core1_0.RenderPass, views []*resource.TextureView) (core1_0.Framebuffer, error) {
	key := framebufferKey{pass: pass, count: len(views)}
	for i, view := range views {
		key.views[i] = view.View
	}
	if framebuffer, ok := c.framebuffers[key]; ok {
		return framebuffer, nil
	}

	handles := make([]core1_0.ImageView, 0, len(views))
	for _, view := range views {
		handles = append(handles, view.View)
	}

	framebuffer, _, err := c.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  pass,
		Layers:      1,
		Attachments: handles,
		Width:       views[0].Width,
		Height:      views[0].Height,
	})
	if err != nil {
		return core1_0.Framebuffer{}, errors.Wrap(err, "create framebuffer")
	}

	c.framebuffers[key] = framebuffer
	return framebuffer, nil
}

// forgetViews destroys every framebuffer that wraps one of views. The views
// must no longer be in use by the GPU.
func (c *passCache) forgetViews(views []resource.TextureView) {
	stale := make(map[core1_0.ImageView]bool, len(views))
	for _, view := range views {
		stale[view.View] = true
	}

	for key, framebuffer := range c.framebuffers {
		for i := 0; i < key.count; i++ {
			if stale[key.views[i]] {
				c.driver.DestroyFramebuffer(framebuffer, nil)
				delete(c.framebuffers, key)
				break
			}
		}
	}
}

func (c *passCache) destroy() {
	for _, framebuffer := range c.framebuffers {
		c.driver.DestroyFramebuffer(framebuffer, nil)
	}
	for _, pass := range c.passes {
		c.driver.DestroyRenderPass(pass, nil)
	}
	c.framebuffers = nil
	c.passes = nil
}

// commandEncoder records into one primary command buffer. Every view it
// renders to is a swapchain image, so passes leave attachments ready to
// present.
type commandEncoder struct {
	driver   core1_0.CoreDeviceDriver
	passes   *passCache
	buffer   core1_0.CommandBuffer
	open     bool
	finished bool
	written  map[core1_0.ImageView]bool
}

func newCommandEncoder(driver core1_0.CoreDeviceDriver, passes *passCache, buffer core1_0.CommandBuffer) (*commandEncoder, error) {
	_, err := driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "begin command buffer")
	}
	return &commandEncoder{
		driver:  driver,
		passes:  passes,
		buffer:  buffer,
		written: make(map[core1_0.ImageView]bool),
	}, nil
}

func (e *commandEncoder) BeginRenderPass(desc resource.RenderPassDescriptor) (resource.RenderPass, error) {
	if e.finished {
		return nil, ErrEncoderFinished
	}
	if e.open {
		return nil, errors.Wrapf(resource.ErrPassOpen, "begin %q", desc.Label)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if len(desc.ColorAttachments) > maxColorAttachments {
		return nil, errors.Wrapf(ErrTooManyAttachments, "pass %q has %d", desc.Label, len(desc.ColorAttachments))
	}

	key := passKey{count: len(desc.ColorAttachments)}
	views := make([]*resource.TextureView, 0, len(desc.ColorAttachments))
	clearValues := make([]core1_0.ClearValue, 0, len(desc.ColorAttachments))
	for i, attachment := range desc.ColorAttachments {
		if attachment.ResolveTarget != nil {
			return nil, errors.Wrapf(ErrResolveUnsupported, "pass %q", desc.Label)
		}

		view := attachment.View
		initialLayout := core1_0.ImageLayoutUndefined
		if e.written[view.View] {
			initialLayout = khr_swapchain.ImageLayoutPresentSrc
		}
		key.attachments[i] = attachmentKey{
			format:        view.Format,
			load:          attachment.Ops.Load.Kind,
			store:         attachment.Ops.Store,
			initialLayout: initialLayout,
		}
		views = append(views, view)

		c := attachment.Ops.Load.Color.ForTarget(view.SRGB)
		clearValues = append(clearValues, core1_0.ClearValueFloat{c[0], c[1], c[2], c[3]})
	}

	pass, err := e.passes.renderPass(key)
	if err != nil {
		return nil, err
	}
	framebuffer, err := e.passes.framebuffer(pass, views)
	if err != nil {
		return nil, err
	}

	err = e.driver.CmdBeginRenderPass(e.buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass,
			Framebuffer: framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: core1_0.Extent2D{Width: views[0].Width, Height: views[0].Height},
			},
			ClearValues: clearValues,
		})
	if err != nil {
		return nil, errors.Wrapf(err, "begin render pass %q", desc.Label)
	}

	for _, view := range views {
		e.written[view.View] = true
	}
	e.open = true
	return &renderPass{encoder: e}, nil
}

// prepareForPresent moves every view no pass wrote this frame into the
// present layout.
func (e *commandEncoder) prepareForPresent(views []*resource.TextureView) error {
	var barriers []core1_0.ImageMemoryBarrier
	for _, view := range views {
		if e.written[view.View] {
			continue
		}
		barriers = append(barriers, core1_0.ImageMemoryBarrier{
			OldLayout:           core1_0.ImageLayoutUndefined,
			NewLayout:           khr_swapchain.ImageLayoutPresentSrc,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               view.Image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: 0,
			DstAccessMask: 0,
		})
		e.written[view.View] = true
	}
	if len(barriers) == 0 {
		return nil
	}

	return e.driver.CmdPipelineBarrier(e.buffer, core1_0.PipelineStageColorAttachmentOutput, core1_0.PipelineStageBottomOfPipe, 0, nil, nil, barriers)
}

func (e *commandEncoder) finish() (core1_0.CommandBuffer, error) {
	if e.open {
		return core1_0.CommandBuffer{}, errors.Wrap(resource.ErrPassOpen, "finish")
	}
	if e.finished {
		return core1_0.CommandBuffer{}, ErrEncoderFinished
	}
	e.finished = true
	_, err := e.driver.EndCommandBuffer(e.buffer)
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "end command buffer")
	}
	return e.buffer, nil
}

type renderPass struct {
	encoder *commandEncoder
	ended   bool
}

func (p *renderPass) End() error {
	if p.ended {
		return resource.ErrPassEnded
	}
	p.ended = true
	p.encoder.driver.CmdEndRenderPass(p.encoder.buffer)
	p.encoder.open = false
	return nil
}
