package renderer

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/minimal_render/render/resource"
)

// MaxFramesInFlight bounds how many frames the CPU may record ahead of the GPU.
const MaxFramesInFlight = 2

// FenceTimeout is how long a single fence wait blocks before it is retried.
const FenceTimeout = 100 * time.Millisecond

var ErrForeignEncoder = errors.New("encoder was not created by this frame")

// Frames sequences per-frame work: wait for the slot to free up, acquire
// swapchain images, record, submit and present.
type Frames struct {
	device   *Device
	inFlight []core1_0.Fence
	buffers  []core1_0.CommandBuffer
	current  int

	acquired []*AcquiredImage
	encoder  *commandEncoder
}

func NewFrames(device *Device) (*Frames, error) {
	f := &Frames{
		device:  device,
		buffers: make([]core1_0.CommandBuffer, MaxFramesInFlight),
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		fence, _, err := device.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			f.Destroy()
			return nil, errors.Wrap(err, "create fence")
		}
		f.inFlight = append(f.inFlight, fence)
	}
	return f, nil
}

// Begin waits until the current slot's previous submission has finished and
// releases its command buffer.
func (f *Frames) Begin() error {
	if err := f.device.waitForFence(f.inFlight[f.current]); err != nil {
		return errors.Wrap(err, "wait for frame fence")
	}

	if f.buffers[f.current].Initialized() {
		f.device.deviceDriver.FreeCommandBuffers(f.buffers[f.current])
		f.buffers[f.current] = core1_0.CommandBuffer{}
	}
	f.acquired = nil
	f.encoder = nil
	return nil
}

// Acquire gets the next image of surface for this frame. A nil view with a
// nil error means the surface has nothing to draw to this frame.
func (f *Frames) Acquire(surface *Surface) (*resource.TextureView, error) {
	image, err := surface.acquire(f.current, f.inFlight[f.current])
	if err != nil || image == nil {
		return nil, err
	}
	f.acquired = append(f.acquired, image)
	return image.View, nil
}

// NewEncoder is the EncoderFactory for this frame's RenderContext.
func (f *Frames) NewEncoder() (resource.CommandEncoder, error) {
	if f.encoder != nil {
		return f.encoder, nil
	}

	buffers, _, err := f.device.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        f.device.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}
	f.buffers[f.current] = buffers[0]

	encoder, err := newCommandEncoder(f.device.deviceDriver, f.device.passes, buffers[0])
	if err != nil {
		return nil, err
	}
	f.encoder = encoder
	return encoder, nil
}

// Submit sends what was recorded into encoder, which may be nil, and presents
// every acquired image. Acquired images always get submitted so their
// semaphores are consumed, even when nothing drew to them.
func (f *Frames) Submit(encoder resource.CommandEncoder) error {
	if encoder != nil {
		if encoder != resource.CommandEncoder(f.encoder) {
			return ErrForeignEncoder
		}
	}
	if f.encoder == nil && len(f.acquired) == 0 {
		return nil
	}
	if f.encoder == nil {
		if _, err := f.NewEncoder(); err != nil {
			return err
		}
	}

	views := make([]*resource.TextureView, 0, len(f.acquired))
	waitSemaphores := make([]core1_0.Semaphore, 0, len(f.acquired))
	waitStages := make([]core1_0.PipelineStageFlags, 0, len(f.acquired))
	signalSemaphores := make([]core1_0.Semaphore, 0, len(f.acquired))
	for _, image := range f.acquired {
		views = append(views, image.View)
		waitSemaphores = append(waitSemaphores, image.surface.imageAvailable[image.slot])
		waitStages = append(waitStages, core1_0.PipelineStageColorAttachmentOutput)
		signalSemaphores = append(signalSemaphores, image.surface.renderFinished[image.index])
	}

	if err := f.encoder.prepareForPresent(views); err != nil {
		return errors.Wrap(err, "transition swapchain images")
	}
	buffer, err := f.encoder.finish()
	if err != nil {
		return err
	}

	_, err = f.device.deviceDriver.ResetFences(f.inFlight[f.current])
	if err != nil {
		return errors.Wrap(err, "reset frame fence")
	}

	_, err = f.device.deviceDriver.QueueSubmit(f.device.graphicsQueue, &f.inFlight[f.current],
		core1_0.SubmitInfo{
			WaitSemaphores:   waitSemaphores,
			WaitDstStageMask: waitStages,
			CommandBuffers:   []core1_0.CommandBuffer{buffer},
			SignalSemaphores: signalSemaphores,
		},
	)
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}

	for _, image := range f.acquired {
		if err := image.surface.present(image); err != nil {
			return err
		}
	}

	f.acquired = nil
	f.encoder = nil
	f.current = (f.current + 1) % MaxFramesInFlight
	return nil
}

// Destroy releases the frame fences and command buffers. The GPU must be idle.
func (f *Frames) Destroy() {
	for i, buffer := range f.buffers {
		if buffer.Initialized() {
			f.device.deviceDriver.FreeCommandBuffers(buffer)
			f.buffers[i] = core1_0.CommandBuffer{}
		}
	}
	for _, fence := range f.inFlight {
		f.device.deviceDriver.DestroyFence(fence, nil)
	}
	f.inFlight = nil
}

func (d *Device) waitForFence(fence core1_0.Fence) error {
	for {
		res, err := d.deviceDriver.WaitForFences(true, FenceTimeout, fence)
		if err != nil {
			return err
		}
		if res != core1_0.VKTimeout {
			return nil
		}
	}
}
