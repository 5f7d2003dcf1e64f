package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render/resource"
	"github.com/vkngwrapper/minimal_render/window"
)

// Surface is a window's swapchain and the sync objects needed to present it.
type Surface struct {
	device      *Device
	window      *sdl.Window
	surface     khr_surface.Surface
	presentMode window.PresentMode

	swapchain      khr_swapchain.Swapchain
	format         khr_surface.SurfaceFormat
	extent         core1_0.Extent2D
	views          []resource.TextureView
	imageAvailable []core1_0.Semaphore
	renderFinished []core1_0.Semaphore
	imagesInFlight []core1_0.Fence

	outdated bool
}

// NewSurface takes ownership of surface, which must have been created for
// win on this device.
func NewSurface(device *Device, win *sdl.Window, surface khr_surface.Surface, mode window.PresentMode) (*Surface, error) {
	s := &Surface{
		device:      device,
		window:      win,
		surface:     surface,
		presentMode: mode,
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		semaphore, _, err := device.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create semaphore")
		}
		s.imageAvailable = append(s.imageAvailable, semaphore)
	}

	if err := s.createSwapchain(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Surface) Format() core1_0.Format {
	return s.format.Format
}

func (s *Surface) Extent() core1_0.Extent2D {
	return s.extent
}

// SetPresentMode schedules a swapchain rebuild when mode changes.
func (s *Surface) SetPresentMode(mode window.PresentMode) {
	if mode != s.presentMode {
		s.presentMode = mode
		s.outdated = true
	}
}

// MarkOutdated schedules a swapchain rebuild before the next acquire.
func (s *Surface) MarkOutdated() {
	s.outdated = true
}

func (s *Surface) drawable() bool {
	if (s.window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return false
	}
	w, h := s.window.VulkanGetDrawableSize()
	return w > 0 && h > 0
}

func (s *Surface) createSwapchain() error {
	driver := s.device.deviceDriver
	surfaceExtension := s.device.surfaceExtension
	physicalDevice := s.device.physicalDevice

	capabilities, _, err := surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(s.surface, physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query surface capabilities")
	}
	formats, _, err := surfaceExtension.GetPhysicalDeviceSurfaceFormats(s.surface, physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query surface formats")
	}
	presentModes, _, err := surfaceExtension.GetPhysicalDeviceSurfacePresentModes(s.surface, physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query present modes")
	}

	surfaceFormat, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return err
	}
	presentMode := ChoosePresentMode(s.presentMode, presentModes)
	drawableWidth, drawableHeight := s.window.VulkanGetDrawableSize()
	extent := ChooseExtent(capabilities, int(drawableWidth), int(drawableHeight))

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if s.device.graphicsFamily != s.device.presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, s.device.graphicsFamily, s.device.presentFamily)
	}

	swapchain, _, err := s.device.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: s.surface,

		MinImageCount:    ImageCount(capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.swapchain = swapchain
	s.format = surfaceFormat
	s.extent = extent

	images, _, err := s.device.swapchainExtension.GetSwapchainImages(swapchain)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	srgb := IsSRGB(surfaceFormat.Format)
	for _, image := range images {
		view, _, err := driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   surfaceFormat.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}
		s.views = append(s.views, resource.TextureView{
			Image:  image,
			View:   view,
			Format: surfaceFormat.Format,
			Width:  extent.Width,
			Height: extent.Height,
			SRGB:   srgb,
		})

		semaphore, _, err := driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "create semaphore")
		}
		s.renderFinished = append(s.renderFinished, semaphore)
		s.imagesInFlight = append(s.imagesInFlight, core1_0.Fence{})
	}

	app.Logger().Debug("swapchain created",
		"width", extent.Width,
		"height", extent.Height,
		"images", len(images),
		"format", surfaceFormat.Format,
		"present_mode", presentMode,
	)
	s.outdated = false
	return nil
}

func (s *Surface) cleanupSwapchain() {
	driver := s.device.deviceDriver

	if s.device.passes != nil {
		s.device.passes.forgetViews(s.views)
	}
	for _, view := range s.views {
		driver.DestroyImageView(view.View, nil)
	}
	s.views = nil

	for _, semaphore := range s.renderFinished {
		driver.DestroySemaphore(semaphore, nil)
	}
	s.renderFinished = nil
	s.imagesInFlight = nil

	if s.swapchain.Initialized() {
		s.device.swapchainExtension.DestroySwapchain(s.swapchain, nil)
		s.swapchain = khr_swapchain.Swapchain{}
	}
}

func (s *Surface) recreate() error {
	if err := s.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	s.cleanupSwapchain()
	return s.createSwapchain()
}

// AcquiredImage is a swapchain image handed out for the current frame.
type AcquiredImage struct {
	surface *Surface
	index   int
	slot    int
	View    *resource.TextureView
}

// acquire returns nil without error when there is nothing to draw to this
// frame: the window is minimized or zero-sized, or the swapchain was out of
// date and has just been rebuilt.
func (s *Surface) acquire(slot int, fence core1_0.Fence) (*AcquiredImage, error) {
	if !s.drawable() {
		return nil, nil
	}

	if s.outdated {
		if err := s.recreate(); err != nil {
			return nil, err
		}
	}

	imageIndex, res, err := s.device.swapchainExtension.AcquireNextImage(s.swapchain, common.NoTimeout, &s.imageAvailable[slot], nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		app.Logger().Debug("swapchain out of date on acquire")
		return nil, s.recreate()
	} else if err != nil {
		return nil, errors.Wrap(err, "acquire swapchain image")
	}
	if res == khr_swapchain.VKSuboptimal {
		s.outdated = true
	}

	if s.imagesInFlight[imageIndex].Initialized() {
		if err := s.device.waitForFence(s.imagesInFlight[imageIndex]); err != nil {
			return nil, errors.Wrap(err, "wait for image fence")
		}
	}
	s.imagesInFlight[imageIndex] = fence

	return &AcquiredImage{
		surface: s,
		index:   imageIndex,
		slot:    slot,
		View:    &s.views[imageIndex],
	}, nil
}

func (s *Surface) present(image *AcquiredImage) error {
	res, err := s.device.swapchainExtension.QueuePresent(s.device.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{s.renderFinished[image.index]},
		Swapchains:     []khr_swapchain.Swapchain{s.swapchain},
		ImageIndices:   []int{image.index},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		s.outdated = true
		return nil
	} else if err != nil {
		return errors.Wrap(err, "present")
	}
	return nil
}

// Destroy releases the swapchain and the surface. The GPU must be idle.
func (s *Surface) Destroy() {
	s.cleanupSwapchain()

	for _, semaphore := range s.imageAvailable {
		s.device.deviceDriver.DestroySemaphore(semaphore, nil)
	}
	s.imageAvailable = nil

	if s.surface.Initialized() {
		s.device.surfaceExtension.DestroySurface(s.surface, nil)
		s.surface = khr_surface.Surface{}
	}
}
