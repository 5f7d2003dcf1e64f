package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/window"
)

var ErrNoSurfaceFormats = errors.New("surface reports no formats")

var preferredFormats = []core1_0.Format{
	core1_0.FormatB8G8R8A8SRGB,
	core1_0.FormatR8G8B8A8SRGB,
}

// srgbFormats holds every uncompressed 8-bit-per-channel sRGB format, keyed by
// its VkFormat value.
var srgbFormats = map[core1_0.Format]bool{
	core1_0.Format(15): true, // VK_FORMAT_R8_SRGB
	core1_0.Format(22): true, // VK_FORMAT_R8G8_SRGB
	core1_0.Format(29): true, // VK_FORMAT_R8G8B8_SRGB
	core1_0.Format(36): true, // VK_FORMAT_B8G8R8_SRGB
	core1_0.Format(43): true, // VK_FORMAT_R8G8B8A8_SRGB
	core1_0.Format(50): true, // VK_FORMAT_B8G8R8A8_SRGB
	core1_0.Format(57): true, // VK_FORMAT_A8B8G8R8_SRGB_PACK32
}

// IsSRGB reports whether stores to format are sRGB-encoded by the hardware.
func IsSRGB(format core1_0.Format) bool {
	return srgbFormats[format]
}

// ChooseSurfaceFormat prefers an 8-bit sRGB format in the sRGB-nonlinear color
// space and otherwise takes the first format the surface reports.
func ChooseSurfaceFormat(available []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(available) == 0 {
		return khr_surface.SurfaceFormat{}, ErrNoSurfaceFormats
	}
	for _, preferred := range preferredFormats {
		for _, format := range available {
			if format.Format == preferred && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
				return format, nil
			}
		}
	}
	return available[0], nil
}

func hasPresentMode(available []khr_surface.PresentMode, mode khr_surface.PresentMode) bool {
	for _, m := range available {
		if m == mode {
			return true
		}
	}
	return false
}

// ChoosePresentMode maps a window's requested mode onto what the surface
// supports. Fifo is always available, so every path ends there.
func ChoosePresentMode(requested window.PresentMode, available []khr_surface.PresentMode) khr_surface.PresentMode {
	var candidates []khr_surface.PresentMode
	switch requested {
	case window.PresentModeAutoVsync:
		candidates = []khr_surface.PresentMode{khr_surface.PresentModeFIFORelaxed}
	case window.PresentModeAutoNoVsync:
		candidates = []khr_surface.PresentMode{khr_surface.PresentModeImmediate, khr_surface.PresentModeMailbox}
	case window.PresentModeImmediate:
		candidates = []khr_surface.PresentMode{khr_surface.PresentModeImmediate}
	case window.PresentModeMailbox:
		candidates = []khr_surface.PresentMode{khr_surface.PresentModeMailbox}
	case window.PresentModeFifoRelaxed:
		candidates = []khr_surface.PresentMode{khr_surface.PresentModeFIFORelaxed}
	case window.PresentModeFifo:
		return khr_surface.PresentModeFIFO
	}

	for _, mode := range candidates {
		if hasPresentMode(available, mode) {
			return mode
		}
	}

	if requested != window.PresentModeAutoVsync && requested != window.PresentModeAutoNoVsync {
		app.Logger().Warn("present mode not supported, falling back to Fifo", "requested", requested)
	}
	return khr_surface.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent when it defines one and
// otherwise clamps the drawable size to the surface limits.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	width := clamp(drawableWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	height := clamp(drawableHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	return core1_0.Extent2D{Width: width, Height: height}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ImageCount asks for one more image than the minimum so acquire rarely waits
// on the driver. A MaxImageCount of 0 means no limit.
func ImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}
