package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/minimal_render/window"
)

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	bgraSRGB := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	rgbaSRGB := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	tests := []struct {
		name      string
		available []khr_surface.SurfaceFormat
		want      core1_0.Format
	}{
		{"prefers bgra srgb", []khr_surface.SurfaceFormat{unorm, rgbaSRGB, bgraSRGB}, core1_0.FormatB8G8R8A8SRGB},
		{"falls back to rgba srgb", []khr_surface.SurfaceFormat{unorm, rgbaSRGB}, core1_0.FormatR8G8B8A8SRGB},
		{"first when no srgb", []khr_surface.SurfaceFormat{unorm}, core1_0.FormatB8G8R8A8UnsignedNormalized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChooseSurfaceFormat(tt.available)
			if err != nil {
				t.Fatalf("ChooseSurfaceFormat: %v", err)
			}
			if got.Format != tt.want {
				t.Errorf("format = %v, want %v", got.Format, tt.want)
			}
		})
	}

	if _, err := ChooseSurfaceFormat(nil); !errors.Is(err, ErrNoSurfaceFormats) {
		t.Errorf("empty list: err = %v", err)
	}
}

func TestIsSRGB(t *testing.T) {
	tests := []struct {
		name   string
		format core1_0.Format
		want   bool
	}{
		{"B8G8R8A8 sRGB", core1_0.FormatB8G8R8A8SRGB, true},
		{"R8G8B8A8 sRGB", core1_0.FormatR8G8B8A8SRGB, true},
		{"A8B8G8R8 sRGB pack32", core1_0.Format(57), true},
		{"B8G8R8 sRGB", core1_0.Format(36), true},
		{"B8G8R8A8 UNORM", core1_0.FormatB8G8R8A8UnsignedNormalized, false},
		{"A8B8G8R8 UNORM pack32", core1_0.Format(51), false},
		{"undefined", core1_0.Format(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSRGB(tt.format); got != tt.want {
				t.Errorf("IsSRGB(%d) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestFallbackSurfaceFormatKeepsSRGBEncoding(t *testing.T) {
	packed := khr_surface.SurfaceFormat{Format: core1_0.Format(57), ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	got, err := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{packed})
	if err != nil {
		t.Fatalf("ChooseSurfaceFormat: %v", err)
	}
	if got != packed {
		t.Fatalf("got %v, want the only reported format", got)
	}
	if !IsSRGB(got.Format) {
		t.Errorf("fallback sRGB format treated as UNORM; the clear color would be encoded twice")
	}
}

func TestChoosePresentMode(t *testing.T) {
	all := []khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
		khr_surface.PresentModeFIFORelaxed,
		khr_surface.PresentModeMailbox,
		khr_surface.PresentModeImmediate,
	}
	fifoOnly := []khr_surface.PresentMode{khr_surface.PresentModeFIFO}
	mailbox := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}

	tests := []struct {
		name      string
		requested window.PresentMode
		available []khr_surface.PresentMode
		want      khr_surface.PresentMode
	}{
		{"no vsync prefers immediate", window.PresentModeAutoNoVsync, all, khr_surface.PresentModeImmediate},
		{"no vsync then mailbox", window.PresentModeAutoNoVsync, mailbox, khr_surface.PresentModeMailbox},
		{"no vsync then fifo", window.PresentModeAutoNoVsync, fifoOnly, khr_surface.PresentModeFIFO},
		{"vsync prefers relaxed", window.PresentModeAutoVsync, all, khr_surface.PresentModeFIFORelaxed},
		{"vsync then fifo", window.PresentModeAutoVsync, mailbox, khr_surface.PresentModeFIFO},
		{"explicit mailbox", window.PresentModeMailbox, mailbox, khr_surface.PresentModeMailbox},
		{"explicit unsupported", window.PresentModeImmediate, mailbox, khr_surface.PresentModeFIFO},
		{"explicit fifo", window.PresentModeFifo, all, khr_surface.PresentModeFIFO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChoosePresentMode(tt.requested, tt.available); got != tt.want {
				t.Errorf("ChoosePresentMode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChooseExtent(t *testing.T) {
	defined := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600},
	}
	if got := ChooseExtent(defined, 1, 1); got.Width != 800 || got.Height != 600 {
		t.Errorf("defined extent: got %v", got)
	}

	undefined := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 2048},
	}
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1280, 720, 1280, 720},
		{10, 5000, 64, 2048},
		{9000, 32, 4096, 64},
	}
	for _, tt := range tests {
		got := ChooseExtent(undefined, tt.w, tt.h)
		if got.Width != tt.wantW || got.Height != tt.wantH {
			t.Errorf("ChooseExtent(%d, %d) = %v, want %dx%d", tt.w, tt.h, got, tt.wantW, tt.wantH)
		}
	}
}

func TestImageCount(t *testing.T) {
	tests := []struct {
		min, max, want int
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
	}
	for _, tt := range tests {
		caps := &khr_surface.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := ImageCount(caps); got != tt.want {
			t.Errorf("ImageCount(min=%d, max=%d) = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}
