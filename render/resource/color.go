package resource

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

func LinearRGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// ToSRGB applies the sRGB transfer function to the color channels. Alpha is
// stored linearly in every format, so it is only clamped.
func (c Color) ToSRGB() Color {
	return Color{
		R: linearToSRGB(c.R),
		G: linearToSRGB(c.G),
		B: linearToSRGB(c.B),
		A: mgl32.Clamp(c.A, 0, 1),
	}
}

func linearToSRGB(v float32) float32 {
	v = mgl32.Clamp(v, 0, 1)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

// ForTarget returns the values to write into a target. sRGB formats encode on
// store, so they take linear values; UNORM formats need the encoding done here.
func (c Color) ForTarget(srgbFormat bool) mgl32.Vec4 {
	if srgbFormat {
		return c.Vec4()
	}
	return c.ToSRGB().Vec4()
}
