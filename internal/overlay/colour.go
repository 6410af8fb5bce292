package overlay

import (
	"image/color"
	"math"
)

// LerpRGBA linearly interpolates each channel from a (t=0) to b (t=1).
// t is clamped to [0, 1].
func LerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
