package cv

import (
	"image"
	"image/draw"
)

// Region is a rectangle expressed as fractions of a frame's width and height.
// All four ratios are expected in [0,1].
type Region struct {
	Left, Top, Right, Bottom float64
}

// FullFrame covers the whole frame
var FullFrame = Region{Left: 0, Top: 0, Right: 1, Bottom: 1}

// DefaultProbeRegion is the lower band of a reader window, away from the
// page header where clocks and progress indicators tend to animate.
var DefaultProbeRegion = Region{Left: 0.2, Top: 0.75, Right: 0.8, Bottom: 0.98}

// NewRegion creates a new region
func NewRegion(left, top, right, bottom float64) Region {
	return Region{Left: left, Top: top, Right: right, Bottom: bottom}
}

// IsZero reports whether no region was set
func (r Region) IsZero() bool {
	return r == Region{}
}

// Rect resolves the region against the given bounds. The second return value
// is false when the region collapses to zero area, in which case the full
// bounds are returned.
func (r Region) Rect(bounds image.Rectangle) (image.Rectangle, bool) {
	if r.IsZero() {
		return bounds, false
	}

	w, h := bounds.Dx(), bounds.Dy()
	rect := image.Rect(
		bounds.Min.X+int(float64(w)*clamp01(r.Left)),
		bounds.Min.Y+int(float64(h)*clamp01(r.Top)),
		bounds.Min.X+int(float64(w)*clamp01(r.Right)),
		bounds.Min.Y+int(float64(h)*clamp01(r.Bottom)),
	)

	// image.Rect canonicalises swapped corners, so compare the raw ratios too
	if r.Right <= r.Left || r.Bottom <= r.Top || rect.Empty() {
		return bounds, false
	}
	return rect, true
}

// Crop copies the region of img into a new RGBA frame. A collapsed region
// yields a copy of the full frame.
func Crop(img image.Image, region Region) *image.RGBA {
	rect, _ := region.Rect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
