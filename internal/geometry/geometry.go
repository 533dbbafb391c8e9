// Package geometry implements the normalized page coordinate model shared by
// every markup kind. All persisted geometry is a fraction of the page width or
// height; pixels only exist transiently while laying out a frame.
package geometry

import "math"

const (
	// MaxPosition is the largest x or y a dragged box may take, so some part
	// of it always stays on the page.
	MaxPosition = 0.95
	// MinSize is the smallest width or height a resized box may take.
	MinSize = 0.05

	epsilon = 1e-9
)

// Point is a normalized position on a page.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a normalized rectangle on a page.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Container is the on-screen pixel rectangle a page is currently drawn in.
type Container struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// PixelPoint is a position in container-relative pixels.
type PixelPoint struct {
	X float64
	Y float64
}

// PixelRect is a rectangle in container-relative pixels.
type PixelRect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// usable returns c, or a unit container when c has no extent yet (the page
// has not been laid out).
func (c Container) usable() Container {
	if c.Width <= 0 || c.Height <= 0 {
		return Container{Width: 1, Height: 1}
	}
	return c
}

// ToNormalized converts a client pixel position to page fractions.
func ToNormalized(pixelX, pixelY float64, c Container) Point {
	c = c.usable()
	return Point{
		X: (pixelX - c.Left) / c.Width,
		Y: (pixelY - c.Top) / c.Height,
	}
}

// ToPixels converts a normalized point to container-relative pixels.
func ToPixels(p Point, c Container) PixelPoint {
	c = c.usable()
	return PixelPoint{X: p.X * c.Width, Y: p.Y * c.Height}
}

// ToPixels converts r to container-relative pixels.
func (r Rect) ToPixels(c Container) PixelRect {
	c = c.usable()
	return PixelRect{
		Left:   r.X * c.Width,
		Top:    r.Y * c.Height,
		Width:  r.W * c.Width,
		Height: r.H * c.Height,
	}
}

// Inside reports whether p lies on the page.
func (p Point) Inside() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// Valid reports whether r lies within the unit square with non-negative extent.
func (r Rect) Valid() bool {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.X >= -epsilon && r.Y >= -epsilon &&
		r.W >= -epsilon && r.H >= -epsilon &&
		r.X+r.W <= 1+epsilon && r.Y+r.H <= 1+epsilon
}

// ClampPosition limits a box coordinate to [0, MaxPosition].
func ClampPosition(v float64) float64 {
	return clamp(v, 0, MaxPosition)
}

// ClampSize limits an extent to [MinSize, 1-pos], measured from the box's
// current position so the box never crosses the right or bottom page edge.
// The page edge wins over MinSize for boxes placed past MaxPosition.
func ClampSize(size, pos float64) float64 {
	room := math.Max(1-pos, 0)
	return math.Min(clamp(size, MinSize, 1-pos), room)
}

// Move translates orig by the pointer delta between start and current.
func Move(orig Rect, start, current Point) Rect {
	x := ClampPosition(orig.X + (current.X - start.X))
	y := ClampPosition(orig.Y + (current.Y - start.Y))
	return Rect{
		X: x,
		Y: y,
		W: math.Min(orig.W, 1-x),
		H: math.Min(orig.H, 1-y),
	}
}

// Resize grows or shrinks orig by the pointer delta between start and current,
// keeping its position.
func Resize(orig Rect, start, current Point) Rect {
	return Rect{
		X: orig.X,
		Y: orig.Y,
		W: ClampSize(orig.W+(current.X-start.X), orig.X),
		H: ClampSize(orig.H+(current.Y-start.Y), orig.Y),
	}
}

// BoundingBox returns the normalized box spanned by a creation gesture.
func BoundingBox(a, b Point) Rect {
	a, b = clampPoint(a), clampPoint(b)
	x := ClampPosition(math.Min(a.X, b.X))
	y := ClampPosition(math.Min(a.Y, b.Y))
	return Rect{
		X: x,
		Y: y,
		W: math.Min(math.Abs(b.X-a.X), 1-x),
		H: math.Min(math.Abs(b.Y-a.Y), 1-y),
	}
}

func clampPoint(p Point) Point {
	return Point{X: clamp(p.X, 0, 1), Y: clamp(p.Y, 0, 1)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
