package pyramid

import "fmt"

// Rect is an axis-aligned rectangle of texels.
//
// Coordinates follow the texture convention used throughout the package:
// X grows to the right and Y grows "up", so the row with the largest Y is
// the top row. A Rect with zero Width or Height is degenerate and covers
// no texels.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// ZeroRect is the all-zero rectangle returned by failed decompositions.
var ZeroRect = Rect{}

// NewRect returns a rectangle anchored at the origin.
func NewRect(width, height uint32) Rect {
	return Rect{Width: width, Height: height}
}

// Empty reports whether r covers no texels.
func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Area returns the number of texels covered by r.
func (r Rect) Area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

// Right returns the exclusive right edge.
func (r Rect) Right() uint32 { return r.X + r.Width }

// Top returns the exclusive top edge.
func (r Rect) Top() uint32 { return r.Y + r.Height }

// Contains reports whether texel (x, y) lies inside r.
func (r Rect) Contains(x, y uint32) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Top()
}

// Intersect returns the overlap of r and o, or ZeroRect when they are disjoint.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Top(), o.Top())
	if x1 <= x0 || y1 <= y0 {
		return ZeroRect
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Overlaps reports whether r and o share at least one texel.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// String returns a compact representation such as "(16,0 7x16)".
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
