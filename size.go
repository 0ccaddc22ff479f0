package pyramid

import (
	"fmt"
	"math/bits"
)

// Size is a two-dimensional extent in texels.
type Size struct {
	Width, Height int
}

// String returns "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect returns the size as a rectangle at the origin. Negative dimensions
// are treated as zero.
func (s Size) Rect() Rect {
	return NewRect(uint32(max(s.Width, 0)), uint32(max(s.Height, 0)))
}

// Viewport is the region of the source image that the pyramid is built
// from, in texels of the source.
type Viewport struct {
	Width, Height int
}

// Size returns the viewport dimensions as a Size.
func (v Viewport) Size() Size { return Size(v) }

// Validate returns ErrInvalidViewport when either dimension is non-positive.
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, v.Width, v.Height)
	}
	return nil
}

// NextPowerOfTwo returns the smallest power of two >= n. It returns 1 for n <= 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// PyramidLodCount returns the number of downsampling levels for a viewport:
// floor(log2(min(width, height))). A viewport whose smaller dimension is
// below 2 has no levels.
func PyramidLodCount(width, height int) int {
	m := min(width, height)
	if m < 1 {
		return 0
	}
	return bits.Len(uint(m)) - 1
}

// CalculatePyramidSize returns the dimensions of a pyramid chain able to
// hold a viewport of the given size: a square of the next power of two of
// the larger dimension. xrScale widens the chain for double-wide stereo
// rendering; values <= 0 are treated as 1.
func CalculatePyramidSize(screen Size, xrScale float32) Size {
	if xrScale <= 0 {
		xrScale = 1
	}
	side := NextPowerOfTwo(max(screen.Width, screen.Height))
	width := max(int(float32(side)*xrScale), 1)
	return Size{Width: width, Height: side}
}

// CalculatePyramidMipSize returns base shifted right by mip, clamped to at
// least one texel per dimension. Repeated application composes:
// CalculatePyramidMipSize(CalculatePyramidMipSize(s, a), b) equals
// CalculatePyramidMipSize(s, a+b).
func CalculatePyramidMipSize(base Size, mip int) Size {
	if mip < 0 {
		mip = 0
	}
	return Size{
		Width:  max(shift(base.Width, mip), 1),
		Height: max(shift(base.Height, mip), 1),
	}
}

func shift(v, n int) int {
	if n >= bits.UintSize {
		return 0
	}
	return v >> n
}

// MipCount returns the number of mip levels of a full chain for s.
func MipCount(s Size) int {
	m := max(s.Width, s.Height)
	if m < 1 {
		return 1
	}
	return bits.Len(uint(m))
}
