package pyramid

import "fmt"

// Tile layout splits a rectangle into a block aligned to a tile size plus
// the unaligned remainder strips. Compute kernels that assume whole tiles
// run on the aligned block; narrower kernels handle the remainder.
//
// All three decompositions return ok=false and zero rectangles when the
// source is smaller than one tile along a split dimension. Remainder
// outputs may be degenerate (zero width or height) when the source is
// already aligned; callers skip those.

func checkTileSize(tileSize uint32) {
	if tileSize == 0 {
		panic(fmt.Errorf("%w: tile size must be positive", ErrInvalidTileSize))
	}
}

// DecomposeQuad splits src into four disjoint parts:
//
//	+---------+---------+
//	| topRow  |topRight |
//	+---------+---------+
//	|  main   |rightCol |
//	+---------+---------+
//
// main has dimensions that are multiples of tileSize and sits at src's
// origin. The union of the four outputs is exactly src.
//
// DecomposeQuad panics if tileSize is zero.
func DecomposeQuad(src Rect, tileSize uint32) (main, topRow, rightCol, topRight Rect, ok bool) {
	checkTileSize(tileSize)
	if src.Width < tileSize || src.Height < tileSize {
		return ZeroRect, ZeroRect, ZeroRect, ZeroRect, false
	}

	mainW := src.Width - src.Width%tileSize
	mainH := src.Height - src.Height%tileSize
	restW := src.Width - mainW
	restH := src.Height - mainH

	main = Rect{X: src.X, Y: src.Y, Width: mainW, Height: mainH}
	topRow = Rect{X: src.X, Y: src.Y + mainH, Width: mainW, Height: restH}
	rightCol = Rect{X: src.X + mainW, Y: src.Y, Width: restW, Height: mainH}
	topRight = Rect{X: src.X + mainW, Y: src.Y + mainH, Width: restW, Height: restH}
	return main, topRow, rightCol, topRight, true
}

// DecomposeRow splits src along its height: main keeps the full width and
// a tile-aligned height, other is the strip above it. Only the height is
// checked against tileSize.
//
// DecomposeRow panics if tileSize is zero.
func DecomposeRow(src Rect, tileSize uint32) (main, other Rect, ok bool) {
	checkTileSize(tileSize)
	if src.Height < tileSize {
		return ZeroRect, ZeroRect, false
	}

	mainH := src.Height - src.Height%tileSize
	main = Rect{X: src.X, Y: src.Y, Width: src.Width, Height: mainH}
	other = Rect{X: src.X, Y: src.Y + mainH, Width: src.Width, Height: src.Height - mainH}
	return main, other, true
}

// DecomposeCol splits src along its width: main keeps the full height and
// a tile-aligned width, other is the strip to its right. Only the width is
// checked against tileSize.
//
// DecomposeCol panics if tileSize is zero.
func DecomposeCol(src Rect, tileSize uint32) (main, other Rect, ok bool) {
	checkTileSize(tileSize)
	if src.Width < tileSize {
		return ZeroRect, ZeroRect, false
	}

	mainW := src.Width - src.Width%tileSize
	main = Rect{X: src.X, Y: src.Y, Width: mainW, Height: src.Height}
	other = Rect{X: src.X + mainW, Y: src.Y, Width: src.Width - mainW, Height: src.Height}
	return main, other, true
}
