package pyramid

import (
	"fmt"
	"iter"
)

// Tile sizes used by the downsampling kernels.
const (
	// DepthTileSize is the source footprint of one group of the wide depth
	// kernel: 8x8 threads, each reducing a 2x2 block.
	DepthTileSize = 16

	// DepthBlockSize is the source footprint of one narrow depth thread.
	DepthBlockSize = 2

	// ColorTileSize is the destination footprint of one colour kernel group.
	ColorTileSize = 8

	// MaxPlanEntries bounds the number of dispatches per level.
	MaxPlanEntries = 8
)

// Pattern selects a kernel variant by which edges of its footprint fall
// outside the valid region.
//
// For the 2x2 depth kernels ('x' valid, 'o' outside):
//
//	Full       RightEdge  TopEdge    Corner
//	|x|x|      |x|o|      |o|o|      |o|o|
//	|x|x|      |x|o|      |x|x|      |x|o|
//
// For the colour kernels the same names select the axis the kernel clamps.
type Pattern uint8

const (
	PatternFull Pattern = iota
	PatternRightEdge
	PatternTopEdge
	PatternCorner

	patternCount
)

// String returns the pattern name.
func (p Pattern) String() string {
	switch p {
	case PatternFull:
		return "full"
	case PatternRightEdge:
		return "right"
	case PatternTopEdge:
		return "top"
	case PatternCorner:
		return "corner"
	default:
		return fmt.Sprintf("Pattern(%d)", uint8(p))
	}
}

// PlannedDispatch is one kernel launch over a rectangle.
type PlannedDispatch struct {
	Rect    Rect
	Pattern Pattern

	// Wide marks the 16-texel depth kernel. Always false in colour plans.
	Wide bool
}

// writes reports whether the dispatch initializes its destination texels
// rather than folding into texels written earlier in the level.
func (d PlannedDispatch) writes() bool {
	return d.Wide || d.Pattern == PatternFull
}

// DepthGroups returns the workgroup count for a depth dispatch.
func (d PlannedDispatch) DepthGroups() [3]uint32 {
	if d.Wide {
		return [3]uint32{d.Rect.Width / DepthTileSize, d.Rect.Height / DepthTileSize, 1}
	}
	return [3]uint32{max(d.Rect.Width>>1, 1), max(d.Rect.Height>>1, 1), 1}
}

// ColorGroups returns the workgroup count for a colour dispatch. The full
// kernel covers an aligned rectangle exactly; clamped variants round up.
func (d PlannedDispatch) ColorGroups() [3]uint32 {
	if d.Pattern == PatternFull {
		return [3]uint32{d.Rect.Width / ColorTileSize, d.Rect.Height / ColorTileSize, 1}
	}
	return [3]uint32{ceilDiv(d.Rect.Width, ColorTileSize), ceilDiv(d.Rect.Height, ColorTileSize), 1}
}

func ceilDiv(v, d uint32) uint32 {
	return (v + d - 1) / d
}

// String returns a short description used in logs and the plan tool.
func (d PlannedDispatch) String() string {
	if d.Wide {
		return "wide " + d.Rect.String()
	}
	return d.Pattern.String() + " " + d.Rect.String()
}

// DispatchPlan is the ordered list of dispatches for one pyramid level.
// It lives in a fixed inline array so planning a frame never allocates.
type DispatchPlan struct {
	entries  [MaxPlanEntries]PlannedDispatch
	n        int
	overflow bool
}

// Len returns the number of dispatches.
func (p *DispatchPlan) Len() int { return p.n }

// At returns dispatch i.
func (p *DispatchPlan) At(i int) PlannedDispatch { return p.entries[i] }

// All iterates over the dispatches in recording order.
func (p *DispatchPlan) All() iter.Seq2[int, PlannedDispatch] {
	return func(yield func(int, PlannedDispatch) bool) {
		for i := range p.n {
			if !yield(i, p.entries[i]) {
				return
			}
		}
	}
}

// Area returns the total number of texels covered by the plan.
func (p *DispatchPlan) Area() uint64 {
	var a uint64
	for i := range p.n {
		a += p.entries[i].Rect.Area()
	}
	return a
}

// Validate reports a plan that must not be recorded.
func (p *DispatchPlan) Validate() error {
	if p.overflow {
		return fmt.Errorf("%w: more than %d dispatches", ErrPlanOverflow, MaxPlanEntries)
	}
	for i := range p.n {
		if r := p.entries[i].Rect; r.Empty() {
			return fmt.Errorf("%w: dispatch %d %v", ErrDegenerateRect, i, r)
		}
	}
	return nil
}

// add appends a dispatch, skipping degenerate rectangles.
func (p *DispatchPlan) add(r Rect, pat Pattern, wide bool) {
	if r.Empty() {
		return
	}
	if p.n == len(p.entries) {
		p.overflow = true
		return
	}
	p.entries[p.n] = PlannedDispatch{Rect: r, Pattern: pat, Wide: wide}
	p.n++
}

// writersFirst moves dispatches that initialize destination texels ahead
// of the edge dispatches that fold into them, keeping relative order.
func (p *DispatchPlan) writersFirst() {
	var out [MaxPlanEntries]PlannedDispatch
	k := 0
	for i := range p.n {
		if p.entries[i].writes() {
			out[k] = p.entries[i]
			k++
		}
	}
	for i := range p.n {
		if !p.entries[i].writes() {
			out[k] = p.entries[i]
			k++
		}
	}
	p.entries = out
}

// PlanDepthLevel returns the dispatches that reduce the source rectangle
// src of one depth level. Rectangles are in source texels.
//
// The aligned 16x16 block goes to the wide kernel; the right column is
// split into 2x2 blocks plus an odd right-edge strip; the full-width top
// strip is split into 2x2 blocks plus odd top-edge, right-edge and corner
// remainders. Edge kernels fold the odd source texels into the last
// destination row or column, so each source texel lands in exactly one
// destination texel of size (w>>1, h>>1).
//
// src must be at least 2x2; smaller rectangles yield an empty plan.
func PlanDepthLevel(src Rect) DispatchPlan {
	var p DispatchPlan
	if src.Width < DepthBlockSize || src.Height < DepthBlockSize {
		return p
	}

	main, topRow, rightCol, topRight, ok := DecomposeQuad(src, DepthTileSize)
	if !ok {
		p.addBlocks(src)
		p.writersFirst()
		return p
	}

	p.add(main, PatternFull, true)
	if colMain, colEdge, ok := DecomposeCol(rightCol, DepthBlockSize); ok {
		p.add(colMain, PatternFull, false)
		p.add(colEdge, PatternRightEdge, false)
	} else {
		p.add(rightCol, PatternRightEdge, false)
	}

	top := Rect{X: topRow.X, Y: topRow.Y, Width: topRow.Width + topRight.Width, Height: topRow.Height}
	p.addBlocks(top)
	p.writersFirst()
	return p
}

// addBlocks covers r with 2x2 depth kernels. r is either the whole level
// or a strip touching the top or right edge, so any odd remainder lies on
// that edge.
func (p *DispatchPlan) addBlocks(r Rect) {
	if r.Empty() {
		return
	}
	if main, topRow, rightCol, corner, ok := DecomposeQuad(r, DepthBlockSize); ok {
		p.add(main, PatternFull, false)
		p.add(rightCol, PatternRightEdge, false)
		p.add(topRow, PatternTopEdge, false)
		p.add(corner, PatternCorner, false)
		return
	}

	switch {
	case r.Width >= DepthBlockSize:
		// one texel tall: the odd top row
		row, corner, _ := DecomposeCol(r, DepthBlockSize)
		p.add(row, PatternTopEdge, false)
		p.add(corner, PatternCorner, false)
	case r.Height >= DepthBlockSize:
		// one texel wide: the odd right column
		col, corner, _ := DecomposeRow(r, DepthBlockSize)
		p.add(col, PatternRightEdge, false)
		p.add(corner, PatternCorner, false)
	default:
		p.add(r, PatternCorner, false)
	}
}

// PlanColorLevel returns the dispatches that fill the destination
// rectangle dst of one colour level. Rectangles are in destination texels.
//
// The 8-aligned block uses the unclamped kernel; each remainder strip uses
// the variant that clamps its unaligned axis. A rectangle smaller than one
// tile is covered by a single fully clamped dispatch.
func PlanColorLevel(dst Rect) DispatchPlan {
	var p DispatchPlan
	if dst.Empty() {
		return p
	}

	main, topRow, rightCol, topRight, ok := DecomposeQuad(dst, ColorTileSize)
	if !ok {
		p.add(dst, PatternCorner, false)
		return p
	}
	p.add(main, PatternFull, false)
	p.add(rightCol, PatternRightEdge, false)
	p.add(topRow, PatternTopEdge, false)
	p.add(topRight, PatternCorner, false)
	return p
}
