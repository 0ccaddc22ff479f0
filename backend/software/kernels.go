package software

import (
	"github.com/gogpu/pyramid/gpucore"
)

// invocation is the state shared by the threads of one dispatch.
type invocation struct {
	src, dst *Image
	p        gpucore.KernelParams
}

func (inv *invocation) offset() (int, int) {
	return int(inv.p.RectOffset[0]), int(inv.p.RectOffset[1])
}

func (inv *invocation) rectSize() (int, int) {
	return int(inv.p.RectSize[0]), int(inv.p.RectSize[1])
}

// srcExtent is the valid region of the source, falling back to the image size.
func (inv *invocation) srcExtent() (int, int) {
	w, h := int(inv.p.SrcSize[0]), int(inv.p.SrcSize[1])
	if w <= 0 || w > inv.src.Width {
		w = inv.src.Width
	}
	if h <= 0 || h > inv.src.Height {
		h = inv.src.Height
	}
	return w, h
}

// threadFunc runs one thread with its global invocation id.
type threadFunc func(inv *invocation, x, y int)

// kernel is a compute entry point.
type kernel struct {
	name      string
	workgroup [2]int
	thread    threadFunc
}

type reduceFunc func(a, b float32) float32

// reduceBlock reduces the valid texels of the w x h block at (sx, sy).
func (inv *invocation) reduceBlock(sx, sy, w, h int, reduce reduceFunc) (float32, bool) {
	sw, sh := inv.srcExtent()
	var acc float32
	found := false
	for dy := range h {
		for dx := range w {
			x, y := sx+dx, sy+dy
			if x < 0 || y < 0 || x >= sw || y >= sh {
				continue
			}
			v := inv.src.Texel(x, y)[0]
			if !found {
				acc, found = v, true
				continue
			}
			acc = reduce(acc, v)
		}
	}
	return acc, found
}

// fold combines v into the destination texel written earlier in the level.
func (inv *invocation) fold(x, y int, v float32, reduce reduceFunc) {
	if !inv.dst.In(x, y) {
		return
	}
	cur := inv.dst.Texel(x, y)[0]
	inv.dst.SetTexel(x, y, [4]float32{reduce(cur, v), 0, 0, 1})
}

// depthKernels returns the depth pyramid entry points for one reduction.
func depthKernels(reduce reduceFunc) []kernel {
	full := func(inv *invocation, x, y int) {
		ox, oy := inv.offset()
		rw, rh := inv.rectSize()
		if 2*x >= rw || 2*y >= rh {
			return
		}
		v, ok := inv.reduceBlock(ox+2*x, oy+2*y, 2, 2, reduce)
		if !ok {
			return
		}
		inv.dst.SetTexel(ox/2+x, oy/2+y, [4]float32{v, 0, 0, 1})
	}
	rightEdge := func(inv *invocation, _, y int) {
		ox, oy := inv.offset()
		_, rh := inv.rectSize()
		if 2*y >= rh || ox < 1 {
			return
		}
		if v, ok := inv.reduceBlock(ox, oy+2*y, 1, 2, reduce); ok {
			inv.fold((ox-1)/2, oy/2+y, v, reduce)
		}
	}
	topEdge := func(inv *invocation, x, _ int) {
		ox, oy := inv.offset()
		rw, _ := inv.rectSize()
		if 2*x >= rw || oy < 1 {
			return
		}
		if v, ok := inv.reduceBlock(ox+2*x, oy, 2, 1, reduce); ok {
			inv.fold(ox/2+x, (oy-1)/2, v, reduce)
		}
	}
	corner := func(inv *invocation, x, y int) {
		ox, oy := inv.offset()
		if x != 0 || y != 0 || ox < 1 || oy < 1 {
			return
		}
		if v, ok := inv.reduceBlock(ox, oy, 1, 1, reduce); ok {
			inv.fold((ox-1)/2, (oy-1)/2, v, reduce)
		}
	}

	return []kernel{
		{gpucore.KernelDepthDownSample8, [2]int{8, 8}, full},
		{gpucore.KernelDepthDownSample20, [2]int{1, 1}, full},
		{gpucore.KernelDepthDownSample21, [2]int{1, 1}, rightEdge},
		{gpucore.KernelDepthDownSample22, [2]int{1, 1}, topEdge},
		{gpucore.KernelDepthDownSample23, [2]int{1, 1}, corner},
	}
}

// colorKernel returns a 2x2 box filter thread. Clamped axes skip threads
// outside the rectangle and clamp source taps to the valid region.
func colorKernel(clampX, clampY bool) threadFunc {
	return func(inv *invocation, x, y int) {
		ox, oy := inv.offset()
		rw, rh := inv.rectSize()
		if (clampX && x >= rw) || (clampY && y >= rh) {
			return
		}
		sw, sh := inv.srcExtent()
		px, py := ox+x, oy+y

		var sum [4]float32
		for dy := range 2 {
			for dx := range 2 {
				sx, sy := 2*px+dx, 2*py+dy
				if clampX {
					sx = min(sx, sw-1)
				}
				if clampY {
					sy = min(sy, sh-1)
				}
				t := inv.src.Texel(sx, sy)
				for c := range sum {
					sum[c] += t[c]
				}
			}
		}
		for c := range sum {
			sum[c] *= 0.25
		}
		inv.dst.SetTexel(px, py, sum)
	}
}

func colorKernels() []kernel {
	return []kernel{
		{gpucore.KernelColorDownsample, [2]int{8, 8}, colorKernel(false, false)},
		{gpucore.KernelColorDownsampleClampRight, [2]int{8, 8}, colorKernel(true, false)},
		{gpucore.KernelColorDownsampleClampTop, [2]int{8, 8}, colorKernel(false, true)},
		{gpucore.KernelColorDownsampleClampCorner, [2]int{8, 8}, colorKernel(true, true)},
	}
}

// paddingKernels copy the last valid texels one step outward. They read
// and write the result image.
func paddingKernels() []kernel {
	top := func(inv *invocation, x, _ int) {
		_, oy := inv.offset()
		rw, _ := inv.rectSize()
		if x >= rw || oy < 1 {
			return
		}
		inv.dst.SetTexel(x, oy, inv.dst.Texel(x, oy-1))
	}
	right := func(inv *invocation, _, y int) {
		ox, _ := inv.offset()
		_, rh := inv.rectSize()
		if y >= rh || ox < 1 {
			return
		}
		inv.dst.SetTexel(ox, y, inv.dst.Texel(ox-1, y))
	}
	topRight := func(inv *invocation, x, y int) {
		ox, oy := inv.offset()
		if x != 0 || y != 0 || ox < 1 || oy < 1 {
			return
		}
		inv.dst.SetTexel(ox, oy, inv.dst.Texel(ox-1, oy-1))
	}
	return []kernel{
		{gpucore.KernelPadTop, [2]int{8, 1}, top},
		{gpucore.KernelPadRight, [2]int{1, 8}, right},
		{gpucore.KernelPadTopRight, [2]int{1, 1}, topRight},
	}
}

func copyKernels() []kernel {
	copyX := func(inv *invocation, x, y int) {
		rw, rh := inv.rectSize()
		if x >= rw || y >= rh || !inv.src.In(x, y) {
			return
		}
		inv.dst.SetTexel(x, y, [4]float32{inv.src.Texel(x, y)[0], 0, 0, 1})
	}
	return []kernel{
		{gpucore.KernelSampleCopy41X, [2]int{8, 8}, copyX},
	}
}

func maxf(a, b float32) float32 { return max(a, b) }
func minf(a, b float32) float32 { return min(a, b) }

// builtinShaders maps shader names to their entry points.
func builtinShaders() map[string][]kernel {
	return map[string][]kernel{
		gpucore.ShaderDepthPyramid:    depthKernels(maxf),
		gpucore.ShaderDepthPyramidMin: depthKernels(minf),
		gpucore.ShaderColorPyramid:    colorKernels(),
		gpucore.ShaderTexturePadding:  paddingKernels(),
		gpucore.ShaderGPUCopy:         copyKernels(),
	}
}
