package pyramid

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// TexturePadding replicates the last valid row and column of a mip level
// into the texels just outside it, so that bilinear sampling at the edge of
// the valid region never reads uninitialized memory.
type TexturePadding struct {
	top      gpucore.KernelID
	right    gpucore.KernelID
	topRight gpucore.KernelID
}

// NewTexturePadding resolves the padding kernels.
func NewTexturePadding(dev gpucore.Device) (*TexturePadding, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	var p TexturePadding
	kernels := []struct {
		dst   *gpucore.KernelID
		entry string
	}{
		{&p.top, gpucore.KernelPadTop},
		{&p.right, gpucore.KernelPadRight},
		{&p.topRight, gpucore.KernelPadTopRight},
	}
	for _, k := range kernels {
		id, err := resolveKernel(dev, gpucore.ShaderTexturePadding, k.entry)
		if err != nil {
			return nil, err
		}
		*k.dst = id
	}
	return &p, nil
}

// PadTopRow copies row y-1 into row y for columns [0, width).
func (p *TexturePadding) PadTopRow(enc gpucore.CommandEncoder, tex gpucore.TextureBinding, width, y int) error {
	if width <= 0 || y <= 0 {
		return fmt.Errorf("%w: pad top row width=%d y=%d", ErrDegenerateRect, width, y)
	}
	return enc.Dispatch(&gpucore.DispatchDesc{
		Label:  "PadTopRow",
		Kernel: p.top,
		Source: tex,
		Result: tex,
		Params: gpucore.KernelParams{
			RectOffset: [2]int32{0, int32(y)},
			RectSize:   [2]uint32{uint32(width), 1},
		},
		Groups: [3]uint32{ceilDiv(uint32(width), ColorTileSize), 1, 1},
	})
}

// PadRightCol copies column x-1 into column x for rows [0, height).
func (p *TexturePadding) PadRightCol(enc gpucore.CommandEncoder, tex gpucore.TextureBinding, x, height int) error {
	if height <= 0 || x <= 0 {
		return fmt.Errorf("%w: pad right column x=%d height=%d", ErrDegenerateRect, x, height)
	}
	return enc.Dispatch(&gpucore.DispatchDesc{
		Label:  "PadRightCol",
		Kernel: p.right,
		Source: tex,
		Result: tex,
		Params: gpucore.KernelParams{
			RectOffset: [2]int32{int32(x), 0},
			RectSize:   [2]uint32{1, uint32(height)},
		},
		Groups: [3]uint32{1, ceilDiv(uint32(height), ColorTileSize), 1},
	})
}

// PadTopRight copies texel (x-1, y-1) into (x, y).
func (p *TexturePadding) PadTopRight(enc gpucore.CommandEncoder, tex gpucore.TextureBinding, x, y int) error {
	if x <= 0 || y <= 0 {
		return fmt.Errorf("%w: pad corner x=%d y=%d", ErrDegenerateRect, x, y)
	}
	return enc.Dispatch(&gpucore.DispatchDesc{
		Label:  "PadTopRight",
		Kernel: p.topRight,
		Source: tex,
		Result: tex,
		Params: gpucore.KernelParams{
			RectOffset: [2]int32{int32(x), int32(y)},
			RectSize:   [2]uint32{1, 1},
		},
		Groups: [3]uint32{1, 1, 1},
	})
}

// PadMip pads a mip level whose valid region is smaller than its
// allocation. It records nothing when valid already fills alloc and
// returns the padded extent.
func (p *TexturePadding) PadMip(enc gpucore.CommandEncoder, tex gpucore.TextureBinding, valid, alloc Size) (Size, error) {
	padRight := valid.Width < alloc.Width
	padTop := valid.Height < alloc.Height
	out := valid

	if padTop {
		if err := p.PadTopRow(enc, tex, valid.Width, valid.Height); err != nil {
			return valid, err
		}
		out.Height++
	}
	if padRight {
		if err := p.PadRightCol(enc, tex, valid.Width, valid.Height); err != nil {
			return valid, err
		}
		out.Width++
	}
	if padTop && padRight {
		if err := p.PadTopRight(enc, tex, valid.Width, valid.Height); err != nil {
			return valid, err
		}
	}
	return out, nil
}
