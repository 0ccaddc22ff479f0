package pyramid

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// RenderColorPyramid records the colour chain for the viewport vp of the
// colour texture color.
//
// Level 0 is a bilinear resample of the source's viewport region
// (0, 0, vp.Width, vp.Height) into the same region of the chain, which keeps
// it aligned with the depth chain. Values are not clamped, so HDR colour
// survives. Each following level is a 2x2 box filter of the
// previous one. After a level is written, its last valid row and column
// are replicated one texel outward so bilinear taps at the viewport edge
// stay inside valid data.
func (b *BufferPyramid) RenderColorPyramid(enc gpucore.CommandEncoder, vp Viewport, color gpucore.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := &b.color
	lodCount, err := b.begin(enc, vp, c)
	if err != nil {
		return err
	}

	plans := b.planScratch(lodCount)
	for i := range plans {
		_, dst := levelSizes(vp, i)
		plans[i] = PlanColorLevel(dst.Rect())
	}
	if err := validatePlans(plans); err != nil {
		return fmt.Errorf("color pyramid: %w", err)
	}

	base := c.buffer.binding(0)
	if err := enc.Blit(&gpucore.BlitDesc{
		Src:       gpucore.TextureBinding{Texture: color},
		SrcWidth:  vp.Width,
		SrcHeight: vp.Height,
		Dst:       base,
		Width:     vp.Width,
		Height:    vp.Height,
	}); err != nil {
		return fmt.Errorf("color pyramid: level 0: %w", err)
	}
	if _, err := b.padding.PadMip(enc, base, vp.Size(), c.buffer.cur); err != nil {
		return fmt.Errorf("color pyramid: pad level 0: %w", err)
	}

	src := base
	for i := range plans {
		srcSize, dstSize := levelSizes(vp, i)
		dest := c.mips[i]
		params := gpucore.KernelParams{
			SrcSize: gpucore.SizeVector(float32(srcSize.Width), float32(srcSize.Height)),
			DstSize: gpucore.SizeVector(float32(dest.cur.Width), float32(dest.cur.Height)),
		}

		for _, d := range plans[i].All() {
			params.RectOffset = [2]int32{int32(d.Rect.X), int32(d.Rect.Y)}
			params.RectSize = [2]uint32{d.Rect.Width, d.Rect.Height}
			if err := enc.Dispatch(&gpucore.DispatchDesc{
				Label:  dest.label,
				Kernel: b.colorKernel[d.Pattern],
				Source: src,
				Result: dest.binding(0),
				Params: params,
				Groups: d.ColorGroups(),
			}); err != nil {
				return fmt.Errorf("color pyramid: level %d %v: %w", i, d, err)
			}
		}

		padded, err := b.padding.PadMip(enc, dest.binding(0), dstSize, dest.cur)
		if err != nil {
			return fmt.Errorf("color pyramid: pad level %d: %w", i, err)
		}
		if err := enc.CopyTexture(&gpucore.TextureCopy{
			Src:    dest.binding(0),
			Dst:    c.buffer.binding(i + 1),
			Width:  padded.Width,
			Height: padded.Height,
		}); err != nil {
			return fmt.Errorf("color pyramid: copy level %d: %w", i, err)
		}
		src = dest.binding(0)
	}

	b.publish(c, vp, lodCount)
	Logger().Debug("pyramid: color recorded", "viewport", vp.Size().String(), "levels", lodCount)
	return nil
}
