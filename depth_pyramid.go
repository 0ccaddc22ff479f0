package pyramid

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// RenderDepthPyramid records the depth chain for the viewport vp of the
// depth texture depth (level 0 of which holds depth in its x channel).
//
// Level 0 of the chain receives a single-channel copy of the viewport.
// Each following level reduces the previous one with a point-accurate
// min or max, so odd source rows and columns are folded into the last
// destination texel rather than dropped or blended.
//
// Every level's dispatch plan is validated before anything is recorded.
func (b *BufferPyramid) RenderDepthPyramid(enc gpucore.CommandEncoder, vp Viewport, depth gpucore.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := &b.depth
	lodCount, err := b.begin(enc, vp, c)
	if err != nil {
		return err
	}

	plans := b.planScratch(lodCount)
	for i := range plans {
		src, _ := levelSizes(vp, i)
		plans[i] = PlanDepthLevel(src.Rect())
	}
	if err := validatePlans(plans); err != nil {
		return fmt.Errorf("depth pyramid: %w", err)
	}

	for _, m := range c.mips {
		if !m.allocated() {
			continue
		}
		if err := enc.ClearTexture(m.id); err != nil {
			return fmt.Errorf("depth pyramid: clear %s: %w", m.label, err)
		}
	}

	if err := b.copier.SampleCopyChannelXYZW2X(enc,
		gpucore.TextureBinding{Texture: depth}, c.buffer.binding(0), vp.Size()); err != nil {
		return fmt.Errorf("depth pyramid: level 0: %w", err)
	}

	scale := b.screenScale(c, vp)
	src := c.buffer.binding(0)
	for i := range plans {
		srcSize, dstSize := levelSizes(vp, i)
		dest := c.mips[i]
		params := gpucore.KernelParams{
			SrcSize: [4]float32{
				float32(srcSize.Width), float32(srcSize.Height),
				scale[0] / float32(srcSize.Width), scale[1] / float32(srcSize.Height),
			},
			DstSize: gpucore.SizeVector(float32(dest.cur.Width), float32(dest.cur.Height)),
		}

		for _, d := range plans[i].All() {
			kernel := b.depthBlocks[d.Pattern]
			if d.Wide {
				kernel = b.depthWide
			}
			params.RectOffset = [2]int32{int32(d.Rect.X), int32(d.Rect.Y)}
			params.RectSize = [2]uint32{d.Rect.Width, d.Rect.Height}
			if err := enc.Dispatch(&gpucore.DispatchDesc{
				Label:  dest.label,
				Kernel: kernel,
				Source: src,
				Result: dest.binding(0),
				Params: params,
				Groups: d.DepthGroups(),
			}); err != nil {
				return fmt.Errorf("depth pyramid: level %d %v: %w", i, d, err)
			}
		}

		if err := enc.CopyTexture(&gpucore.TextureCopy{
			Src:    dest.binding(0),
			Dst:    c.buffer.binding(i + 1),
			Width:  dstSize.Width,
			Height: dstSize.Height,
		}); err != nil {
			return fmt.Errorf("depth pyramid: copy level %d: %w", i, err)
		}
		src = dest.binding(0)
	}

	b.publish(c, vp, lodCount)
	Logger().Debug("pyramid: depth recorded", "viewport", vp.Size().String(), "levels", lodCount)
	return nil
}
