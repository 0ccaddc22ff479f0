package pyramid

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// SizeFunc derives a texture size from the current viewport.
type SizeFunc func(vp Viewport) Size

// handle is a texture whose size follows the viewport. The backing texture
// is created on first use and recreated only when the evaluated size changes.
type handle struct {
	label     string
	format    gpucore.TextureFormat
	fullChain bool
	size      SizeFunc

	id   gpucore.TextureID
	cur  Size
	mips int
}

func newHandle(label string, format gpucore.TextureFormat, fullChain bool, size SizeFunc) *handle {
	return &handle{label: label, format: format, fullChain: fullChain, size: size}
}

// realize makes sure the backing texture matches vp. It reports whether a
// texture was (re)allocated.
func (h *handle) realize(dev gpucore.Device, vp Viewport) (bool, error) {
	s := h.size(vp)
	if h.id != gpucore.InvalidID && s == h.cur {
		return false, nil
	}
	h.release(dev)

	mips := 1
	if h.fullChain {
		mips = MipCount(s)
	}
	id, err := dev.CreateTexture(&gpucore.TextureDesc{
		Label:         h.label,
		Width:         s.Width,
		Height:        s.Height,
		MipLevelCount: mips,
		Format:        h.format,
		Usage:         gpucore.TextureUsageAll,
	})
	if err != nil {
		return false, fmt.Errorf("allocate %s %v: %w", h.label, s, err)
	}
	h.id, h.cur, h.mips = id, s, mips
	return true, nil
}

func (h *handle) release(dev gpucore.Device) {
	if h.id == gpucore.InvalidID {
		return
	}
	dev.DestroyTexture(h.id)
	h.id = gpucore.InvalidID
	h.cur = Size{}
	h.mips = 0
}

func (h *handle) allocated() bool { return h.id != gpucore.InvalidID }

func (h *handle) binding(mip int) gpucore.TextureBinding {
	return gpucore.TextureBinding{Texture: h.id, Mip: mip}
}
