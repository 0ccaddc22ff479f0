package software

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
	"github.com/gogpu/pyramid/recording"
)

// Encoder records commands for later execution by Device.Submit.
type Encoder struct {
	dev *Device
	rec *recording.Recorder
}

var _ gpucore.CommandEncoder = (*Encoder)(nil)

// CreateCommandEncoder implements gpucore.Device.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	return &Encoder{dev: d, rec: recording.NewRecorder(label)}, nil
}

func (e *Encoder) checkTextures(bs ...gpucore.TextureBinding) error {
	for _, b := range bs {
		if _, err := e.dev.level(b); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch implements gpucore.CommandEncoder.
func (e *Encoder) Dispatch(d *gpucore.DispatchDesc) error {
	if err := recording.ValidateDispatch(d); err != nil {
		return err
	}
	if err := e.checkTextures(d.Source, d.Result); err != nil {
		return err
	}
	return e.rec.Dispatch(d)
}

// CopyTexture implements gpucore.CommandEncoder.
func (e *Encoder) CopyTexture(c *gpucore.TextureCopy) error {
	if err := recording.ValidateCopy(c); err != nil {
		return err
	}
	if err := e.checkTextures(c.Src, c.Dst); err != nil {
		return err
	}
	return e.rec.CopyTexture(c)
}

// Blit implements gpucore.CommandEncoder.
func (e *Encoder) Blit(b *gpucore.BlitDesc) error {
	if err := recording.ValidateBlit(b); err != nil {
		return err
	}
	if err := e.checkTextures(b.Src, b.Dst); err != nil {
		return err
	}
	return e.rec.Blit(b)
}

// ClearTexture implements gpucore.CommandEncoder.
func (e *Encoder) ClearTexture(id gpucore.TextureID) error {
	if _, ok := e.dev.TextureInfo(id); !ok {
		return fmt.Errorf("software: clear texture %d: %w", id, gpucore.ErrTextureNotFound)
	}
	return e.rec.ClearTexture(id)
}

// Submit implements gpucore.Device. Commands run in recording order on the
// calling goroutine, each dispatch spread over the worker pool.
func (d *Device) Submit(enc gpucore.CommandEncoder) error {
	e, ok := enc.(*Encoder)
	if !ok || e.dev != d {
		return fmt.Errorf("software: submit %T: encoder not created by this device", enc)
	}
	r := e.rec.Finish()

	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	return r.Playback(executor{d})
}

// executor runs commands immediately. It is only used under submitMu.
type executor struct {
	d *Device
}

func (x executor) Dispatch(desc *gpucore.DispatchDesc) error {
	d := x.d
	d.mu.RLock()
	k, ok := d.kernels[desc.Kernel]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("software: kernel %d: %w", desc.Kernel, gpucore.ErrKernelNotFound)
	}
	src, err := d.level(desc.Source)
	if err != nil {
		return err
	}
	dst, err := d.level(desc.Result)
	if err != nil {
		return err
	}
	if d.trace {
		d.log().Debug("software: dispatch", "kernel", k.name, "label", desc.Label,
			"offset", desc.Params.RectOffset, "size", desc.Params.RectSize, "groups", desc.Groups)
	}

	inv := &invocation{src: src, dst: dst, p: desc.Params}
	wx, wy := k.workgroup[0], k.workgroup[1]
	gx, gy := int(desc.Groups[0]), int(desc.Groups[1])
	d.pool.Run(gy, func(row int) {
		for col := range gx {
			for ly := range wy {
				for lx := range wx {
					k.thread(inv, col*wx+lx, row*wy+ly)
				}
			}
		}
	})

	d.count(func(s *Stats) { s.Dispatches++ })
	return nil
}

func (x executor) CopyTexture(c *gpucore.TextureCopy) error {
	d := x.d
	src, err := d.level(c.Src)
	if err != nil {
		return err
	}
	dst, err := d.level(c.Dst)
	if err != nil {
		return err
	}
	if !src.In(c.SrcX, c.SrcY) || !src.In(c.SrcX+c.Width-1, c.SrcY+c.Height-1) ||
		!dst.In(c.DstX, c.DstY) || !dst.In(c.DstX+c.Width-1, c.DstY+c.Height-1) {
		return fmt.Errorf("software: copy %dx%d out of bounds (src %dx%d, dst %dx%d): %w",
			c.Width, c.Height, src.Width, src.Height, dst.Width, dst.Height, gpucore.ErrInvalidDispatch)
	}
	if d.trace {
		d.log().Debug("software: copy", "src", c.Src, "dst", c.Dst, "w", c.Width, "h", c.Height)
	}
	for y := range c.Height {
		for x := range c.Width {
			dst.SetTexel(c.DstX+x, c.DstY+y, src.Texel(c.SrcX+x, c.SrcY+y))
		}
	}
	d.count(func(s *Stats) { s.Copies++ })
	return nil
}

func (x executor) Blit(b *gpucore.BlitDesc) error {
	d := x.d
	src, err := d.level(b.Src)
	if err != nil {
		return err
	}
	dst, err := d.level(b.Dst)
	if err != nil {
		return err
	}
	if !b.SourceInBounds(src.Width, src.Height) {
		return fmt.Errorf("software: blit source (%d,%d %dx%d) outside %dx%d: %w",
			b.SrcX, b.SrcY, b.SrcWidth, b.SrcHeight, src.Width, src.Height, gpucore.ErrInvalidDispatch)
	}
	rx, ry, rw, rh := b.SourceRegion(src.Width, src.Height)
	if d.trace {
		d.log().Debug("software: blit", "src", b.Src, "dst", b.Dst,
			"region", [4]int{rx, ry, rw, rh}, "w", b.Width, "h", b.Height)
	}

	w, h := min(b.Width, dst.Width), min(b.Height, dst.Height)
	sx, sy := float32(rw)/float32(b.Width), float32(rh)/float32(b.Height)
	d.pool.Run(h, func(y int) {
		v := (float32(y) + 0.5) * sy
		for x := range w {
			dst.SetTexel(x, y, src.sampleBilinear(rx, ry, rw, rh, (float32(x)+0.5)*sx, v))
		}
	})
	d.count(func(s *Stats) { s.Blits++ })
	return nil
}

func (x executor) ClearTexture(id gpucore.TextureID) error {
	d := x.d
	d.mu.RLock()
	t, ok := d.textures[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("software: clear texture %d: %w", id, gpucore.ErrTextureNotFound)
	}
	for _, lvl := range t.levels {
		clear(lvl.Pix)
	}
	d.count(func(s *Stats) { s.Clears++ })
	return nil
}

func (d *Device) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}
