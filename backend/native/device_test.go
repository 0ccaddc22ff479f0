package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pyramid/gpucore"
	"github.com/gogpu/wgpu/hal/noop"
)

func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	d, err := New(WithBackend(gputypes.BackendEmpty))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func mustTexture(t *testing.T, d *Device, w, h, mips int, f gpucore.TextureFormat) gpucore.TextureID {
	t.Helper()
	id, err := d.CreateTexture(&gpucore.TextureDesc{
		Label:         "test",
		Width:         w,
		Height:        h,
		MipLevelCount: mips,
		Format:        f,
		Usage:         gpucore.TextureUsageAll,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return id
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(WithBackend(gputypes.Backend(200)))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestTextureLifecycle(t *testing.T) {
	d := newNoopDevice(t)

	if _, err := d.CreateTexture(&gpucore.TextureDesc{Width: 0, Height: 4}); !errors.Is(err, gpucore.ErrInvalidTexture) {
		t.Errorf("zero width: err = %v", err)
	}
	if _, err := d.CreateTexture(&gpucore.TextureDesc{Width: 4, Height: 4, Format: gpucore.TextureFormat(42)}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("bad format: err = %v", err)
	}

	id := mustTexture(t, d, 33, 17, 3, gpucore.TextureFormatR32Float)
	info, ok := d.TextureInfo(id)
	if !ok {
		t.Fatal("TextureInfo: not found")
	}
	if info.Width != 33 || info.Height != 17 || info.MipLevelCount != 3 {
		t.Errorf("info = %+v", info)
	}
	if _, err := d.lookup(gpucore.TextureBinding{Texture: id, Mip: 3}); !errors.Is(err, gpucore.ErrTextureNotFound) {
		t.Errorf("mip 3: err = %v", err)
	}

	d.DestroyTexture(id)
	d.DestroyTexture(id)
	if _, ok := d.TextureInfo(id); ok {
		t.Error("texture still present after destroy")
	}
}

func TestResolveKernelErrors(t *testing.T) {
	d := newNoopDevice(t)

	if _, err := d.ResolveKernel("Missing", "KMain"); !errors.Is(err, gpucore.ErrKernelNotFound) {
		t.Errorf("unknown shader: err = %v", err)
	}
	if _, err := d.ResolveKernel(gpucore.ShaderColorPyramid, "KMissing"); !errors.Is(err, gpucore.ErrKernelNotFound) {
		t.Errorf("unknown entry: err = %v", err)
	}
}

func TestEncoderCopyAndClear(t *testing.T) {
	d := newNoopDevice(t)
	a := mustTexture(t, d, 16, 16, 2, gpucore.TextureFormatRGBA16Float)
	b := mustTexture(t, d, 16, 16, 1, gpucore.TextureFormatRGBA16Float)

	enc, err := d.CreateCommandEncoder("copy")
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.ClearTexture(a); err != nil {
		t.Fatalf("ClearTexture: %v", err)
	}
	copyDesc := &gpucore.TextureCopy{
		Src:    gpucore.TextureBinding{Texture: a, Mip: 1},
		Dst:    gpucore.TextureBinding{Texture: b},
		DstX:   4,
		DstY:   4,
		Width:  8,
		Height: 8,
	}
	if err := enc.CopyTexture(copyDesc); err != nil {
		t.Fatalf("CopyTexture: %v", err)
	}

	tooBig := *copyDesc
	tooBig.Width = 9
	if err := enc.CopyTexture(&tooBig); !errors.Is(err, gpucore.ErrInvalidDispatch) {
		t.Errorf("oversized copy: err = %v", err)
	}
	self := *copyDesc
	self.Dst = self.Src
	if err := enc.CopyTexture(&self); !errors.Is(err, gpucore.ErrInvalidDispatch) {
		t.Errorf("self copy: err = %v", err)
	}

	if err := d.Submit(enc); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	d.mu.RLock()
	usage := d.textures[b].usage[0]
	d.mu.RUnlock()
	if usage != gputypes.TextureUsageCopyDst {
		t.Errorf("committed usage = %v, want CopyDst", usage)
	}

	if err := d.Submit(enc); !errors.Is(err, gpucore.ErrEncoderFinished) {
		t.Errorf("second submit: err = %v", err)
	}
	if err := enc.ClearTexture(a); !errors.Is(err, gpucore.ErrEncoderFinished) {
		t.Errorf("record after submit: err = %v", err)
	}
}

func TestEncoderUnknownTexture(t *testing.T) {
	d := newNoopDevice(t)
	enc, err := d.CreateCommandEncoder("unknown")
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.ClearTexture(99); !errors.Is(err, gpucore.ErrTextureNotFound) {
		t.Errorf("err = %v, want ErrTextureNotFound", err)
	}
	if err := d.Submit(enc); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmitForeignEncoder(t *testing.T) {
	d1 := newNoopDevice(t)
	d2 := newNoopDevice(t)
	enc, err := d1.CreateCommandEncoder("foreign")
	if err != nil {
		t.Fatal(err)
	}
	if err := d2.Submit(enc); err == nil {
		t.Error("submitting another device's encoder succeeded")
	}
}

func TestClosedDevice(t *testing.T) {
	d, err := New(WithBackend(gputypes.BackendEmpty))
	if err != nil {
		t.Fatal(err)
	}
	d.Close()
	d.Close()
	if _, err := d.CreateCommandEncoder("closed"); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateCommandEncoder: err = %v", err)
	}
	if _, err := d.ResolveKernel(gpucore.ShaderColorPyramid, gpucore.KernelColorDownsample); !errors.Is(err, ErrClosed) {
		t.Errorf("ResolveKernel: err = %v", err)
	}
}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

type halProvider struct {
	plainProvider
	device any
	queue  any
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	if _, err := NewFromProvider(plainProvider{}); !errors.Is(err, ErrProviderNotHAL) {
		t.Errorf("plain provider: err = %v", err)
	}
	if _, err := NewFromProvider(halProvider{device: "x", queue: "y"}); !errors.Is(err, ErrProviderNotHAL) {
		t.Errorf("wrong types: err = %v", err)
	}

	open, err := (&noop.Adapter{}).Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewFromProvider(halProvider{device: open.Device, queue: open.Queue})
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	defer d.Close()
	if d.owned {
		t.Error("shared device marked as owned")
	}
	id := mustTexture(t, d, 8, 8, 1, gpucore.TextureFormatR32Float)
	if _, ok := d.TextureInfo(id); !ok {
		t.Error("texture not created on shared device")
	}
}
