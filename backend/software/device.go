package software

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/pyramid/backend"
	"github.com/gogpu/pyramid/cache"
	"github.com/gogpu/pyramid/gpucore"
	"github.com/gogpu/pyramid/internal/parallel"
)

func init() {
	backend.Register(backend.Software, func() (gpucore.Device, error) {
		return New(), nil
	})
}

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets the number of goroutines executing a dispatch.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Device) { d.workers = n }
}

// WithKernelTracing logs every executed command at debug level.
func WithKernelTracing(enabled bool) Option {
	return func(d *Device) { d.trace = enabled }
}

// Stats counts device activity.
type Stats struct {
	TexturesCreated   int
	TexturesDestroyed int
	LiveTextures      int
	Dispatches        int
	Copies            int
	Blits             int
	Clears            int
}

// texture is a texture and its mip chain.
type texture struct {
	info   gpucore.TextureInfo
	levels []*Image
}

// Device is a CPU implementation of gpucore.Device.
//
// Thread Safety: Device is safe for concurrent use. Submissions execute
// one at a time.
type Device struct {
	mu       sync.RWMutex
	textures map[gpucore.TextureID]*texture
	kernels  map[gpucore.KernelID]kernel
	shaders  map[string][]kernel
	resolved *cache.Sharded[string, gpucore.KernelID]
	nextID   atomic.Uint64

	submitMu sync.Mutex
	pool     *parallel.WorkerPool
	workers  int
	trace    bool
	logger   atomic.Pointer[slog.Logger]
	stats    Stats
}

var _ gpucore.Device = (*Device)(nil)

// New creates a Device with every built-in kernel available.
func New(opts ...Option) *Device {
	d := &Device{
		textures: make(map[gpucore.TextureID]*texture),
		kernels:  make(map[gpucore.KernelID]kernel),
		shaders:  builtinShaders(),
		resolved: cache.NewSharded[string, gpucore.KernelID](cache.StringHasher),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pool = parallel.NewWorkerPool(d.workers)
	d.logger.Store(slog.New(slog.DiscardHandler))
	d.nextID.Store(1)
	return d
}

// SetLogger sets the logger used for tracing and warnings.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger.Store(l)
}

func (d *Device) log() *slog.Logger { return d.logger.Load() }

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Close stops the worker pool. The device must not be used afterwards.
func (d *Device) Close() {
	d.pool.Close()
}

// ResolveKernel implements gpucore.Device.
func (d *Device) ResolveKernel(shader, entryPoint string) (gpucore.KernelID, error) {
	return d.resolved.GetOrCreate(shader+"."+entryPoint, func() (gpucore.KernelID, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		entries, ok := d.shaders[shader]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("software: shader %q: %w", shader, gpucore.ErrKernelNotFound)
		}
		for _, k := range entries {
			if k.name == entryPoint {
				id := gpucore.KernelID(d.newID())
				d.kernels[id] = k
				return id, nil
			}
		}
		return gpucore.InvalidID, fmt.Errorf("software: %s.%s: %w", shader, entryPoint, gpucore.ErrKernelNotFound)
	})
}

// RemoveShader makes a shader unresolvable. Kernels already resolved keep
// working. It is used to simulate incomplete shader sets.
func (d *Device) RemoveShader(shader string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, shader)
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc == nil || desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("software: create texture: %w", gpucore.ErrInvalidTexture)
	}
	if desc.Format.BytesPerTexel() == 0 {
		return gpucore.InvalidID, fmt.Errorf("software: create texture %q format %v: %w", desc.Label, desc.Format, gpucore.ErrInvalidTexture)
	}

	info := gpucore.TextureInfo{
		Label:         desc.Label,
		Width:         desc.Width,
		Height:        desc.Height,
		MipLevelCount: max(desc.MipLevelCount, 1),
		Format:        desc.Format,
	}
	t := &texture{info: info, levels: make([]*Image, info.MipLevelCount)}
	for m := range t.levels {
		w, h := info.MipSize(m)
		t.levels[m] = NewImage(w, h, desc.Format.Channels())
	}

	id := gpucore.TextureID(d.newID())
	d.mu.Lock()
	d.textures[id] = t
	d.stats.TexturesCreated++
	d.mu.Unlock()
	return id, nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[id]; !ok {
		d.log().Warn("software: destroy unknown texture", "id", id)
		return
	}
	delete(d.textures, id)
	d.stats.TexturesDestroyed++
}

// TextureInfo implements gpucore.Device.
func (d *Device) TextureInfo(id gpucore.TextureID) (gpucore.TextureInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.textures[id]
	if !ok {
		return gpucore.TextureInfo{}, false
	}
	return t.info, true
}

// level returns a mip image of a live texture.
func (d *Device) level(b gpucore.TextureBinding) (*Image, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.textures[b.Texture]
	if !ok {
		return nil, fmt.Errorf("software: texture %d: %w", b.Texture, gpucore.ErrTextureNotFound)
	}
	if b.Mip < 0 || b.Mip >= len(t.levels) {
		return nil, fmt.Errorf("software: texture %d has no mip %d: %w", b.Texture, b.Mip, gpucore.ErrTextureNotFound)
	}
	return t.levels[b.Mip], nil
}

// WriteTexture copies img into a mip level. Sizes must match.
func (d *Device) WriteTexture(b gpucore.TextureBinding, img *Image) error {
	dst, err := d.level(b)
	if err != nil {
		return err
	}
	if img.Width != dst.Width || img.Height != dst.Height {
		return fmt.Errorf("software: write %dx%d into %dx%d mip: %w",
			img.Width, img.Height, dst.Width, dst.Height, gpucore.ErrInvalidTexture)
	}
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	for y := range img.Height {
		for x := range img.Width {
			dst.SetTexel(x, y, img.Texel(x, y))
		}
	}
	return nil
}

// ReadTexture returns a copy of a mip level.
func (d *Device) ReadTexture(b gpucore.TextureBinding) (*Image, error) {
	src, err := d.level(b)
	if err != nil {
		return nil, err
	}
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	return src.Clone(), nil
}

// Stats returns activity counters.
func (d *Device) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.stats
	s.LiveTextures = len(d.textures)
	return s
}
