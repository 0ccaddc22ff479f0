package gpucore

import "errors"

// Contract errors shared by all device implementations.
var (
	// ErrKernelNotFound is returned when a shader or entry point cannot be resolved.
	ErrKernelNotFound = errors.New("gpucore: kernel not found")

	// ErrTextureNotFound is returned for an unknown or destroyed texture ID.
	ErrTextureNotFound = errors.New("gpucore: texture not found")

	// ErrInvalidDispatch is returned for a dispatch with zero workgroups or
	// an unresolved kernel.
	ErrInvalidDispatch = errors.New("gpucore: invalid dispatch")

	// ErrInvalidTexture is returned for a texture descriptor with a
	// non-positive size or an unsupported format.
	ErrInvalidTexture = errors.New("gpucore: invalid texture descriptor")

	// ErrEncoderFinished is returned when recording into a submitted encoder.
	ErrEncoderFinished = errors.New("gpucore: command encoder already submitted")
)

// Device provides kernels, textures and command encoders.
//
// Implementations must be safe for concurrent use; the pyramid itself
// records from a single goroutine.
type Device interface {
	// ResolveKernel looks up an entry point of a named shader. It returns an
	// error wrapping ErrKernelNotFound when either name is unknown.
	ResolveKernel(shader, entryPoint string) (KernelID, error)

	// CreateTexture allocates a texture with uninitialized contents.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// DestroyTexture releases a texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// TextureInfo returns the description of a live texture.
	TextureInfo(id TextureID) (TextureInfo, bool)

	// CreateCommandEncoder starts a new command stream.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit executes the commands recorded by an encoder created by this
	// device. The encoder cannot be used afterwards.
	Submit(enc CommandEncoder) error
}

// CommandEncoder records GPU work. Commands execute in recording order when
// the encoder is submitted. Recording methods validate their arguments and
// return an error without recording anything on failure.
type CommandEncoder interface {
	// Dispatch records a compute dispatch.
	Dispatch(d *DispatchDesc) error

	// CopyTexture records an unfiltered region copy.
	CopyTexture(c *TextureCopy) error

	// Blit records a bilinear resample of a whole mip level into a region.
	Blit(b *BlitDesc) error

	// ClearTexture records clearing every mip level of a texture to zero.
	ClearTexture(id TextureID) error
}
