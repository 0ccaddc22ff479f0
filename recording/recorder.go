package recording

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// Recorder captures encoder calls as commands. It validates arguments the
// same way a device encoder does, so a stream that records cleanly also
// plays back cleanly.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	label    string
	commands []Command
	finished bool
}

var _ gpucore.CommandEncoder = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder(label string) *Recorder {
	return &Recorder{
		label:    label,
		commands: make([]Command, 0, 64),
	}
}

// Label returns the label given to NewRecorder.
func (r *Recorder) Label() string { return r.label }

// Len returns the number of commands recorded so far.
func (r *Recorder) Len() int { return len(r.commands) }

func (r *Recorder) append(c Command) error {
	if r.finished {
		return gpucore.ErrEncoderFinished
	}
	r.commands = append(r.commands, c)
	return nil
}

// Dispatch implements gpucore.CommandEncoder.
func (r *Recorder) Dispatch(d *gpucore.DispatchDesc) error {
	if err := ValidateDispatch(d); err != nil {
		return err
	}
	return r.append(DispatchCommand{DispatchDesc: *d})
}

// CopyTexture implements gpucore.CommandEncoder.
func (r *Recorder) CopyTexture(c *gpucore.TextureCopy) error {
	if err := ValidateCopy(c); err != nil {
		return err
	}
	return r.append(CopyTextureCommand{TextureCopy: *c})
}

// Blit implements gpucore.CommandEncoder.
func (r *Recorder) Blit(b *gpucore.BlitDesc) error {
	if err := ValidateBlit(b); err != nil {
		return err
	}
	return r.append(BlitCommand{BlitDesc: *b})
}

// ClearTexture implements gpucore.CommandEncoder.
func (r *Recorder) ClearTexture(id gpucore.TextureID) error {
	if id == gpucore.InvalidID {
		return fmt.Errorf("clear texture: %w", gpucore.ErrTextureNotFound)
	}
	return r.append(ClearTextureCommand{Texture: id})
}

// Finish ends recording and returns the immutable Recording. Further
// recording calls fail with gpucore.ErrEncoderFinished.
func (r *Recorder) Finish() *Recording {
	r.finished = true
	return &Recording{label: r.label, commands: r.commands}
}

// ValidateDispatch checks the parts of a dispatch every encoder rejects.
func ValidateDispatch(d *gpucore.DispatchDesc) error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: nil descriptor", gpucore.ErrInvalidDispatch)
	case d.Kernel == gpucore.InvalidID:
		return fmt.Errorf("%w: %s: no kernel", gpucore.ErrInvalidDispatch, d.Label)
	case d.Groups[0] == 0 || d.Groups[1] == 0 || d.Groups[2] == 0:
		return fmt.Errorf("%w: %s: empty workgroup count %v", gpucore.ErrInvalidDispatch, d.Label, d.Groups)
	case d.Result.Texture == gpucore.InvalidID:
		return fmt.Errorf("%w: %s: no result texture", gpucore.ErrInvalidDispatch, d.Label)
	}
	return nil
}

// ValidateCopy checks a texture copy.
func ValidateCopy(c *gpucore.TextureCopy) error {
	switch {
	case c == nil:
		return fmt.Errorf("copy texture: %w", gpucore.ErrInvalidDispatch)
	case c.Src.Texture == gpucore.InvalidID || c.Dst.Texture == gpucore.InvalidID:
		return fmt.Errorf("copy texture: %w", gpucore.ErrTextureNotFound)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("copy texture: empty region %dx%d: %w", c.Width, c.Height, gpucore.ErrInvalidDispatch)
	}
	return nil
}

// ValidateBlit checks a blit.
func ValidateBlit(b *gpucore.BlitDesc) error {
	switch {
	case b == nil:
		return fmt.Errorf("blit: %w", gpucore.ErrInvalidDispatch)
	case b.Src.Texture == gpucore.InvalidID || b.Dst.Texture == gpucore.InvalidID:
		return fmt.Errorf("blit: %w", gpucore.ErrTextureNotFound)
	case b.Width <= 0 || b.Height <= 0:
		return fmt.Errorf("blit: empty region %dx%d: %w", b.Width, b.Height, gpucore.ErrInvalidDispatch)
	case b.SrcX < 0 || b.SrcY < 0 || b.SrcWidth < 0 || b.SrcHeight < 0:
		return fmt.Errorf("blit: negative source region (%d,%d %dx%d): %w",
			b.SrcX, b.SrcY, b.SrcWidth, b.SrcHeight, gpucore.ErrInvalidDispatch)
	}
	return nil
}
