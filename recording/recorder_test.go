package recording

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/pyramid/gpucore"
)

// captureEncoder is a gpucore.CommandEncoder that remembers call order.
type captureEncoder struct {
	calls  []string
	failAt int
}

func (e *captureEncoder) note(name string) error {
	e.calls = append(e.calls, name)
	if e.failAt > 0 && len(e.calls) == e.failAt {
		return errors.New("rejected")
	}
	return nil
}

func (e *captureEncoder) Dispatch(d *gpucore.DispatchDesc) error { return e.note("dispatch:" + d.Label) }
func (e *captureEncoder) CopyTexture(*gpucore.TextureCopy) error { return e.note("copy") }
func (e *captureEncoder) Blit(*gpucore.BlitDesc) error           { return e.note("blit") }
func (e *captureEncoder) ClearTexture(gpucore.TextureID) error   { return e.note("clear") }

func validDispatch(label string) *gpucore.DispatchDesc {
	return &gpucore.DispatchDesc{
		Label:  label,
		Kernel: 1,
		Source: gpucore.TextureBinding{Texture: 1},
		Result: gpucore.TextureBinding{Texture: 2},
		Groups: [3]uint32{1, 1, 1},
	}
}

func TestRecorderOrder(t *testing.T) {
	rec := NewRecorder("frame")
	if err := rec.ClearTexture(3); err != nil {
		t.Fatal(err)
	}
	if err := rec.Blit(&gpucore.BlitDesc{Src: gpucore.TextureBinding{Texture: 1}, Dst: gpucore.TextureBinding{Texture: 2}, Width: 4, Height: 4}); err != nil {
		t.Fatal(err)
	}
	if err := rec.Dispatch(validDispatch("a")); err != nil {
		t.Fatal(err)
	}
	if err := rec.CopyTexture(&gpucore.TextureCopy{Src: gpucore.TextureBinding{Texture: 2}, Dst: gpucore.TextureBinding{Texture: 3, Mip: 1}, Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}
	r := rec.Finish()

	want := []CommandType{CmdClearTexture, CmdBlit, CmdDispatch, CmdCopyTexture}
	got := r.Commands()
	if len(got) != len(want) {
		t.Fatalf("got %d commands, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Type() != want[i] {
			t.Errorf("command %d = %v, want %v", i, c.Type(), want[i])
		}
	}
	if n := r.Count(CmdDispatch); n != 1 {
		t.Errorf("Count(CmdDispatch) = %d, want 1", n)
	}
	if cp := r.Copies(); len(cp) != 1 || cp[0].Dst.Mip != 1 {
		t.Errorf("Copies() = %+v", cp)
	}
	if !strings.Contains(r.String(), "blit") {
		t.Errorf("String() missing blit:\n%s", r.String())
	}
}

func TestRecorderValidation(t *testing.T) {
	tests := []struct {
		name string
		call func(r *Recorder) error
		want error
	}{
		{"nil dispatch", func(r *Recorder) error { return r.Dispatch(nil) }, gpucore.ErrInvalidDispatch},
		{"no kernel", func(r *Recorder) error {
			d := validDispatch("k")
			d.Kernel = gpucore.InvalidID
			return r.Dispatch(d)
		}, gpucore.ErrInvalidDispatch},
		{"zero groups", func(r *Recorder) error {
			d := validDispatch("g")
			d.Groups[1] = 0
			return r.Dispatch(d)
		}, gpucore.ErrInvalidDispatch},
		{"copy empty", func(r *Recorder) error {
			return r.CopyTexture(&gpucore.TextureCopy{Src: gpucore.TextureBinding{Texture: 1}, Dst: gpucore.TextureBinding{Texture: 2}})
		}, gpucore.ErrInvalidDispatch},
		{"copy unknown texture", func(r *Recorder) error {
			return r.CopyTexture(&gpucore.TextureCopy{Dst: gpucore.TextureBinding{Texture: 2}, Width: 1, Height: 1})
		}, gpucore.ErrTextureNotFound},
		{"blit empty", func(r *Recorder) error {
			return r.Blit(&gpucore.BlitDesc{Src: gpucore.TextureBinding{Texture: 1}, Dst: gpucore.TextureBinding{Texture: 2}})
		}, gpucore.ErrInvalidDispatch},
		{"blit negative source", func(r *Recorder) error {
			return r.Blit(&gpucore.BlitDesc{
				Src: gpucore.TextureBinding{Texture: 1}, SrcX: -1, SrcWidth: 4, SrcHeight: 4,
				Dst: gpucore.TextureBinding{Texture: 2}, Width: 4, Height: 4,
			})
		}, gpucore.ErrInvalidDispatch},
		{"clear invalid", func(r *Recorder) error { return r.ClearTexture(gpucore.InvalidID) }, gpucore.ErrTextureNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder("v")
			err := tt.call(rec)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if rec.Len() != 0 {
				t.Errorf("rejected call recorded %d commands", rec.Len())
			}
		})
	}
}

func TestRecorderFinished(t *testing.T) {
	rec := NewRecorder("done")
	rec.Finish()
	if err := rec.Dispatch(validDispatch("late")); !errors.Is(err, gpucore.ErrEncoderFinished) {
		t.Errorf("Dispatch after Finish = %v, want ErrEncoderFinished", err)
	}
}

func TestPlayback(t *testing.T) {
	rec := NewRecorder("p")
	_ = rec.Dispatch(validDispatch("first"))
	_ = rec.ClearTexture(7)
	_ = rec.Dispatch(validDispatch("second"))
	r := rec.Finish()

	enc := &captureEncoder{}
	if err := r.Playback(enc); err != nil {
		t.Fatal(err)
	}
	want := []string{"dispatch:first", "clear", "dispatch:second"}
	if strings.Join(enc.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", enc.calls, want)
	}

	failing := &captureEncoder{failAt: 2}
	err := r.Playback(failing)
	if err == nil || !strings.Contains(err.Error(), "command 1") {
		t.Errorf("Playback error = %v, want failure at command 1", err)
	}
	if len(failing.calls) != 2 {
		t.Errorf("playback continued after failure: %v", failing.calls)
	}
}

func TestCommandTypeString(t *testing.T) {
	if CmdBlit.String() != "Blit" {
		t.Errorf("CmdBlit.String() = %q", CmdBlit.String())
	}
	if CommandType(200).String() != "Unknown" {
		t.Errorf("unknown type String() = %q", CommandType(200).String())
	}
}
