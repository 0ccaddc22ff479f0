package pyramid

import (
	"errors"
	"testing"

	"github.com/gogpu/pyramid/backend/software"
	"github.com/gogpu/pyramid/gpucore"
	"github.com/gogpu/pyramid/recording"
)

func newPadding(t *testing.T) *TexturePadding {
	t.Helper()
	dev := software.New(software.WithWorkers(1))
	t.Cleanup(dev.Close)
	p, err := NewTexturePadding(dev)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPadMip(t *testing.T) {
	tex := gpucore.TextureBinding{Texture: 7, Mip: 2}
	tests := []struct {
		name         string
		valid, alloc Size
		want         Size
		dispatches   int
	}{
		{"full", Size{8, 8}, Size{8, 8}, Size{8, 8}, 0},
		{"right only", Size{5, 8}, Size{8, 8}, Size{6, 8}, 1},
		{"top only", Size{8, 5}, Size{8, 8}, Size{8, 6}, 1},
		{"both", Size{5, 3}, Size{8, 8}, Size{6, 4}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPadding(t)
			rec := recording.NewRecorder("pad")
			got, err := p.PadMip(rec, tex, tt.valid, tt.alloc)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("padded = %v, want %v", got, tt.want)
			}
			r := rec.Finish()
			if n := r.Count(recording.CmdDispatch); n != tt.dispatches {
				t.Fatalf("%d dispatches, want %d", n, tt.dispatches)
			}
			for _, d := range r.Dispatches() {
				if d.Source != tex || d.Result != tex {
					t.Errorf("%s binds %v -> %v, want %v in place", d.Label, d.Source, d.Result, tex)
				}
			}
		})
	}
}

func TestPadTopRowGroups(t *testing.T) {
	p := newPadding(t)
	rec := recording.NewRecorder("pad")
	if err := p.PadTopRow(rec, gpucore.TextureBinding{Texture: 1}, 17, 9); err != nil {
		t.Fatal(err)
	}
	d := rec.Finish().Dispatches()[0]
	if d.Groups != [3]uint32{3, 1, 1} {
		t.Errorf("groups = %v, want [3 1 1]", d.Groups)
	}
	if d.Params.RectOffset != [2]int32{0, 9} || d.Params.RectSize != [2]uint32{17, 1} {
		t.Errorf("params = %+v", d.Params)
	}
}

func TestPaddingDegenerate(t *testing.T) {
	p := newPadding(t)
	rec := recording.NewRecorder("pad")
	tex := gpucore.TextureBinding{Texture: 1}
	errs := []error{
		p.PadTopRow(rec, tex, 0, 4),
		p.PadTopRow(rec, tex, 4, 0),
		p.PadRightCol(rec, tex, 0, 4),
		p.PadTopRight(rec, tex, 3, 0),
	}
	for i, err := range errs {
		if !errors.Is(err, ErrDegenerateRect) {
			t.Errorf("call %d: err = %v, want ErrDegenerateRect", i, err)
		}
	}
	if rec.Len() != 0 {
		t.Errorf("recorded %d commands", rec.Len())
	}
	if _, err := NewTexturePadding(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("nil device: err = %v", err)
	}
}

func TestSampleCopyChannel(t *testing.T) {
	dev := software.New(software.WithWorkers(1))
	defer dev.Close()
	c, err := NewGPUCopy(dev)
	if err != nil {
		t.Fatal(err)
	}
	rec := recording.NewRecorder("copy")
	src := gpucore.TextureBinding{Texture: 1}
	dst := gpucore.TextureBinding{Texture: 2}
	if err := c.SampleCopyChannelXYZW2X(rec, src, dst, Size{20, 9}); err != nil {
		t.Fatal(err)
	}
	d := rec.Finish().Dispatches()[0]
	if d.Groups != [3]uint32{3, 2, 1} {
		t.Errorf("groups = %v", d.Groups)
	}
	if err := c.SampleCopyChannelXYZW2X(rec, src, dst, Size{0, 9}); !errors.Is(err, ErrDegenerateRect) {
		t.Errorf("empty viewport: err = %v", err)
	}
}
