package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/pyramid/gpucore"
)

// stubDevice is a minimal gpucore.Device for registry tests.
type stubDevice struct {
	gpucore.Device
	name string
}

func TestRegistryOpen(t *testing.T) {
	Register("stub", func() (gpucore.Device, error) { return &stubDevice{name: "stub"}, nil })
	t.Cleanup(func() { Unregister("stub") })

	dev, err := Open("stub")
	if err != nil {
		t.Fatal(err)
	}
	if dev.(*stubDevice).name != "stub" {
		t.Errorf("Open returned %+v", dev)
	}

	if _, err := Open("missing"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) = %v, want ErrBackendNotAvailable", err)
	}

	found := false
	for _, n := range Available() {
		if n == "stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing stub", Available())
	}
}

func TestDefaultFallsBack(t *testing.T) {
	boom := errors.New("no adapter")
	Register(Native, func() (gpucore.Device, error) { return nil, boom })
	Register(Software, func() (gpucore.Device, error) { return &stubDevice{name: Software}, nil })
	t.Cleanup(func() {
		Unregister(Native)
		Unregister(Software)
	})

	dev, name, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if name != Software || dev.(*stubDevice).name != Software {
		t.Errorf("Default() = %q, want %q", name, Software)
	}
}

func TestDefaultAllFail(t *testing.T) {
	boom := errors.New("no adapter")
	Register(Native, func() (gpucore.Device, error) { return nil, boom })
	t.Cleanup(func() { Unregister(Native) })

	_, _, err := Default()
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, boom) {
		t.Errorf("Default() error = %v, want both sentinel and cause", err)
	}
}

type closingDevice struct {
	gpucore.Device
	closed int
}

func (d *closingDevice) Close() { d.closed++ }

func TestClose(t *testing.T) {
	d := &closingDevice{}
	Close(d)
	if d.closed != 1 {
		t.Errorf("Close called %d times, want 1", d.closed)
	}
	// devices without Close and nil devices are ignored
	Close(&stubDevice{})
	Close(nil)
}
