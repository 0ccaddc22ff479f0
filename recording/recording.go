package recording

import (
	"fmt"
	"strings"

	"github.com/gogpu/pyramid/gpucore"
)

// Recording is an immutable command stream produced by Recorder.Finish.
type Recording struct {
	label    string
	commands []Command
}

// Label returns the recorder label.
func (r *Recording) Label() string { return r.label }

// Commands returns the recorded commands in order. The slice must not be modified.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Count returns the number of commands of type t.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Dispatches returns every dispatch in order.
func (r *Recording) Dispatches() []DispatchCommand {
	var out []DispatchCommand
	for _, c := range r.commands {
		if d, ok := c.(DispatchCommand); ok {
			out = append(out, d)
		}
	}
	return out
}

// Copies returns every texture copy in order.
func (r *Recording) Copies() []CopyTextureCommand {
	var out []CopyTextureCommand
	for _, c := range r.commands {
		if cp, ok := c.(CopyTextureCommand); ok {
			out = append(out, cp)
		}
	}
	return out
}

// Playback replays the recording into enc in order. It stops at the
// first command enc rejects.
func (r *Recording) Playback(enc gpucore.CommandEncoder) error {
	for i, cmd := range r.commands {
		var err error
		switch c := cmd.(type) {
		case DispatchCommand:
			d := c.DispatchDesc
			err = enc.Dispatch(&d)
		case CopyTextureCommand:
			cp := c.TextureCopy
			err = enc.CopyTexture(&cp)
		case BlitCommand:
			b := c.BlitDesc
			err = enc.Blit(&b)
		case ClearTextureCommand:
			err = enc.ClearTexture(c.Texture)
		default:
			err = fmt.Errorf("unknown command %T", cmd)
		}
		if err != nil {
			return fmt.Errorf("playback %s command %d (%s): %w", r.label, i, cmd.Type(), err)
		}
	}
	return nil
}

// String lists the commands, one per line.
func (r *Recording) String() string {
	var sb strings.Builder
	for i, c := range r.commands {
		fmt.Fprintf(&sb, "%3d %v\n", i, c)
	}
	return sb.String()
}
