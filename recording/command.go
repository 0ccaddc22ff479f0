package recording

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdDispatch     CommandType = iota // Compute dispatch
	CmdCopyTexture                     // Unfiltered region copy
	CmdBlit                            // Bilinear resample
	CmdClearTexture                    // Clear all mips to zero
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdDispatch:     "Dispatch",
	CmdCopyTexture:  "CopyTexture",
	CmdBlit:         "Blit",
	CmdClearTexture: "ClearTexture",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// DispatchCommand records a compute dispatch.
type DispatchCommand struct {
	gpucore.DispatchDesc
}

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

// Threads returns the total number of workgroups.
func (c DispatchCommand) Threads() uint64 {
	return uint64(c.Groups[0]) * uint64(c.Groups[1]) * uint64(c.Groups[2])
}

// String describes the dispatch.
func (c DispatchCommand) String() string {
	return fmt.Sprintf("dispatch %s kernel=%d src=%d/%d dst=%d/%d offset=%v size=%v groups=%v",
		c.Label, c.Kernel, c.Source.Texture, c.Source.Mip, c.Result.Texture, c.Result.Mip,
		c.Params.RectOffset, c.Params.RectSize, c.Groups)
}

// CopyTextureCommand records a region copy.
type CopyTextureCommand struct {
	gpucore.TextureCopy
}

// Type implements Command.
func (CopyTextureCommand) Type() CommandType { return CmdCopyTexture }

// String describes the copy.
func (c CopyTextureCommand) String() string {
	return fmt.Sprintf("copy %d/%d -> %d/%d %dx%d",
		c.Src.Texture, c.Src.Mip, c.Dst.Texture, c.Dst.Mip, c.Width, c.Height)
}

// BlitCommand records a bilinear resample.
type BlitCommand struct {
	gpucore.BlitDesc
}

// Type implements Command.
func (BlitCommand) Type() CommandType { return CmdBlit }

// String describes the blit.
func (c BlitCommand) String() string {
	return fmt.Sprintf("blit %d/%d -> %d/%d %dx%d",
		c.Src.Texture, c.Src.Mip, c.Dst.Texture, c.Dst.Mip, c.Width, c.Height)
}

// ClearTextureCommand records clearing a texture.
type ClearTextureCommand struct {
	Texture gpucore.TextureID
}

// Type implements Command.
func (ClearTextureCommand) Type() CommandType { return CmdClearTexture }

// String describes the clear.
func (c ClearTextureCommand) String() string {
	return fmt.Sprintf("clear %d", c.Texture)
}
