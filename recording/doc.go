// Package recording captures pyramid GPU work as a typed command stream.
//
// A [Recorder] implements gpucore.CommandEncoder by appending commands
// instead of executing them. [Recorder.Finish] returns an immutable
// [Recording] that can be inspected (the plan tool and tests do this) or
// replayed in order into any other encoder with [Recording.Playback].
//
// # Example
//
//	rec := recording.NewRecorder("frame")
//	if err := bp.RenderDepthPyramid(rec, vp, depthTex); err != nil {
//	    return err
//	}
//	r := rec.Finish()
//	fmt.Println(r.Count(recording.CmdDispatch), "dispatches")
//
//	enc, _ := dev.CreateCommandEncoder("frame")
//	if err := r.Playback(enc); err != nil {
//	    return err
//	}
//	err = dev.Submit(enc)
package recording
