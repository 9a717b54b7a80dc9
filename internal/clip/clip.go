package clip

import (
	"fmt"

	"playhead/internal/engine"
)

// Ref is an immutable reference to a frame-bounded sub-range of a source
// animation. The zero value is not a valid Ref; obtain one from a Library.
type Ref struct {
	CustomID     string
	DisplayName  string
	OriginalName string
	StartFrame   int
	EndFrame     int
	FPS          int
}

// DurationSeconds returns the clip length derived from its frame span.
func (r *Ref) DurationSeconds() float64 {
	if r == nil || r.FPS <= 0 {
		return 0
	}
	return float64(r.EndFrame-r.StartFrame) / float64(r.FPS)
}

// FrameCount returns the number of frames spanned by the clip.
func (r *Ref) FrameCount() int {
	if r == nil {
		return 0
	}
	return r.EndFrame - r.StartFrame
}

// Clone returns a copy of the reference. The custom id is preserved so the
// copy still identifies the same logical clip.
func (r *Ref) Clone() *Ref {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// Same reports whether two references identify the same logical clip.
// Comparison is by custom id only, never by name or pointer identity.
func Same(a, b *Ref) bool {
	if a == nil || b == nil {
		return false
	}
	return a.CustomID == b.CustomID
}

func validateSpan(startFrame, endFrame, fps int) error {
	if startFrame < 0 {
		return engine.Wrap(nil, "clip", "create", fmt.Sprintf("start frame %d is negative", startFrame), nil)
	}
	if endFrame <= startFrame {
		return engine.Wrap(nil, "clip", "create", fmt.Sprintf("end frame %d must exceed start frame %d", endFrame, startFrame), nil)
	}
	if fps <= 0 {
		return engine.Wrap(nil, "clip", "create", fmt.Sprintf("fps %d must be positive", fps), nil)
	}
	return nil
}
