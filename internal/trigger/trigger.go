package trigger

import (
	"fmt"

	"github.com/google/uuid"

	"playhead/internal/clip"
	"playhead/internal/engine"
)

// Trigger is a frame-indexed request to fire an external effect while the
// referenced clip plays. Frame is relative to the clip's own start.
type Trigger struct {
	ID     string `json:"id"`
	ClipID string `json:"clipId"`
	Frame  int    `json:"frame"`
}

// New allocates a trigger against a clip after validating the frame lies
// within the clip's span.
func New(ref *clip.Ref, frame int) (Trigger, error) {
	tr := Trigger{ID: uuid.NewString(), ClipID: refID(ref), Frame: frame}
	if err := Validate(tr, ref); err != nil {
		return Trigger{}, err
	}
	return tr, nil
}

// Validate checks a trigger's frame against the referenced clip. Frames may
// sit anywhere in [0, frameCount]; the final frame is the loop boundary and
// is legal.
func Validate(tr Trigger, ref *clip.Ref) error {
	if ref == nil {
		return engine.Wrap(engine.ErrClipNotFound, "trigger", "validate", fmt.Sprintf("trigger %s has no clip", tr.ID), nil)
	}
	if tr.ClipID != ref.CustomID {
		return engine.Wrap(engine.ErrClipNotFound, "trigger", "validate",
			fmt.Sprintf("trigger %s references clip %s, not %s", tr.ID, tr.ClipID, ref.CustomID), nil)
	}
	if tr.Frame < 0 || tr.Frame > ref.FrameCount() {
		return engine.Wrap(engine.ErrInvalidTriggerFrame, "trigger", "validate",
			fmt.Sprintf("frame %d outside [0, %d]", tr.Frame, ref.FrameCount()), nil)
	}
	return nil
}

func refID(ref *clip.Ref) string {
	if ref == nil {
		return ""
	}
	return ref.CustomID
}
