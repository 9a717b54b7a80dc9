package playback

import "playhead/internal/clip"

// Primitive is the narrow contract to the rendering/animation collaborator.
// The engine issues commands through it and never touches the renderer's
// object graph. SetClip with a nil reference releases the current binding.
type Primitive interface {
	SetClip(ref *clip.Ref) error
	Advance(deltaSeconds float64)
	SetLocalTime(t float64)
	Dispose()
}

// PrimitiveFactory creates the playback primitive for a model handle. One
// primitive exists per live model; the controller disposes it when the model
// is released.
type PrimitiveFactory interface {
	CreatePrimitive(modelID string) (Primitive, error)
}
