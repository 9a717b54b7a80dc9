package clip

// Descriptor is the JSON-exchange form of a clip reference. It round-trips
// exactly: duration is persisted even though it is derivable, because the
// original schema carries it.
type Descriptor struct {
	CustomID     string  `json:"customId"`
	DisplayName  string  `json:"displayName"`
	OriginalName string  `json:"originalName"`
	StartFrame   int     `json:"startFrame"`
	EndFrame     int     `json:"endFrame"`
	Duration     float64 `json:"duration"`
	FPS          int     `json:"fps"`
}

// ToDescriptor converts a reference to its exchange form.
func (r *Ref) ToDescriptor() Descriptor {
	return Descriptor{
		CustomID:     r.CustomID,
		DisplayName:  r.DisplayName,
		OriginalName: r.OriginalName,
		StartFrame:   r.StartFrame,
		EndFrame:     r.EndFrame,
		Duration:     r.DurationSeconds(),
		FPS:          r.FPS,
	}
}

// FromDescriptor converts an exchange form back into a reference.
func FromDescriptor(d Descriptor) *Ref {
	return &Ref{
		CustomID:     d.CustomID,
		DisplayName:  d.DisplayName,
		OriginalName: d.OriginalName,
		StartFrame:   d.StartFrame,
		EndFrame:     d.EndFrame,
		FPS:          d.FPS,
	}
}
