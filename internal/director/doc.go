// Package director sequences clips from any model across a global,
// frame-indexed, multi-track timeline.
//
// Each track holds non-overlapping placements; a placement positions a clip
// on the global axis with trim, speed, loop, and blend metadata. The hard
// invariant is reconciliation: a placement's trimmed local span divided by
// its speed must equal its global span, and the timeline enforces this when a
// placement is created or edited, not just at playback time. Violating edits
// are rejected with engine.ErrInvalidPlacement and leave the timeline
// untouched.
//
// For any global time the timeline computes the active placement per track
// and its clip-local playback time; looping wraps local time within the
// placement's own span only. Blend weights are advisory: the engine reports
// them, the renderer composites.
package director
