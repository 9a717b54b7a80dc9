// Package trigger decides which frame-indexed triggers fire as a playhead
// advances through a clip.
//
// Firing is edge-triggered: a trigger fires when the playhead's frame index
// crosses the trigger's frame during a forward advance, exactly once per lap.
// Evaluating the same advance twice, or querying without advancing time, never
// re-fires a trigger already delivered. Loop wraps split the advance into the
// tail of the finishing lap and the head of the new one; backward seeks fire
// nothing and instead re-arm every trigger past the new position so a later
// forward pass delivers them again.
//
// All times are clip-local seconds; conversion to frames happens here, once,
// so every caller shares the same rounding rule.
package trigger
