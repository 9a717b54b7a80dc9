// Package session reconciles the engine's independent time sources into one
// consistent answer to "what should be playing right now".
//
// A session owns one playback controller per registered model and enforces
// the single-writer rule for local time: a model is driven either by
// free-play control or by the director timeline, never both. Switching is an
// explicit detach/attach; granting a second authority without detaching fails
// with engine.ErrBindingConflict.
//
// Tick is the per-frame entry point and fixes the intra-tick order: time
// advances first, triggers are evaluated against the interval actually
// applied, observers are notified, and only then does control return to the
// renderer for the pose read. Rebinding or seeking cancels trigger
// bookkeeping tied to the old position, so scrubbing never replays stale
// events.
package session
