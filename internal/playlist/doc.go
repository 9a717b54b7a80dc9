// Package playlist plays an ordered queue of clips back-to-back on one model.
//
// The queue itself is treated as a value: every mutation builds a fresh slice
// and swaps it in, which keeps undo/redo on top of the sequencer trivial. The
// cursor tracks the current clip by custom id, not by index, so reordering
// while playing never disturbs what is audible.
//
// Auto-advance rides the playback controller's finish callback. A manual clip
// selection from outside the queue suspends auto-advance without clearing the
// queue; playlist playback can resume later from the index it had reached.
package playlist
