// Package playback drives per-model animation playback independent of the
// renderer.
//
// A Controller wraps a single active clip for one model and owns that model's
// playback state: play, pause, seek, loop mode, and local time. The renderer
// is reached only through the Primitive contract, so the controller never
// touches render objects directly and a model can never end up with two live
// clip bindings. Binding is atomic: a rejected bind leaves the controller in
// the state it was in before the call.
//
// Tick is the per-frame entry point. It returns the time interval actually
// applied so the caller can evaluate triggers against the real advance rather
// than a stale cached delta.
package playback
