// Package engine defines the shared error taxonomy for the playback core.
//
// Every mutating operation in the clip library, trigger scheduler, playback
// controller, playlist sequencer, and director timeline fails with one of the
// sentinel errors exported here, wrapped with component and operation context.
// Failures are recoverable and local: an operation that returns an error has
// left the data model exactly as it was before the attempt.
//
// Callers classify failures with errors.Is against the sentinels, or with
// Kind when they only need a user-facing category.
package engine
