// Package clip assigns stable identity to animation clips.
//
// Every clip carved out of a source animation receives a process-unique
// custom id at creation time. The id survives cloning and descriptor
// round-trips, which is what lets two duplicates of the same logical clip
// compare equal while two different clips that happen to share a source name
// never do. Display names are only for humans: the library disambiguates
// collisions with a counter suffix and never uses them for identity.
//
// The Library is the active set of clips for one session. Treat it as the
// single source of truth for clip references; resolving an id that has been
// deleted fails with engine.ErrClipNotFound.
package clip
