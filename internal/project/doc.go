// Package project persists engine state between sessions.
//
// A project is the serializable snapshot of one editing session: the clip
// library, registered triggers, the playlist order, and the director
// timeline. Two storage forms exist. The JSON document is the exchange
// format: a single self-contained file that round-trips every descriptor
// exactly. The SQLite store is the workspace catalog: it holds many named
// projects and supports listing and partial queries without parsing
// documents.
//
// Document writes are atomic (temp file plus rename) and guarded by an
// advisory file lock, so a crashed writer never leaves a half-written
// project behind.
package project
