// Package logging constructs the slog loggers used across the engine.
//
// Two output formats exist: "console", a compact single-line format for
// humans, and "json" for machine consumption. Components receive a logger at
// construction and attach a "component" attribute; the console handler lifts
// that attribute into the message prefix.
//
// NewNop returns a logger that discards everything; tests use it so engine
// components never need nil checks.
package logging
