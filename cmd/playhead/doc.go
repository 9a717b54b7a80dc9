// Command playhead is the CLI for inspecting and exercising playhead
// projects: showing their contents, validating them, importing and exporting
// the project store, and running headless simulations of playback and
// trigger firing.
package main
