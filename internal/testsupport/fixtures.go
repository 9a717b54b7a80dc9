package testsupport

import (
	"testing"

	"playhead/internal/clip"
)

// MustCreateClip registers a clip in the library, failing the test on error.
func MustCreateClip(t testing.TB, library *clip.Library, name string, frames, fps int) *clip.Ref {
	t.Helper()

	ref, err := library.Create(name, 0, frames, fps)
	if err != nil {
		t.Fatalf("library.Create %s: %v", name, err)
	}
	return ref
}

// NewLibrary builds a library preloaded with a few clips that cover the
// common fixtures: a short walk cycle, a longer wave, and an idle loop.
func NewLibrary(t testing.TB) *clip.Library {
	t.Helper()

	library := clip.NewLibrary()
	MustCreateClip(t, library, "walk", 60, 30)
	MustCreateClip(t, library, "wave", 90, 30)
	MustCreateClip(t, library, "idle", 120, 30)
	return library
}
