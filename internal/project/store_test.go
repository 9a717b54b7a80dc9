package project_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"playhead/internal/clip"
	"playhead/internal/director"
	"playhead/internal/logging"
	"playhead/internal/project"
	"playhead/internal/trigger"
)

func buildDocument(t *testing.T) *project.Document {
	t.Helper()
	library := clip.NewLibrary()
	walk, err := library.Create("walk", 0, 60, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	wave, err := library.Create("wave", 0, 90, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tr, err := trigger.New(walk, 10)
	if err != nil {
		t.Fatalf("trigger.New: %v", err)
	}

	tl, err := director.NewTimeline(30, library, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	track := tl.AddTrack("Main")
	if _, err := tl.AddPlacement(track.ID, director.PlacementSpec{
		SourceModelID: "avatar",
		SourceClipID:  walk.CustomID,
		StartFrame:    0,
		EndFrame:      60,
		TrimStart:     0,
		TrimEnd:       60,
		Speed:         1,
	}); err != nil {
		t.Fatalf("AddPlacement: %v", err)
	}
	desc := tl.ToDescriptor()

	return &project.Document{
		Name:     "demo",
		Clips:    []clip.Descriptor{walk.ToDescriptor(), wave.ToDescriptor()},
		Triggers: []trigger.Trigger{tr},
		Playlist: []string{walk.CustomID, wave.CustomID},
		Timeline: &desc,
	}
}

func TestDocumentFileRoundTrip(t *testing.T) {
	doc := buildDocument(t)
	path := filepath.Join(t.TempDir(), "demo.json")

	if err := project.WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := project.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(doc, loaded) {
		t.Fatalf("document changed across round trip:\nwrote %+v\nread  %+v", doc, loaded)
	}
}

func TestDocumentValidateRejectsDanglingReferences(t *testing.T) {
	doc := buildDocument(t)
	doc.Triggers[0].ClipID = "missing"
	if err := doc.Validate(); err == nil {
		t.Fatal("expected validation failure for dangling trigger clip")
	}

	doc = buildDocument(t)
	doc.Playlist = append(doc.Playlist, "missing")
	if err := doc.Validate(); err == nil {
		t.Fatal("expected validation failure for dangling playlist entry")
	}
}

func TestDocumentMaterialize(t *testing.T) {
	doc := buildDocument(t)
	library, timeline, err := doc.Materialize(logging.NewNop())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if library.Len() != 2 {
		t.Fatalf("library has %d clips, want 2", library.Len())
	}
	if timeline == nil {
		t.Fatal("expected a timeline")
	}
	if timeline.TotalFrames() != 60 {
		t.Fatalf("timeline spans %d frames, want 60", timeline.TotalFrames())
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := project.OpenStore(filepath.Join(t.TempDir(), "playhead.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	doc := buildDocument(t)
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "demo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored project")
	}
	if !reflect.DeepEqual(doc, loaded) {
		t.Fatalf("document changed across store round trip:\nsaved  %+v\nloaded %+v", doc, loaded)
	}

	missing, err := store.Load(ctx, "absent")
	if err != nil {
		t.Fatalf("Load absent: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent project, got %+v", missing)
	}
}

func TestStoreSaveReplacesPreviousVersion(t *testing.T) {
	store, err := project.OpenStore(filepath.Join(t.TempDir(), "playhead.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	doc := buildDocument(t)
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	doc.Triggers = nil
	doc.Playlist = doc.Playlist[:1]
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := store.Load(ctx, "demo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Triggers) != 0 {
		t.Fatalf("expected triggers cleared, got %d", len(loaded.Triggers))
	}
	if len(loaded.Playlist) != 1 {
		t.Fatalf("expected one playlist entry, got %d", len(loaded.Playlist))
	}
}

func TestStoreListAndDelete(t *testing.T) {
	store, err := project.OpenStore(filepath.Join(t.TempDir(), "playhead.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	doc := buildDocument(t)
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	summaries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one project, got %d", len(summaries))
	}
	got := summaries[0]
	if got.Name != "demo" || got.Clips != 2 || got.Triggers != 1 || got.Playlist != 2 || !got.Timeline {
		t.Fatalf("unexpected summary: %+v", got)
	}

	removed, err := store.Delete(ctx, "demo")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Fatal("expected Delete to report removal")
	}
	removed, err = store.Delete(ctx, "demo")
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if removed {
		t.Fatal("expected second Delete to be a no-op")
	}
}
