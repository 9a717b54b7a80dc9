package session

import (
	"errors"
	"math"
	"testing"

	"playhead/internal/clip"
	"playhead/internal/director"
	"playhead/internal/engine"
	"playhead/internal/logging"
	"playhead/internal/playback"
	"playhead/internal/trigger"
)

type stubPrimitive struct {
	local    float64
	disposed bool
}

func (p *stubPrimitive) SetClip(ref *clip.Ref) error { return nil }
func (p *stubPrimitive) Advance(delta float64)       { p.local += delta }
func (p *stubPrimitive) SetLocalTime(t float64)      { p.local = t }
func (p *stubPrimitive) Dispose()                    { p.disposed = true }

type stubFactory struct {
	created map[string]*stubPrimitive
}

func newStubFactory() *stubFactory {
	return &stubFactory{created: make(map[string]*stubPrimitive)}
}

func (f *stubFactory) CreatePrimitive(modelID string) (playback.Primitive, error) {
	prim := &stubPrimitive{}
	f.created[modelID] = prim
	return prim, nil
}

func newTestSession(t *testing.T) (*Session, *clip.Library) {
	t.Helper()
	library := clip.NewLibrary()
	sess, err := New(library, newStubFactory(), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sess, library
}

func TestAttachRejectsSecondAuthority(t *testing.T) {
	sess, _ := newTestSession(t)
	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	if err := sess.AttachFreePlay("avatar"); err != nil {
		t.Fatalf("AttachFreePlay: %v", err)
	}
	err := sess.AttachDirector("avatar")
	if !errors.Is(err, engine.ErrBindingConflict) {
		t.Fatalf("AttachDirector while free-play owns the model: got %v, want ErrBindingConflict", err)
	}

	if err := sess.Detach("avatar"); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if err := sess.AttachDirector("avatar"); err != nil {
		t.Fatalf("AttachDirector after detach: %v", err)
	}
	mode, err := sess.Mode("avatar")
	if err != nil {
		t.Fatalf("Mode: %v", err)
	}
	if mode != ModeDirector {
		t.Fatalf("mode = %s, want %s", mode, ModeDirector)
	}
}

func TestFreePlayOperationsRequireAuthority(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	if err := sess.Bind("avatar", ref); !errors.Is(err, engine.ErrBindingConflict) {
		t.Fatalf("Bind on detached model: got %v, want ErrBindingConflict", err)
	}

	if err := sess.AttachDirector("avatar"); err != nil {
		t.Fatalf("AttachDirector: %v", err)
	}
	if err := sess.Play("avatar"); !errors.Is(err, engine.ErrBindingConflict) {
		t.Fatalf("Play on director-owned model: got %v, want ErrBindingConflict", err)
	}
}

func TestTickDeliversTriggerOnCrossing(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tr, err := sess.AddTrigger(ref.CustomID, 45)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachFreePlay("avatar"); err != nil {
		t.Fatalf("AttachFreePlay: %v", err)
	}
	if err := sess.Bind("avatar", ref); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := sess.Play("avatar"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	var observed []trigger.Trigger
	sess.SetOnTriggersFired(func(due []trigger.Trigger) {
		observed = append(observed, due...)
	})

	firedAt := 0
	for tick := 1; tick <= 120; tick++ {
		due := sess.Tick(1.0 / 60.0)
		if len(due) > 0 && firedAt == 0 {
			firedAt = tick
		}
	}
	if firedAt != 46 {
		t.Fatalf("trigger fired on tick %d, want 46", firedAt)
	}
	if len(observed) != 1 || observed[0].ID != tr.ID {
		t.Fatalf("observer saw %v, want exactly trigger %s", observed, tr.ID)
	}
}

func TestSeekRearmsTriggers(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sess.AddTrigger(ref.CustomID, 10); err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachFreePlay("avatar"); err != nil {
		t.Fatalf("AttachFreePlay: %v", err)
	}
	if err := sess.Bind("avatar", ref); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := sess.Play("avatar"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	fired := 0
	run := func(ticks int) {
		for i := 0; i < ticks; i++ {
			fired += len(sess.Tick(1.0 / 60.0))
		}
	}

	run(30)
	if fired != 1 {
		t.Fatalf("first pass fired %d triggers, want 1", fired)
	}

	// Scrub back: nothing fires, but a later forward pass delivers again.
	if err := sess.Seek("avatar", 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := sess.Play("avatar"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	run(30)
	if fired != 2 {
		t.Fatalf("after seek-back pass fired %d triggers total, want 2", fired)
	}
}

func TestExternalRebindRearmsBookkeeping(t *testing.T) {
	sess, library := newTestSession(t)
	first, err := library.Create("walk", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := library.Create("wave", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sess.AddTrigger(second.CustomID, 0); err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	ctrl, err := sess.RegisterModel("avatar")
	if err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachFreePlay("avatar"); err != nil {
		t.Fatalf("AttachFreePlay: %v", err)
	}
	if err := sess.Bind("avatar", first); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := sess.Play("avatar"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	sess.Tick(1.0 / 60.0)

	// A sequencer auto-advance rebinds through the controller directly; the
	// next tick must pick up the new clip's triggers.
	if err := ctrl.Bind(second); err != nil {
		t.Fatalf("controller Bind: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("controller Play: %v", err)
	}

	fired := 0
	for i := 0; i < 3; i++ {
		fired += len(sess.Tick(1.0 / 60.0))
	}
	if fired != 1 {
		t.Fatalf("fired %d triggers after rebind, want 1", fired)
	}
}

func TestDirectorDrivesLocalTime(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 60, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sess.AddTrigger(ref.CustomID, 10); err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	ctrl, err := sess.RegisterModel("avatar")
	if err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachDirector("avatar"); err != nil {
		t.Fatalf("AttachDirector: %v", err)
	}

	tl, err := director.NewTimeline(30, library, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	track := tl.AddTrack("Main")
	if _, err := tl.AddPlacement(track.ID, director.PlacementSpec{
		SourceModelID: "avatar",
		SourceClipID:  ref.CustomID,
		StartFrame:    0,
		EndFrame:      60,
		TrimStart:     0,
		TrimEnd:       60,
		Speed:         1,
	}); err != nil {
		t.Fatalf("AddPlacement: %v", err)
	}
	sess.SetTimeline(tl)

	if err := sess.DirectorPlay(); err != nil {
		t.Fatalf("DirectorPlay: %v", err)
	}

	firedAt := 0
	for tick := 1; tick <= 30; tick++ {
		if len(sess.Tick(1.0/30.0)) > 0 && firedAt == 0 {
			firedAt = tick
		}
	}
	if firedAt != 11 {
		t.Fatalf("trigger fired on tick %d, want 11", firedAt)
	}

	wantFrame := 30.0
	if got := sess.DirectorFrame(); math.Abs(got-wantFrame) > 1e-6 {
		t.Fatalf("director frame = %v, want %v", got, wantFrame)
	}
	wantLocal := wantFrame / 30.0
	if got := ctrl.LocalTime(); math.Abs(got-wantLocal) > 1e-6 {
		t.Fatalf("model local time = %v, want %v", got, wantLocal)
	}
}

func TestDirectorSeekRestartsBookkeeping(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 60, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sess.AddTrigger(ref.CustomID, 5); err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}
	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachDirector("avatar"); err != nil {
		t.Fatalf("AttachDirector: %v", err)
	}

	tl, err := director.NewTimeline(30, library, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	track := tl.AddTrack("Main")
	if _, err := tl.AddPlacement(track.ID, director.PlacementSpec{
		SourceModelID: "avatar",
		SourceClipID:  ref.CustomID,
		StartFrame:    0,
		EndFrame:      60,
		TrimStart:     0,
		TrimEnd:       60,
		Speed:         1,
	}); err != nil {
		t.Fatalf("AddPlacement: %v", err)
	}
	sess.SetTimeline(tl)
	if err := sess.DirectorPlay(); err != nil {
		t.Fatalf("DirectorPlay: %v", err)
	}

	fired := 0
	run := func(ticks int) {
		for i := 0; i < ticks; i++ {
			fired += len(sess.Tick(1.0 / 30.0))
		}
	}

	run(15)
	if fired != 1 {
		t.Fatalf("first pass fired %d, want 1", fired)
	}

	if err := sess.DirectorSeek(0); err != nil {
		t.Fatalf("DirectorSeek: %v", err)
	}
	run(15)
	if fired != 2 {
		t.Fatalf("after seek fired %d total, want 2", fired)
	}
}

func TestDirectorTrimmedLoopConfinesTriggers(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 90, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	inside, err := sess.AddTrigger(ref.CustomID, 10)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}
	outside, err := sess.AddTrigger(ref.CustomID, 60)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachDirector("avatar"); err != nil {
		t.Fatalf("AttachDirector: %v", err)
	}

	tl, err := director.NewTimeline(30, library, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	track := tl.AddTrack("Main")
	if _, err := tl.AddPlacement(track.ID, director.PlacementSpec{
		SourceModelID: "avatar",
		SourceClipID:  ref.CustomID,
		StartFrame:    0,
		EndFrame:      90,
		TrimStart:     0,
		TrimEnd:       30,
		Speed:         1,
		Loop:          true,
	}); err != nil {
		t.Fatalf("AddPlacement: %v", err)
	}
	sess.SetTimeline(tl)
	if err := sess.DirectorPlay(); err != nil {
		t.Fatalf("DirectorPlay: %v", err)
	}

	fired := map[string]int{}
	for tick := 1; tick <= 90; tick++ {
		for _, tr := range sess.Tick(1.0 / 30.0) {
			fired[tr.ID]++
		}
	}
	if fired[outside.ID] != 0 {
		t.Fatalf("trigger past the trim fired %d times; the trimmed loop never plays it", fired[outside.ID])
	}
	if fired[inside.ID] != 3 {
		t.Fatalf("trimmed-loop trigger fired %d times over three laps, want 3", fired[inside.ID])
	}
}

func TestDirectorPlacementExitFiresFinalFrameTrigger(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 60, 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	last, err := sess.AddTrigger(ref.CustomID, 59)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachDirector("avatar"); err != nil {
		t.Fatalf("AttachDirector: %v", err)
	}

	tl, err := director.NewTimeline(30, library, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	track := tl.AddTrack("Main")
	if _, err := tl.AddPlacement(track.ID, director.PlacementSpec{
		SourceModelID: "avatar",
		SourceClipID:  ref.CustomID,
		StartFrame:    0,
		EndFrame:      60,
		TrimStart:     0,
		TrimEnd:       60,
		Speed:         1,
	}); err != nil {
		t.Fatalf("AddPlacement: %v", err)
	}
	sess.SetTimeline(tl)
	if err := sess.DirectorPlay(); err != nil {
		t.Fatalf("DirectorPlay: %v", err)
	}

	fired := 0
	firedAt := 0
	for tick := 1; tick <= 90; tick++ {
		for _, tr := range sess.Tick(1.0 / 30.0) {
			if tr.ID == last.ID {
				fired++
				firedAt = tick
			}
		}
	}
	if fired != 1 {
		t.Fatalf("final-frame trigger fired %d times, want 1", fired)
	}
	if firedAt != 60 {
		t.Fatalf("final-frame trigger fired on tick %d, want 60", firedAt)
	}
}

func TestTickDeliversTriggersInRegistrationOrder(t *testing.T) {
	sess, library := newTestSession(t)
	first, err := library.Create("walk", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := library.Create("wave", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	trA, err := sess.AddTrigger(first.CustomID, 0)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}
	trB, err := sess.AddTrigger(second.CustomID, 0)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	setup := func(modelID string, ref *clip.Ref) {
		if _, err := sess.RegisterModel(modelID); err != nil {
			t.Fatalf("RegisterModel: %v", err)
		}
		if err := sess.AttachFreePlay(modelID); err != nil {
			t.Fatalf("AttachFreePlay: %v", err)
		}
		if err := sess.Bind(modelID, ref); err != nil {
			t.Fatalf("Bind: %v", err)
		}
		if err := sess.Play(modelID); err != nil {
			t.Fatalf("Play: %v", err)
		}
	}
	setup("a", first)
	setup("b", second)

	due := sess.Tick(1.0 / 60.0)
	if len(due) != 2 {
		t.Fatalf("expected both frame-0 triggers due, got %d", len(due))
	}
	if due[0].ID != trA.ID || due[1].ID != trB.ID {
		t.Fatalf("delivery order [%s, %s] does not follow registration order [%s, %s]",
			due[0].ID, due[1].ID, trA.ID, trB.ID)
	}
}

func TestRemoveTriggerRefreshesArmedSet(t *testing.T) {
	sess, library := newTestSession(t)
	ref, err := library.Create("walk", 0, 120, 60)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tr, err := sess.AddTrigger(ref.CustomID, 30)
	if err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}

	if _, err := sess.RegisterModel("avatar"); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}
	if err := sess.AttachFreePlay("avatar"); err != nil {
		t.Fatalf("AttachFreePlay: %v", err)
	}
	if err := sess.Bind("avatar", ref); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := sess.Play("avatar"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if err := sess.RemoveTrigger(tr.ID); err != nil {
		t.Fatalf("RemoveTrigger: %v", err)
	}
	for i := 0; i < 60; i++ {
		if due := sess.Tick(1.0 / 60.0); len(due) > 0 {
			t.Fatalf("removed trigger still fired: %v", due)
		}
	}
	if got := sess.TriggersFor(ref.CustomID); len(got) != 0 {
		t.Fatalf("TriggersFor returned %d entries after removal", len(got))
	}
}
