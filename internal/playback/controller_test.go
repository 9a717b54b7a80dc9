package playback_test

import (
	"errors"
	"math"
	"testing"

	"playhead/internal/clip"
	"playhead/internal/engine"
	"playhead/internal/logging"
	"playhead/internal/playback"
)

type fakePrimitive struct {
	clipID    string
	setClips  int
	advances  int
	localSets []float64
	disposed  bool
}

func (p *fakePrimitive) SetClip(ref *clip.Ref) error {
	p.setClips++
	if ref == nil {
		p.clipID = ""
		return nil
	}
	p.clipID = ref.CustomID
	return nil
}

func (p *fakePrimitive) Advance(delta float64) { p.advances++ }

func (p *fakePrimitive) SetLocalTime(t float64) { p.localSets = append(p.localSets, t) }

func (p *fakePrimitive) Dispose() { p.disposed = true }

type fakeFactory struct {
	prims map[string]*fakePrimitive
	err   error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{prims: make(map[string]*fakePrimitive)}
}

func (f *fakeFactory) CreatePrimitive(modelID string) (playback.Primitive, error) {
	if f.err != nil {
		return nil, f.err
	}
	prim := &fakePrimitive{}
	f.prims[modelID] = prim
	return prim, nil
}

func newController(t *testing.T) (*playback.Controller, *clip.Library, *fakeFactory) {
	t.Helper()
	lib := clip.NewLibrary()
	factory := newFakeFactory()
	ctrl, err := playback.NewController("model-1", lib, factory, logging.NewNop())
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return ctrl, lib, factory
}

func mustClip(t *testing.T, lib *clip.Library, name string, frames int) *clip.Ref {
	t.Helper()
	ref, err := lib.Create(name, 0, frames, 30)
	if err != nil {
		t.Fatalf("Create clip failed: %v", err)
	}
	return ref
}

func TestBindRejectsNilAndUnknownClips(t *testing.T) {
	ctrl, lib, _ := newController(t)

	if err := ctrl.Bind(nil); !errors.Is(err, engine.ErrClipNotFound) {
		t.Fatalf("expected ErrClipNotFound for nil clip, got %v", err)
	}

	ghost := &clip.Ref{CustomID: "ghost", StartFrame: 0, EndFrame: 30, FPS: 30}
	if err := ctrl.Bind(ghost); !errors.Is(err, engine.ErrClipNotFound) {
		t.Fatalf("expected ErrClipNotFound for unknown clip, got %v", err)
	}
	if ctrl.State() != playback.StateIdle {
		t.Fatalf("rejected bind changed state to %s", ctrl.State())
	}

	ref := mustClip(t, lib, "walk", 90)
	if err := lib.Delete(ref.CustomID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := ctrl.Bind(ref); !errors.Is(err, engine.ErrClipNotFound) {
		t.Fatalf("expected ErrClipNotFound for deleted clip, got %v", err)
	}
}

func TestBindIsAtomicOnFactoryFailure(t *testing.T) {
	ctrl, lib, factory := newController(t)
	ref := mustClip(t, lib, "walk", 90)

	factory.err = errors.New("gpu unavailable")
	if err := ctrl.Bind(ref); err == nil {
		t.Fatal("expected bind to fail when primitive creation fails")
	}
	if ctrl.State() != playback.StateIdle {
		t.Fatalf("failed bind left state %s, want idle", ctrl.State())
	}

	factory.err = nil
	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind after recovery failed: %v", err)
	}
}

func TestRebindReleasesPreviousBinding(t *testing.T) {
	ctrl, lib, factory := newController(t)
	first := mustClip(t, lib, "walk", 90)
	second := mustClip(t, lib, "run", 60)

	if err := ctrl.Bind(first); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := ctrl.Bind(second); err != nil {
		t.Fatalf("Rebind failed: %v", err)
	}

	prim := factory.prims["model-1"]
	if prim.clipID != second.CustomID {
		t.Fatalf("primitive bound to %s, want %s", prim.clipID, second.CustomID)
	}
	if prim.setClips != 2 {
		t.Fatalf("SetClip called %d times, want 2", prim.setClips)
	}
	if got := ctrl.Snapshot().ActiveClipID; got != second.CustomID {
		t.Fatalf("active clip = %s, want %s", got, second.CustomID)
	}
}

func TestBindRejectsOutOfRangeInitialTime(t *testing.T) {
	ctrl, lib, _ := newController(t)
	ref := mustClip(t, lib, "walk", 90)

	if err := ctrl.Bind(ref, playback.WithInitialTime(5.0)); err == nil {
		t.Fatal("expected out-of-range initial time to be rejected")
	}
	if ctrl.State() != playback.StateIdle {
		t.Fatalf("rejected bind changed state to %s", ctrl.State())
	}
}

func TestPlayPauseLifecycle(t *testing.T) {
	ctrl, lib, _ := newController(t)
	ref := mustClip(t, lib, "walk", 90)

	if err := ctrl.Play(); err == nil {
		t.Fatal("expected Play without a binding to fail")
	}

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if ctrl.State() != playback.StatePaused {
		t.Fatalf("state after bind = %s, want paused", ctrl.State())
	}

	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play must be idempotent: %v", err)
	}
	if ctrl.State() != playback.StatePlaying {
		t.Fatalf("state = %s, want playing", ctrl.State())
	}

	ctrl.Pause()
	if ctrl.State() != playback.StatePaused {
		t.Fatalf("state = %s, want paused", ctrl.State())
	}
}

func TestTickFinishesOnce(t *testing.T) {
	ctrl, lib, _ := newController(t)
	ref := mustClip(t, lib, "walk", 90) // 3.0s at 30fps

	finishes := 0
	ctrl.SetOnFinish(func() { finishes++ })

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	delta := 1.0 / 30.0
	var finishedTick int
	for tick := 1; tick <= 120; tick++ {
		res := ctrl.Tick(delta)
		if res.Finished {
			finishedTick = tick
		}
	}
	if finishes != 1 {
		t.Fatalf("onFinish fired %d times, want 1", finishes)
	}
	if finishedTick != 90 {
		t.Fatalf("finished on tick %d, want 90", finishedTick)
	}
	if ctrl.State() != playback.StateFinished {
		t.Fatalf("state = %s, want finished", ctrl.State())
	}
	if ctrl.LocalTime() != ref.DurationSeconds() {
		t.Fatalf("local time = %v, want clip duration", ctrl.LocalTime())
	}
}

func TestPlayAfterFinishRestarts(t *testing.T) {
	ctrl, lib, _ := newController(t)
	ref := mustClip(t, lib, "walk", 30)

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	ctrl.Tick(2.0) // overshoot the 1.0s clip

	if ctrl.State() != playback.StateFinished {
		t.Fatalf("state = %s, want finished", ctrl.State())
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play after finish failed: %v", err)
	}
	if ctrl.LocalTime() != 0 {
		t.Fatalf("restart local time = %v, want 0", ctrl.LocalTime())
	}
	if ctrl.State() != playback.StatePlaying {
		t.Fatalf("state = %s, want playing", ctrl.State())
	}
}

func TestLoopWrapsTime(t *testing.T) {
	ctrl, lib, _ := newController(t)
	ref := mustClip(t, lib, "cycle", 30) // 1.0s

	finishes := 0
	ctrl.SetOnFinish(func() { finishes++ })

	if err := ctrl.Bind(ref, playback.WithLoop(true)); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	res := ctrl.Tick(1.25)
	if !res.Advanced {
		t.Fatal("expected tick to advance")
	}
	if math.Abs(res.Cur-0.25) > 1e-9 {
		t.Fatalf("wrapped time = %v, want 0.25", res.Cur)
	}
	if res.Cur >= res.Prev {
		t.Fatal("expected wrap to land behind previous time")
	}
	if finishes != 0 {
		t.Fatal("looping clip must not finish")
	}
	if ctrl.State() != playback.StatePlaying {
		t.Fatalf("state = %s, want playing", ctrl.State())
	}
}

func TestSeekWhilePausedPushesPose(t *testing.T) {
	ctrl, lib, factory := newController(t)
	ref := mustClip(t, lib, "walk", 90)

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	prim := factory.prims["model-1"]
	poseUpdates := len(prim.localSets)

	if err := ctrl.Seek(1.5); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if ctrl.LocalTime() != 1.5 {
		t.Fatalf("local time = %v, want 1.5", ctrl.LocalTime())
	}
	if len(prim.localSets) != poseUpdates+1 {
		t.Fatal("expected Seek to push a pose update while paused")
	}
	if ctrl.IsPlaying() {
		t.Fatal("Seek must not unpause")
	}

	// Clamped seeks.
	if err := ctrl.Seek(99); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if ctrl.LocalTime() != ref.DurationSeconds() {
		t.Fatalf("seek past end = %v, want duration", ctrl.LocalTime())
	}
	if err := ctrl.Seek(-1); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if ctrl.LocalTime() != 0 {
		t.Fatalf("seek before start = %v, want 0", ctrl.LocalTime())
	}
}

func TestSeekClearsFinished(t *testing.T) {
	ctrl, lib, _ := newController(t)
	ref := mustClip(t, lib, "walk", 30)

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	ctrl.Tick(2.0)
	if ctrl.State() != playback.StateFinished {
		t.Fatalf("state = %s, want finished", ctrl.State())
	}

	if err := ctrl.Seek(0.5); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if ctrl.State() != playback.StatePaused {
		t.Fatalf("state after seek = %s, want paused", ctrl.State())
	}
}

func TestTickWhilePausedDoesNothing(t *testing.T) {
	ctrl, lib, factory := newController(t)
	ref := mustClip(t, lib, "walk", 90)

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	res := ctrl.Tick(1.0)
	if res.Advanced {
		t.Fatal("paused tick must not advance")
	}
	if factory.prims["model-1"].advances != 0 {
		t.Fatal("paused tick must not drive the primitive")
	}
}

func TestCloseDisposesPrimitive(t *testing.T) {
	ctrl, lib, factory := newController(t)
	ref := mustClip(t, lib, "walk", 90)

	if err := ctrl.Bind(ref); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	ctrl.Close()

	prim := factory.prims["model-1"]
	if !prim.disposed {
		t.Fatal("expected Close to dispose the primitive")
	}
	if ctrl.State() != playback.StateIdle {
		t.Fatalf("state after close = %s, want idle", ctrl.State())
	}
}
