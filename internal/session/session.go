package session

import (
	"fmt"
	"log/slog"

	"playhead/internal/clip"
	"playhead/internal/director"
	"playhead/internal/engine"
	"playhead/internal/playback"
	"playhead/internal/trigger"
)

// Mode names a model's current time authority.
type Mode string

const (
	// ModeDetached means no authority drives the model.
	ModeDetached Mode = "detached"
	// ModeFreePlay hands the model to direct play/pause/seek control.
	ModeFreePlay Mode = "free_play"
	// ModeDirector hands the model's local time to the director timeline.
	ModeDirector Mode = "director"
)

// TriggerObserver receives the triggers due on a tick. The collaborator
// plays the sound or spawns the effect and must not be assumed synchronous.
type TriggerObserver func(due []trigger.Trigger)

// modelState tracks one model's controller and its trigger bookkeeping.
type modelState struct {
	ctrl  *playback.Controller
	mode  Mode
	sched *trigger.Scheduler

	// boundClip is the clip the scheduler was armed for; a mismatch with
	// the controller's active clip re-arms before the next advance.
	boundClip string

	// Director-side bookkeeping.
	placementID   string
	placementLoop bool
	lastLocal     float64

	// exitLocal is the clip-local second the placement's trim ends at; the
	// closing advance on placement exit sweeps up to it.
	exitLocal float64
}

// Session coordinates playback, triggers, and the director timeline for one
// scene. Single-threaded by design: every method runs inside the render
// loop's cooperative tick.
type Session struct {
	library *clip.Library
	factory playback.PrimitiveFactory
	logger  *slog.Logger

	models map[string]*modelState

	// order lists model ids in registration order, so trigger delivery
	// across models is the same every tick.
	order []string

	triggers map[string][]trigger.Trigger // keyed by clip custom id

	timeline        *director.Timeline
	directorFrame   float64
	directorPlaying bool

	onTriggers TriggerObserver
}

// New builds a session over a clip library and a primitive factory.
func New(library *clip.Library, factory playback.PrimitiveFactory, logger *slog.Logger) (*Session, error) {
	if library == nil {
		return nil, engine.Wrap(nil, "session", "new", "nil clip library", nil)
	}
	if factory == nil {
		return nil, engine.Wrap(nil, "session", "new", "nil primitive factory", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		library:  library,
		factory:  factory,
		logger:   logger.With("component", "session"),
		models:   make(map[string]*modelState),
		triggers: make(map[string][]trigger.Trigger),
	}, nil
}

// SetOnTriggersFired registers the per-tick trigger observer.
func (s *Session) SetOnTriggersFired(fn TriggerObserver) {
	s.onTriggers = fn
}

// SetTimeline installs the director timeline driven in director mode.
func (s *Session) SetTimeline(tl *director.Timeline) {
	s.timeline = tl
	s.directorFrame = 0
	s.directorPlaying = false
}

// Timeline returns the installed director timeline, or nil.
func (s *Session) Timeline() *director.Timeline {
	return s.timeline
}

// RegisterModel creates the playback controller for a model. Models start
// detached; attach an authority before driving them.
func (s *Session) RegisterModel(modelID string) (*playback.Controller, error) {
	if _, ok := s.models[modelID]; ok {
		return nil, engine.Wrap(nil, "session", "register", fmt.Sprintf("model %s already registered", modelID), nil)
	}
	ctrl, err := playback.NewController(modelID, s.library, s.factory, s.logger)
	if err != nil {
		return nil, err
	}
	s.models[modelID] = &modelState{ctrl: ctrl, mode: ModeDetached}
	s.order = append(s.order, modelID)
	return ctrl, nil
}

// UnregisterModel disposes a model's playback resources.
func (s *Session) UnregisterModel(modelID string) error {
	state, err := s.state(modelID)
	if err != nil {
		return err
	}
	state.ctrl.Close()
	delete(s.models, modelID)
	for i, id := range s.order {
		if id == modelID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Controller exposes a model's playback controller.
func (s *Session) Controller(modelID string) (*playback.Controller, error) {
	state, err := s.state(modelID)
	if err != nil {
		return nil, err
	}
	return state.ctrl, nil
}

// Mode reports a model's current time authority.
func (s *Session) Mode(modelID string) (Mode, error) {
	state, err := s.state(modelID)
	if err != nil {
		return ModeDetached, err
	}
	return state.mode, nil
}

// AttachFreePlay gives free-play control authority over a model's time.
// A model already owned by the director must be detached first.
func (s *Session) AttachFreePlay(modelID string) error {
	return s.attach(modelID, ModeFreePlay)
}

// AttachDirector hands a model's local time to the director timeline. A
// model under free-play control must be detached first.
func (s *Session) AttachDirector(modelID string) error {
	return s.attach(modelID, ModeDirector)
}

// Detach releases a model from its current authority and pauses it.
func (s *Session) Detach(modelID string) error {
	state, err := s.state(modelID)
	if err != nil {
		return err
	}
	state.ctrl.Pause()
	state.mode = ModeDetached
	state.sched = nil
	state.boundClip = ""
	state.placementID = ""
	return nil
}

func (s *Session) attach(modelID string, mode Mode) error {
	state, err := s.state(modelID)
	if err != nil {
		return err
	}
	if state.mode != ModeDetached && state.mode != mode {
		return engine.Wrap(engine.ErrBindingConflict, "session", "attach",
			fmt.Sprintf("model %s is owned by %s", modelID, state.mode), nil)
	}
	state.mode = mode
	s.logger.Debug("time authority attached", "model", modelID, "mode", string(mode))
	return nil
}

// AddTrigger registers a frame-indexed trigger against a clip.
func (s *Session) AddTrigger(customID string, frame int) (trigger.Trigger, error) {
	ref, err := s.library.Resolve(customID)
	if err != nil {
		return trigger.Trigger{}, err
	}
	tr, err := trigger.New(ref, frame)
	if err != nil {
		return trigger.Trigger{}, err
	}
	s.triggers[customID] = append(s.triggers[customID], tr)
	s.rearmSchedulersFor(customID)
	return tr, nil
}

// ImportTriggers installs triggers restored from a project, keeping their
// ids. Every trigger is validated against its clip before any state changes.
func (s *Session) ImportTriggers(triggers []trigger.Trigger) error {
	refs := make(map[string]*clip.Ref, len(triggers))
	for _, tr := range triggers {
		ref, ok := refs[tr.ClipID]
		if !ok {
			resolved, err := s.library.Resolve(tr.ClipID)
			if err != nil {
				return err
			}
			ref = resolved
			refs[tr.ClipID] = ref
		}
		if err := trigger.Validate(tr, ref); err != nil {
			return err
		}
	}
	touched := make(map[string]struct{}, len(refs))
	for _, tr := range triggers {
		s.triggers[tr.ClipID] = append(s.triggers[tr.ClipID], tr)
		touched[tr.ClipID] = struct{}{}
	}
	for clipID := range touched {
		s.rearmSchedulersFor(clipID)
	}
	return nil
}

// RemoveTrigger deletes a trigger by id.
func (s *Session) RemoveTrigger(id string) error {
	for clipID, list := range s.triggers {
		for i, tr := range list {
			if tr.ID != id {
				continue
			}
			s.triggers[clipID] = append(list[:i], list[i+1:]...)
			s.rearmSchedulersFor(clipID)
			return nil
		}
	}
	return engine.Wrap(nil, "session", "remove-trigger", fmt.Sprintf("trigger %s not found", id), nil)
}

// TriggersFor returns the triggers registered against a clip.
func (s *Session) TriggersFor(customID string) []trigger.Trigger {
	list := s.triggers[customID]
	out := make([]trigger.Trigger, len(list))
	copy(out, list)
	return out
}

// Bind binds a clip on a free-play model and arms its trigger bookkeeping.
func (s *Session) Bind(modelID string, ref *clip.Ref, opts ...playback.BindOption) error {
	state, err := s.freePlayState(modelID, "bind")
	if err != nil {
		return err
	}
	if err := state.ctrl.Bind(ref, opts...); err != nil {
		return err
	}
	s.armFor(state, state.ctrl.Clip())
	return nil
}

// Play resumes a free-play model.
func (s *Session) Play(modelID string) error {
	state, err := s.freePlayState(modelID, "play")
	if err != nil {
		return err
	}
	return state.ctrl.Play()
}

// Pause halts a free-play model.
func (s *Session) Pause(modelID string) error {
	state, err := s.freePlayState(modelID, "pause")
	if err != nil {
		return err
	}
	state.ctrl.Pause()
	return nil
}

// Seek scrubs a free-play model. No triggers fire; bookkeeping past the new
// position re-arms so a later forward pass delivers those triggers again.
func (s *Session) Seek(modelID string, t float64) error {
	state, err := s.freePlayState(modelID, "seek")
	if err != nil {
		return err
	}
	if err := state.ctrl.Seek(t); err != nil {
		return err
	}
	if state.sched != nil {
		state.sched.Seek(state.ctrl.LocalTime())
	}
	return nil
}

// DirectorPlay starts the global playhead.
func (s *Session) DirectorPlay() error {
	if s.timeline == nil {
		return engine.Wrap(nil, "session", "director-play", "no timeline installed", nil)
	}
	s.directorPlaying = true
	return nil
}

// DirectorPause halts the global playhead.
func (s *Session) DirectorPause() {
	s.directorPlaying = false
}

// DirectorSeek jumps the global playhead. Trigger bookkeeping for director
// models restarts so nothing replays from the abandoned position.
func (s *Session) DirectorSeek(frame float64) error {
	if s.timeline == nil {
		return engine.Wrap(nil, "session", "director-seek", "no timeline installed", nil)
	}
	if frame < 0 {
		frame = 0
	}
	s.directorFrame = frame
	for _, state := range s.models {
		if state.mode != ModeDirector {
			continue
		}
		if state.sched != nil {
			state.sched.Reset()
		}
		state.placementID = ""
	}
	s.applyDirectorPose()
	return nil
}

// DirectorFrame reports the global playhead position in timeline frames.
func (s *Session) DirectorFrame() float64 {
	return s.directorFrame
}

// DirectorIsPlaying reports whether Tick advances the global playhead.
func (s *Session) DirectorIsPlaying() bool {
	return s.directorPlaying
}

// Tick advances every attached time source by delta seconds and delivers due
// triggers. Order within the tick is fixed: free-play controllers advance in
// model registration order, then the director playhead, then trigger
// observers run; the renderer reads poses only after Tick returns.
func (s *Session) Tick(delta float64) []trigger.Trigger {
	var due []trigger.Trigger

	for _, id := range s.order {
		state := s.models[id]
		if state.mode != ModeFreePlay {
			continue
		}
		due = append(due, s.tickFreePlay(state, delta)...)
	}

	if s.timeline != nil && s.directorPlaying {
		due = append(due, s.tickDirector(delta)...)
	}

	if len(due) > 0 && s.onTriggers != nil {
		s.onTriggers(due)
	}
	return due
}

// tickFreePlay advances one free-play model and evaluates its triggers with
// the interval the controller actually applied this tick.
func (s *Session) tickFreePlay(state *modelState, delta float64) []trigger.Trigger {
	// A bind performed outside the session (playlist auto-advance) re-arms
	// bookkeeping before the first advance of the new clip.
	if active := state.ctrl.Snapshot().ActiveClipID; active != state.boundClip {
		s.armFor(state, state.ctrl.Clip())
	}

	res := state.ctrl.Tick(delta)
	if !res.Advanced || state.sched == nil {
		return nil
	}
	state.sched.SetLoop(state.ctrl.Loop())
	return state.sched.Advance(res.Prev, res.Cur)
}

// tickDirector advances the global playhead, maps it to per-track local
// times, drives the owned models, and evaluates their triggers.
func (s *Session) tickDirector(delta float64) []trigger.Trigger {
	prev := s.directorFrame
	next := prev + delta*float64(s.timeline.FPS())
	next = s.timeline.WrapFrame(next)
	s.directorFrame = next

	var due []trigger.Trigger
	active := make(map[string]struct{})
	for _, ac := range s.timeline.ActiveAt(next) {
		state, ok := s.models[ac.Placement.SourceModelID]
		if !ok || state.mode != ModeDirector {
			continue
		}
		active[ac.Placement.SourceModelID] = struct{}{}
		ref, err := s.library.Resolve(ac.Placement.SourceClipID)
		if err != nil {
			continue
		}

		// A new placement (or a new clip) restarts trigger bookkeeping. The
		// previous placement's lap closes first: the playhead ran it through
		// to the end of its trim.
		if state.placementID != ac.Placement.ID || state.boundClip != ref.CustomID {
			due = append(due, s.closePlacementLap(state)...)
			if err := state.ctrl.Bind(ref, playback.WithInitialTime(ac.LocalSeconds)); err != nil {
				s.logger.Warn("director bind failed", "model", ac.Placement.SourceModelID, "error", err)
				continue
			}
			s.armPlacement(state, ref, ac.Placement)
			state.lastLocal = ac.LocalSeconds
			// Entering a placement mid-span counts as a seek, not a
			// forward pass over its head.
			continue
		}

		if err := state.ctrl.Seek(ac.LocalSeconds); err != nil {
			continue
		}
		due = append(due, state.sched.Advance(state.lastLocal, ac.LocalSeconds)...)
		state.lastLocal = ac.LocalSeconds
	}

	// Models whose placement the playhead just left still owe the closing
	// interval up to the trim end; without it a trigger on the placement's
	// final frame never fires.
	for _, id := range s.order {
		state := s.models[id]
		if state.mode != ModeDirector || state.placementID == "" {
			continue
		}
		if _, ok := active[id]; ok {
			continue
		}
		due = append(due, s.closePlacementLap(state)...)
	}
	return due
}

// closePlacementLap evaluates the final local interval of the placement a
// model is leaving and clears the placement binding. Looping placements have
// no final interval: the playhead stops mid-lap wherever the exit caught it.
func (s *Session) closePlacementLap(state *modelState) []trigger.Trigger {
	if state.placementID == "" {
		return nil
	}
	var due []trigger.Trigger
	if state.sched != nil && !state.placementLoop {
		due = state.sched.Advance(state.lastLocal, state.exitLocal)
	}
	state.placementID = ""
	state.placementLoop = false
	return due
}

// applyDirectorPose pushes poses for the current playhead without advancing
// time, so director scrubbing updates the view while paused.
func (s *Session) applyDirectorPose() {
	if s.timeline == nil {
		return
	}
	for _, ac := range s.timeline.ActiveAt(s.directorFrame) {
		state, ok := s.models[ac.Placement.SourceModelID]
		if !ok || state.mode != ModeDirector {
			continue
		}
		ref, err := s.library.Resolve(ac.Placement.SourceClipID)
		if err != nil {
			continue
		}
		if state.placementID != ac.Placement.ID || state.boundClip != ref.CustomID {
			if err := state.ctrl.Bind(ref, playback.WithInitialTime(ac.LocalSeconds)); err != nil {
				continue
			}
			s.armPlacement(state, ref, ac.Placement)
		} else if err := state.ctrl.Seek(ac.LocalSeconds); err != nil {
			continue
		}
		state.lastLocal = ac.LocalSeconds
	}
}

// armPlacement arms a model's trigger scheduler for a director placement:
// the lap window is the placement's trimmed span and the loop mode is the
// placement's.
func (s *Session) armPlacement(state *modelState, ref *clip.Ref, p director.Placement) {
	s.armFor(state, ref)
	state.sched.SetWindow(p.TrimStart, p.TrimEnd)
	state.sched.SetLoop(p.Loop)
	state.placementID = p.ID
	state.placementLoop = p.Loop
	state.exitLocal = float64(p.TrimEnd) / float64(ref.FPS)
}

// armFor rebuilds a model's trigger scheduler for a newly bound clip,
// discarding bookkeeping tied to the old binding.
func (s *Session) armFor(state *modelState, ref *clip.Ref) {
	if ref == nil {
		state.sched = nil
		state.boundClip = ""
		return
	}
	sched := trigger.NewScheduler(ref.FPS, ref.FrameCount(), state.ctrl.Loop())
	sched.Arm(s.triggers[ref.CustomID])
	state.sched = sched
	state.boundClip = ref.CustomID
}

// rearmSchedulersFor refreshes the armed trigger set on every model bound to
// the clip. Fired bookkeeping restarts; the next lap uses the new set.
func (s *Session) rearmSchedulersFor(customID string) {
	for _, state := range s.models {
		if state.boundClip == customID && state.sched != nil {
			state.sched.Arm(s.triggers[customID])
		}
	}
}

func (s *Session) state(modelID string) (*modelState, error) {
	state, ok := s.models[modelID]
	if !ok {
		return nil, engine.Wrap(nil, "session", "model", fmt.Sprintf("model %s not registered", modelID), nil)
	}
	return state, nil
}

func (s *Session) freePlayState(modelID, op string) (*modelState, error) {
	state, err := s.state(modelID)
	if err != nil {
		return nil, err
	}
	if state.mode == ModeDirector {
		return nil, engine.Wrap(engine.ErrBindingConflict, "session", op,
			fmt.Sprintf("model %s is owned by the director timeline", modelID), nil)
	}
	if state.mode == ModeDetached {
		return nil, engine.Wrap(engine.ErrBindingConflict, "session", op,
			fmt.Sprintf("model %s has no time authority attached", modelID), nil)
	}
	return state, nil
}
