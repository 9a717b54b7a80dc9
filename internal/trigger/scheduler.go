package trigger

import "math"

// frameEpsilon absorbs float drift from accumulated tick deltas so a time of
// 44.999999996 frames still counts as frame 45.
const frameEpsilon = 1e-6

// FrameAt converts clip-local seconds to the integer frame index the playhead
// currently occupies.
func FrameAt(t float64, fps int) int {
	if t <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(t*float64(fps) + frameEpsilon))
}

// Scheduler tracks which triggers have fired on the current lap of one bound
// clip. It is created per binding and discarded when the binding changes, so
// stale bookkeeping can never leak across clips.
type Scheduler struct {
	fps      int
	lapStart int
	lapEnd   int
	loop     bool
	triggers []Trigger
	fired    map[string]struct{}
}

// NewScheduler builds a scheduler for a clip spanning durationFrames at fps.
// The lap window defaults to the whole clip; SetWindow narrows it.
func NewScheduler(fps, durationFrames int, loop bool) *Scheduler {
	return &Scheduler{
		fps:      fps,
		lapStart: 0,
		lapEnd:   durationFrames,
		loop:     loop,
		fired:    make(map[string]struct{}),
	}
}

// SetWindow restricts a lap to the clip frames [start, end]. A trimmed
// placement plays only its trimmed span, so a loop wrap must sweep that span
// and nothing outside it. Invalid bounds are ignored.
func (s *Scheduler) SetWindow(start, end int) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return
	}
	s.lapStart = start
	s.lapEnd = end
}

// Arm replaces the trigger set and re-arms every trigger.
func (s *Scheduler) Arm(triggers []Trigger) {
	s.triggers = make([]Trigger, len(triggers))
	copy(s.triggers, triggers)
	s.Reset()
}

// SetLoop updates the loop mode without disturbing lap bookkeeping.
func (s *Scheduler) SetLoop(loop bool) {
	s.loop = loop
}

// Reset re-arms all triggers, starting a fresh lap.
func (s *Scheduler) Reset() {
	s.fired = make(map[string]struct{})
}

// Advance reports the triggers due for the move from prev to cur, both in
// clip-local seconds. A trigger at frame f is due when the playhead's frame
// index crosses f going forward; each trigger fires at most once per lap.
//
// When cur lands behind prev and the clip loops, the advance wrapped: the due
// set is the union of the finishing lap's tail and the new lap's head, and the
// lap bookkeeping restarts. A backward move without loop is treated as a
// scrub and fires nothing.
func (s *Scheduler) Advance(prev, cur float64) []Trigger {
	prevFrame := FrameAt(prev, s.fps)
	curFrame := FrameAt(cur, s.fps)

	if curFrame == prevFrame {
		return nil
	}
	if curFrame > prevFrame {
		// Include the final frame when the advance reaches the end of the
		// lap, otherwise a trigger on the last frame could never fire.
		atEnd := s.lapEnd > 0 && curFrame >= s.lapEnd
		return s.collect(prevFrame, curFrame, atEnd)
	}
	if !s.loop {
		s.Seek(cur)
		return nil
	}

	// Loop wrap: finish the old lap through the window's last frame, then
	// start a new lap from the window's first.
	due := s.collect(prevFrame, s.lapEnd, true)
	s.Reset()
	due = append(due, s.collect(s.lapStart, curFrame, false)...)
	return due
}

// Seek moves the bookkeeping position without firing anything. Triggers at or
// after the new position are re-armed so a subsequent forward pass delivers
// them again; triggers already fired before the position stay delivered.
func (s *Scheduler) Seek(t float64) {
	frame := FrameAt(t, s.fps)
	for _, tr := range s.triggers {
		if tr.Frame >= frame {
			delete(s.fired, tr.ID)
		}
	}
}

// collect marks and returns unfired triggers with frames in [from, to), or
// [from, to] when inclusive is set.
func (s *Scheduler) collect(from, to int, inclusive bool) []Trigger {
	var due []Trigger
	for _, tr := range s.triggers {
		if tr.Frame < from {
			continue
		}
		if tr.Frame > to || (tr.Frame == to && !inclusive) {
			continue
		}
		if _, done := s.fired[tr.ID]; done {
			continue
		}
		s.fired[tr.ID] = struct{}{}
		due = append(due, tr)
	}
	return due
}
