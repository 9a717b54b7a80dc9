package playlist

import (
	"fmt"
	"log/slog"

	"playhead/internal/clip"
	"playhead/internal/engine"
	"playhead/internal/playback"
)

// Sequencer owns an ordered queue of clips and drives one model's playback
// controller through it.
type Sequencer struct {
	ctrl    *playback.Controller
	library *clip.Library
	logger  *slog.Logger

	items        []*clip.Ref
	currentIndex int
	playing      bool
	repeat       bool
	autoAdvance  bool
}

// NewSequencer wires a sequencer to a controller. The sequencer registers
// itself as the controller's finish observer.
func NewSequencer(ctrl *playback.Controller, library *clip.Library, logger *slog.Logger) (*Sequencer, error) {
	if ctrl == nil {
		return nil, engine.Wrap(nil, "playlist", "new", "nil controller", nil)
	}
	if library == nil {
		return nil, engine.Wrap(nil, "playlist", "new", "nil clip library", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sequencer{
		ctrl:    ctrl,
		library: library,
		logger:  logger.With("component", "playlist", "model", ctrl.ModelID()),
	}
	ctrl.SetOnFinish(s.handleFinish)
	return s, nil
}

// Add appends a clip to the queue.
func (s *Sequencer) Add(ref *clip.Ref) error {
	if ref == nil {
		return engine.Wrap(engine.ErrClipNotFound, "playlist", "add", "nil clip reference", nil)
	}
	if !s.library.Contains(ref.CustomID) {
		return engine.Wrap(engine.ErrClipNotFound, "playlist", "add", fmt.Sprintf("clip %s not in library", ref.CustomID), nil)
	}
	next := make([]*clip.Ref, 0, len(s.items)+1)
	for _, item := range s.items {
		next = append(next, item.Clone())
	}
	next = append(next, ref.Clone())
	s.items = next
	return nil
}

// RemoveAt drops the clip at index i. The cursor keeps pointing at the clip
// it was on; removing the current clip leaves the cursor on its successor.
func (s *Sequencer) RemoveAt(i int) error {
	if i < 0 || i >= len(s.items) {
		return engine.Wrap(nil, "playlist", "remove", fmt.Sprintf("index %d out of range [0, %d)", i, len(s.items)), nil)
	}
	next := make([]*clip.Ref, 0, len(s.items)-1)
	for j, item := range s.items {
		if j == i {
			continue
		}
		next = append(next, item.Clone())
	}
	s.items = next
	if i < s.currentIndex {
		s.currentIndex--
	}
	if s.currentIndex >= len(s.items) {
		s.currentIndex = max(len(s.items)-1, 0)
	}
	return nil
}

// Reorder moves the clip at from to position to, swapping in a fresh queue
// value. The cursor follows the clip it was on by custom id, so the playing
// clip's identity survives any reorder.
func (s *Sequencer) Reorder(from, to int) error {
	n := len(s.items)
	if from < 0 || from >= n {
		return engine.Wrap(nil, "playlist", "reorder", fmt.Sprintf("from index %d out of range [0, %d)", from, n), nil)
	}
	if to < 0 || to >= n {
		return engine.Wrap(nil, "playlist", "reorder", fmt.Sprintf("to index %d out of range [0, %d)", to, n), nil)
	}

	var currentID string
	if s.currentIndex < n {
		currentID = s.items[s.currentIndex].CustomID
	}

	next := make([]*clip.Ref, 0, n)
	for _, item := range s.items {
		next = append(next, item.Clone())
	}
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	rest := append(next[:to:to], moved)
	next = append(rest, next[to:]...)
	s.items = next

	if currentID != "" {
		for i, item := range s.items {
			if item.CustomID == currentID {
				s.currentIndex = i
				break
			}
		}
	}
	return nil
}

// Play starts playlist playback from the cursor. Calling it while the
// playlist is already driving the controller is a no-op; after a manual
// selection it resumes the queue from the previously-reached index.
func (s *Sequencer) Play() error {
	if len(s.items) == 0 {
		return engine.Wrap(nil, "playlist", "play", "empty playlist", nil)
	}
	if s.playing && s.autoAdvance {
		return nil
	}
	return s.startAt(s.currentIndex)
}

// Pause halts playback without moving the cursor.
func (s *Sequencer) Pause() {
	s.playing = false
	s.ctrl.Pause()
}

// SelectClip interrupts the queue with a manual clip choice. Auto-advance is
// suspended but the queue contents and cursor are kept, so Play resumes the
// playlist afterwards.
func (s *Sequencer) SelectClip(ref *clip.Ref) error {
	if err := s.ctrl.Bind(ref); err != nil {
		return err
	}
	if err := s.ctrl.Play(); err != nil {
		return err
	}
	s.playing = false
	s.autoAdvance = false
	s.logger.Debug("playlist interrupted by manual selection", "clip", ref.CustomID)
	return nil
}

// SetRepeat controls whether the queue wraps to the first clip after the
// last one finishes.
func (s *Sequencer) SetRepeat(repeat bool) {
	s.repeat = repeat
}

// Items returns a copy of the queue in play order.
func (s *Sequencer) Items() []*clip.Ref {
	out := make([]*clip.Ref, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	return out
}

// CurrentIndex returns the cursor position.
func (s *Sequencer) CurrentIndex() int {
	return s.currentIndex
}

// IsPlaying reports whether the queue is driving the controller.
func (s *Sequencer) IsPlaying() bool {
	return s.playing
}

func (s *Sequencer) startAt(i int) error {
	ref := s.items[i]
	if err := s.ctrl.Bind(ref); err != nil {
		return err
	}
	if err := s.ctrl.Play(); err != nil {
		return err
	}
	s.currentIndex = i
	s.playing = true
	s.autoAdvance = true
	s.logger.Debug("playlist clip started", "clip", ref.CustomID, "index", i)
	return nil
}

// handleFinish advances the cursor when the current clip completes. Without
// repeat the queue stops at the last clip; the cursor stays there so a later
// Play picks up where the queue ended.
func (s *Sequencer) handleFinish() {
	if !s.autoAdvance || !s.playing {
		return
	}
	next := s.currentIndex + 1
	if next >= len(s.items) {
		if !s.repeat {
			s.playing = false
			return
		}
		next = 0
	}
	if err := s.startAt(next); err != nil {
		s.playing = false
		s.logger.Warn("playlist auto-advance failed", "index", next, "error", err)
	}
}
