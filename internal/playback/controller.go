package playback

import (
	"fmt"
	"log/slog"
	"math"

	"playhead/internal/clip"
	"playhead/internal/engine"
)

// timeEpsilon absorbs float drift from accumulated tick deltas when deciding
// whether the playhead has reached the end of a clip.
const timeEpsilon = 1e-9

// State is the controller's lifecycle position.
type State string

const (
	StateIdle     State = "idle"
	StatePaused   State = "paused"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// PlaybackState is a snapshot of one model's playback for observers. The
// active clip id is empty when no clip is bound.
type PlaybackState struct {
	ModelID      string
	ActiveClipID string
	LocalTime    float64
	IsPlaying    bool
	Loop         bool
}

// TickResult reports the time interval a Tick actually applied. Prev and Cur
// are clip-local seconds; Cur lands behind Prev only on a loop wrap.
type TickResult struct {
	Prev     float64
	Cur      float64
	Advanced bool
	Finished bool
}

// BindOption customizes a Bind call.
type BindOption func(*bindOptions)

type bindOptions struct {
	initialTime float64
	loop        bool
}

// WithInitialTime starts playback at t instead of the clip start.
func WithInitialTime(t float64) BindOption {
	return func(o *bindOptions) { o.initialTime = t }
}

// WithLoop sets the loop mode for the new binding.
func WithLoop(loop bool) BindOption {
	return func(o *bindOptions) { o.loop = loop }
}

// Controller drives a single model's clip playback through a Primitive.
// It is the exclusive writer of that model's playback state.
type Controller struct {
	modelID string
	library *clip.Library
	factory PrimitiveFactory
	logger  *slog.Logger

	prim     Primitive
	active   *clip.Ref
	local    float64
	playing  bool
	finished bool
	loop     bool

	onFinish func()
}

// NewController builds a controller for one model. The model id must be
// non-empty; the library is consulted on every bind so deleted clips are
// rejected.
func NewController(modelID string, library *clip.Library, factory PrimitiveFactory, logger *slog.Logger) (*Controller, error) {
	if modelID == "" {
		return nil, engine.Wrap(nil, "playback", "new", "empty model id", nil)
	}
	if library == nil {
		return nil, engine.Wrap(nil, "playback", "new", "nil clip library", nil)
	}
	if factory == nil {
		return nil, engine.Wrap(nil, "playback", "new", "nil primitive factory", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		modelID: modelID,
		library: library,
		factory: factory,
		logger:  logger.With("component", "playback", "model", modelID),
	}, nil
}

// SetOnFinish registers the callback invoked exactly once when a non-looping
// clip reaches its end during Tick.
func (c *Controller) SetOnFinish(fn func()) {
	c.onFinish = fn
}

// Bind makes ref the model's active clip. All validation happens before any
// state changes, so a rejected bind never disturbs the previous binding. The
// previous clip's playback resources are released before the new binding is
// installed.
func (c *Controller) Bind(ref *clip.Ref, opts ...BindOption) error {
	if ref == nil {
		return engine.Wrap(engine.ErrClipNotFound, "playback", "bind", "nil clip reference", nil)
	}
	if !c.library.Contains(ref.CustomID) {
		return engine.Wrap(engine.ErrClipNotFound, "playback", "bind", fmt.Sprintf("clip %s not in library", ref.CustomID), nil)
	}

	options := bindOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	duration := ref.DurationSeconds()
	if options.initialTime < 0 || options.initialTime > duration {
		return engine.Wrap(nil, "playback", "bind",
			fmt.Sprintf("initial time %.4f outside [0, %.4f]", options.initialTime, duration), nil)
	}

	if c.prim == nil {
		prim, err := c.factory.CreatePrimitive(c.modelID)
		if err != nil {
			return engine.Wrap(nil, "playback", "bind", "create primitive", err)
		}
		c.prim = prim
	}
	if err := c.prim.SetClip(ref.Clone()); err != nil {
		return engine.Wrap(nil, "playback", "bind", "set clip", err)
	}

	c.active = ref.Clone()
	c.local = options.initialTime
	c.loop = options.loop
	c.playing = false
	c.finished = false
	c.prim.SetLocalTime(c.local)

	c.logger.Debug("clip bound", "clip", ref.CustomID, "initial_time", options.initialTime, "loop", options.loop)
	return nil
}

// Unbind releases the active clip, leaving the controller idle. The model's
// primitive stays alive for the next bind.
func (c *Controller) Unbind() {
	if c.active == nil {
		return
	}
	if c.prim != nil {
		_ = c.prim.SetClip(nil)
	}
	c.active = nil
	c.local = 0
	c.playing = false
	c.finished = false
}

// Close disposes the model's primitive. Call when the model is unloaded.
func (c *Controller) Close() {
	c.Unbind()
	if c.prim != nil {
		c.prim.Dispose()
		c.prim = nil
	}
}

// Play starts or resumes playback. Playing an already-playing controller is a
// no-op. A finished non-looping clip restarts from the beginning.
func (c *Controller) Play() error {
	if c.active == nil {
		return engine.Wrap(nil, "playback", "play", "no clip bound", nil)
	}
	if c.playing {
		return nil
	}
	if c.finished || (!c.loop && c.local >= c.active.DurationSeconds()) {
		c.local = 0
		c.finished = false
		c.prim.SetLocalTime(0)
	}
	c.playing = true
	return nil
}

// Pause halts playback, keeping the current local time and pose.
func (c *Controller) Pause() {
	c.playing = false
}

// Seek moves the playhead to t, clamping to the clip span (or wrapping when
// looping), and pushes the pose out-of-band so scrubbing updates the view
// even while paused.
func (c *Controller) Seek(t float64) error {
	if c.active == nil {
		return engine.Wrap(nil, "playback", "seek", "no clip bound", nil)
	}
	duration := c.active.DurationSeconds()
	if c.loop && duration > 0 {
		t = math.Mod(t, duration)
		if t < 0 {
			t += duration
		}
	} else {
		t = math.Min(math.Max(t, 0), duration)
	}
	c.local = t
	if t < duration {
		c.finished = false
	}
	c.prim.SetLocalTime(t)
	return nil
}

// Tick advances local time by delta when playing. On reaching the end of a
// non-looping clip the controller transitions to finished and invokes the
// registered onFinish callback exactly once.
func (c *Controller) Tick(delta float64) TickResult {
	if c.active == nil || !c.playing || delta <= 0 {
		return TickResult{Prev: c.local, Cur: c.local}
	}

	duration := c.active.DurationSeconds()
	prev := c.local
	raw := prev + delta

	if c.loop && duration > 0 {
		cur := math.Mod(raw, duration)
		c.local = cur
		if cur < prev {
			c.prim.SetLocalTime(cur)
		} else {
			c.prim.Advance(cur - prev)
		}
		return TickResult{Prev: prev, Cur: cur, Advanced: true}
	}

	if raw >= duration-timeEpsilon {
		c.local = duration
		c.playing = false
		c.finished = true
		c.prim.SetLocalTime(duration)
		c.logger.Debug("clip finished", "clip", c.active.CustomID)
		if c.onFinish != nil {
			c.onFinish()
		}
		return TickResult{Prev: prev, Cur: duration, Advanced: true, Finished: true}
	}

	c.local = raw
	c.prim.Advance(raw - prev)
	return TickResult{Prev: prev, Cur: raw, Advanced: true}
}

// State reports the controller's lifecycle position.
func (c *Controller) State() State {
	switch {
	case c.active == nil:
		return StateIdle
	case c.playing:
		return StatePlaying
	case c.finished:
		return StateFinished
	default:
		return StatePaused
	}
}

// Snapshot returns the model's current playback state.
func (c *Controller) Snapshot() PlaybackState {
	s := PlaybackState{
		ModelID:   c.modelID,
		LocalTime: c.local,
		IsPlaying: c.playing,
		Loop:      c.loop,
	}
	if c.active != nil {
		s.ActiveClipID = c.active.CustomID
	}
	return s
}

// Clip returns the active clip reference, or nil when idle.
func (c *Controller) Clip() *clip.Ref {
	return c.active.Clone()
}

// LocalTime returns the playhead position in clip-local seconds.
func (c *Controller) LocalTime() float64 {
	return c.local
}

// IsPlaying reports whether Tick currently advances time.
func (c *Controller) IsPlaying() bool {
	return c.playing
}

// Loop reports the binding's loop mode.
func (c *Controller) Loop() bool {
	return c.loop
}

// SetLoop flips the loop mode of the current binding.
func (c *Controller) SetLoop(loop bool) {
	c.loop = loop
}

// ModelID returns the model this controller owns.
func (c *Controller) ModelID() string {
	return c.modelID
}
