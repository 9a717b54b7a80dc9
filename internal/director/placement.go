package director

import (
	"fmt"
	"math"

	"playhead/internal/clip"
	"playhead/internal/engine"
)

// reconcileEpsilon tolerates float noise when checking that a placement's
// local span, speed, and global span agree.
const reconcileEpsilon = 1e-6

// Placement positions a clip on a director track. StartFrame and EndFrame
// are global timeline frames; TrimStart and TrimEnd are clip-local frames.
type Placement struct {
	ID            string
	TrackID       string
	SourceModelID string
	SourceClipID  string
	StartFrame    int
	EndFrame      int
	TrimStart     int
	TrimEnd       int
	Speed         float64
	Loop          bool
	BlendIn       int
	BlendOut      int
	Color         string
}

// GlobalSpan returns the placement's length on the global axis in frames.
func (p Placement) GlobalSpan() int {
	return p.EndFrame - p.StartFrame
}

// LocalSpan returns the trimmed clip range in clip-local frames.
func (p Placement) LocalSpan() int {
	return p.TrimEnd - p.TrimStart
}

// Contains reports whether global frame t falls inside [StartFrame, EndFrame).
func (p Placement) Contains(t float64) bool {
	return t >= float64(p.StartFrame) && t < float64(p.EndFrame)
}

// ReconcileSpeed returns the speed that makes the trimmed local span fill the
// global span exactly, given the clip-to-timeline fps ratio. Callers that
// prefer resampling over rejection apply this before an edit.
func (p Placement) ReconcileSpeed(fpsRatio float64) (float64, error) {
	if p.GlobalSpan() <= 0 || fpsRatio <= 0 {
		return 0, engine.Wrap(engine.ErrInvalidPlacement, "director", "reconcile",
			fmt.Sprintf("placement %s has empty global span", p.ID), nil)
	}
	return float64(p.LocalSpan()) / (float64(p.GlobalSpan()) * fpsRatio), nil
}

// LocalAt maps global frame t to clip-local frames. Looping placements wrap
// within the trimmed span; otherwise the result clamps to [TrimStart,
// TrimEnd]. fpsRatio converts timeline frames to clip frames when the two
// rates differ.
func (p Placement) LocalAt(t float64, fpsRatio float64) float64 {
	span := float64(p.LocalSpan())
	if span <= 0 {
		return float64(p.TrimStart)
	}
	advance := (t - float64(p.StartFrame)) * p.Speed * fpsRatio
	if p.Loop {
		advance = math.Mod(advance, span)
		if advance < 0 {
			advance += span
		}
		return float64(p.TrimStart) + advance
	}
	local := float64(p.TrimStart) + advance
	return math.Min(math.Max(local, float64(p.TrimStart)), float64(p.TrimEnd))
}

// BlendWeight returns the advisory pose weight at global frame t: a linear
// ramp up across the first BlendIn frames, down across the last BlendOut
// frames, and 1 in between. Outside the placement the weight is 0.
func (p Placement) BlendWeight(t float64) float64 {
	if !p.Contains(t) {
		return 0
	}
	weight := 1.0
	if p.BlendIn > 0 {
		in := (t - float64(p.StartFrame)) / float64(p.BlendIn)
		weight = math.Min(weight, in)
	}
	if p.BlendOut > 0 {
		out := (float64(p.EndFrame) - t) / float64(p.BlendOut)
		weight = math.Min(weight, out)
	}
	return math.Min(math.Max(weight, 0), 1)
}

// validate checks a placement against its source clip and the reconciliation
// invariant. fpsRatio is clip fps over timeline fps.
func (p Placement) validate(ref *clip.Ref, fpsRatio float64) error {
	if p.StartFrame < 0 {
		return invalid(p.ID, fmt.Sprintf("start frame %d is negative", p.StartFrame))
	}
	if p.EndFrame <= p.StartFrame {
		return invalid(p.ID, fmt.Sprintf("end frame %d must exceed start frame %d", p.EndFrame, p.StartFrame))
	}
	if p.Speed <= 0 {
		return invalid(p.ID, fmt.Sprintf("speed %v must be positive", p.Speed))
	}
	if p.TrimEnd <= p.TrimStart {
		return invalid(p.ID, fmt.Sprintf("trim end %d must exceed trim start %d", p.TrimEnd, p.TrimStart))
	}
	if p.TrimStart < 0 || p.TrimEnd > ref.FrameCount() {
		return invalid(p.ID, fmt.Sprintf("trim [%d, %d] outside clip span [0, %d]", p.TrimStart, p.TrimEnd, ref.FrameCount()))
	}
	if p.BlendIn < 0 || p.BlendOut < 0 {
		return invalid(p.ID, "blend frames must not be negative")
	}
	if p.BlendIn > p.GlobalSpan() || p.BlendOut > p.GlobalSpan() {
		return invalid(p.ID, "blend frames exceed placement span")
	}

	// Looping placements repeat their trimmed span to fill the global span,
	// so only non-looping placements must reconcile.
	if p.Loop {
		return nil
	}

	// Reconciliation: the trimmed local span played at this speed must fill
	// the global span exactly.
	expected := float64(p.LocalSpan()) / (p.Speed * fpsRatio)
	if math.Abs(expected-float64(p.GlobalSpan())) > reconcileEpsilon {
		return invalid(p.ID, fmt.Sprintf(
			"local span %d at speed %v covers %.4f global frames, placement spans %d",
			p.LocalSpan(), p.Speed, expected, p.GlobalSpan()))
	}
	return nil
}

func invalid(id, message string) error {
	if id != "" {
		message = fmt.Sprintf("placement %s: %s", id, message)
	}
	return engine.Wrap(engine.ErrInvalidPlacement, "director", "validate", message, nil)
}
