package director

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"playhead/internal/clip"
	"playhead/internal/engine"
)

// LoopRegion bounds the global playhead: when set, director playback wraps
// within [Start, End).
type LoopRegion struct {
	Start int
	End   int
}

// ActiveClip is one track's contribution at a global time: the placement, the
// clip-local playback position, and the advisory blend weight.
type ActiveClip struct {
	TrackID      string
	Placement    Placement
	LocalFrames  float64
	LocalSeconds float64
	BlendWeight  float64
}

// Timeline is the global frame-indexed director timeline for one session.
// It is the single writer of its tracks; all mutations validate first and
// leave prior state untouched on rejection.
type Timeline struct {
	fps         int
	totalFrames int
	loopRegion  *LoopRegion
	tracks      []*Track

	library *clip.Library
	logger  *slog.Logger
}

// NewTimeline builds an empty timeline at the given frame rate.
func NewTimeline(fps int, library *clip.Library, logger *slog.Logger) (*Timeline, error) {
	if fps <= 0 {
		return nil, engine.Wrap(nil, "director", "new", fmt.Sprintf("fps %d must be positive", fps), nil)
	}
	if library == nil {
		return nil, engine.Wrap(nil, "director", "new", "nil clip library", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timeline{
		fps:     fps,
		library: library,
		logger:  logger.With("component", "director"),
	}, nil
}

// FPS returns the timeline frame rate.
func (tl *Timeline) FPS() int { return tl.fps }

// TotalFrames returns the timeline length: the largest placement end frame.
func (tl *Timeline) TotalFrames() int { return tl.totalFrames }

// LoopRegionBounds returns the loop region, or nil when unset.
func (tl *Timeline) LoopRegionBounds() *LoopRegion {
	if tl.loopRegion == nil {
		return nil
	}
	cp := *tl.loopRegion
	return &cp
}

// SetLoopRegion bounds the global playhead to [start, end).
func (tl *Timeline) SetLoopRegion(start, end int) error {
	if start < 0 || end <= start {
		return engine.Wrap(nil, "director", "loop-region",
			fmt.Sprintf("invalid region [%d, %d)", start, end), nil)
	}
	tl.loopRegion = &LoopRegion{Start: start, End: end}
	return nil
}

// ClearLoopRegion removes the loop region.
func (tl *Timeline) ClearLoopRegion() {
	tl.loopRegion = nil
}

// Tracks returns the tracks in display order.
func (tl *Timeline) Tracks() []*Track {
	out := make([]*Track, len(tl.tracks))
	copy(out, tl.tracks)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// AddTrack appends a new track below the existing ones.
func (tl *Timeline) AddTrack(name string) *Track {
	track := &Track{
		ID:    uuid.NewString(),
		Name:  name,
		Order: len(tl.tracks),
	}
	tl.tracks = append(tl.tracks, track)
	tl.logger.Debug("track added", "track", track.ID, "name", name)
	return track
}

// RemoveTrack deletes a track and its placements, then compacts track order.
func (tl *Timeline) RemoveTrack(id string) error {
	for i, track := range tl.tracks {
		if track.ID != id {
			continue
		}
		tl.tracks = append(tl.tracks[:i], tl.tracks[i+1:]...)
		tl.compactOrder()
		tl.recomputeTotal()
		return nil
	}
	return engine.Wrap(nil, "director", "remove-track", fmt.Sprintf("track %s not found", id), nil)
}

// MoveTrack repositions a track at the given display order.
func (tl *Timeline) MoveTrack(id string, order int) error {
	track, err := tl.trackByID(id)
	if err != nil {
		return err
	}
	if order < 0 || order >= len(tl.tracks) {
		return engine.Wrap(nil, "director", "move-track",
			fmt.Sprintf("order %d out of range [0, %d)", order, len(tl.tracks)), nil)
	}
	ordered := tl.Tracks()
	for i, t := range ordered {
		if t.ID == id {
			ordered = append(ordered[:i], ordered[i+1:]...)
			break
		}
	}
	rest := append(ordered[:order:order], track)
	ordered = append(rest, ordered[order:]...)
	for i, t := range ordered {
		t.Order = i
	}
	return nil
}

// SetTrackMuted toggles a track's mute flag. Muting excludes the track from
// the active-set computation; its placements stay in the data model.
func (tl *Timeline) SetTrackMuted(id string, muted bool) error {
	track, err := tl.trackByID(id)
	if err != nil {
		return err
	}
	track.Muted = muted
	return nil
}

// SetTrackLocked toggles a track's lock flag.
func (tl *Timeline) SetTrackLocked(id string, locked bool) error {
	track, err := tl.trackByID(id)
	if err != nil {
		return err
	}
	track.Locked = locked
	return nil
}

// PlacementSpec carries the caller-supplied fields for a new placement.
type PlacementSpec struct {
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

// AddPlacement validates and places a clip on a track. All checks run before
// any state changes: unknown clips fail with ErrClipNotFound, reconciliation
// and overlap violations with ErrInvalidPlacement.
func (tl *Timeline) AddPlacement(trackID string, spec PlacementSpec) (Placement, error) {
	track, err := tl.trackByID(trackID)
	if err != nil {
		return Placement{}, err
	}
	if track.Locked {
		return Placement{}, engine.Wrap(engine.ErrInvalidPlacement, "director", "place",
			fmt.Sprintf("track %s is locked", trackID), nil)
	}
	ref, err := tl.library.Resolve(spec.SourceClipID)
	if err != nil {
		return Placement{}, err
	}

	p := Placement{
		ID:            uuid.NewString(),
		TrackID:       trackID,
		SourceModelID: spec.SourceModelID,
		SourceClipID:  spec.SourceClipID,
		StartFrame:    spec.StartFrame,
		EndFrame:      spec.EndFrame,
		TrimStart:     spec.TrimStart,
		TrimEnd:       spec.TrimEnd,
		Speed:         spec.Speed,
		Loop:          spec.Loop,
		BlendIn:       spec.BlendIn,
		BlendOut:      spec.BlendOut,
		Color:         spec.Color,
	}
	if err := p.validate(ref, tl.fpsRatio(ref)); err != nil {
		return Placement{}, err
	}
	if other := track.overlaps(p, ""); other != nil {
		return Placement{}, engine.Wrap(engine.ErrInvalidPlacement, "director", "place",
			fmt.Sprintf("span [%d, %d) overlaps placement %s [%d, %d)",
				p.StartFrame, p.EndFrame, other.ID, other.StartFrame, other.EndFrame), nil)
	}

	track.insert(p)
	tl.recomputeTotal()
	tl.logger.Debug("placement added", "track", trackID, "placement", p.ID,
		"clip", p.SourceClipID, "start", p.StartFrame, "end", p.EndFrame)
	return p, nil
}

// UpdatePlacement applies an edit to an existing placement. The candidate is
// fully validated first; a rejected edit leaves the placement as it was.
func (tl *Timeline) UpdatePlacement(trackID, placementID string, edit func(*Placement)) (Placement, error) {
	track, err := tl.trackByID(trackID)
	if err != nil {
		return Placement{}, err
	}
	if track.Locked {
		return Placement{}, engine.Wrap(engine.ErrInvalidPlacement, "director", "edit",
			fmt.Sprintf("track %s is locked", trackID), nil)
	}
	current, ok := track.PlacementByID(placementID)
	if !ok {
		return Placement{}, engine.Wrap(engine.ErrInvalidPlacement, "director", "edit",
			fmt.Sprintf("placement %s not on track %s", placementID, trackID), nil)
	}

	candidate := current
	edit(&candidate)
	candidate.ID = current.ID
	candidate.TrackID = current.TrackID

	ref, err := tl.library.Resolve(candidate.SourceClipID)
	if err != nil {
		return Placement{}, err
	}
	if err := candidate.validate(ref, tl.fpsRatio(ref)); err != nil {
		return Placement{}, err
	}
	if other := track.overlaps(candidate, candidate.ID); other != nil {
		return Placement{}, engine.Wrap(engine.ErrInvalidPlacement, "director", "edit",
			fmt.Sprintf("span [%d, %d) overlaps placement %s", candidate.StartFrame, candidate.EndFrame, other.ID), nil)
	}

	if err := track.replace(candidate); err != nil {
		return Placement{}, err
	}
	tl.recomputeTotal()
	return candidate, nil
}

// MovePlacement shifts a placement to a new global start, keeping its length.
func (tl *Timeline) MovePlacement(trackID, placementID string, newStart int) (Placement, error) {
	return tl.UpdatePlacement(trackID, placementID, func(p *Placement) {
		span := p.GlobalSpan()
		p.StartFrame = newStart
		p.EndFrame = newStart + span
	})
}

// RemovePlacement deletes a placement from a track.
func (tl *Timeline) RemovePlacement(trackID, placementID string) error {
	track, err := tl.trackByID(trackID)
	if err != nil {
		return err
	}
	if track.Locked {
		return engine.Wrap(engine.ErrInvalidPlacement, "director", "remove",
			fmt.Sprintf("track %s is locked", trackID), nil)
	}
	if !track.remove(placementID) {
		return engine.Wrap(engine.ErrInvalidPlacement, "director", "remove",
			fmt.Sprintf("placement %s not on track %s", placementID, trackID), nil)
	}
	tl.recomputeTotal()
	return nil
}

// ActiveAt computes, for global frame t, the active clip per audible track:
// the placement whose span contains t, its clip-local playback position, and
// its blend weight. Muted and locked tracks are skipped.
func (tl *Timeline) ActiveAt(t float64) []ActiveClip {
	var active []ActiveClip
	for _, track := range tl.Tracks() {
		if track.Muted || track.Locked {
			continue
		}
		p, ok := track.activeAt(t)
		if !ok {
			continue
		}
		ref, err := tl.library.Resolve(p.SourceClipID)
		if err != nil {
			// Placement references a deleted clip; skip rather than
			// fabricate a pose.
			tl.logger.Warn("active placement references missing clip", "placement", p.ID, "clip", p.SourceClipID)
			continue
		}
		localFrames := p.LocalAt(t, tl.fpsRatio(ref))
		active = append(active, ActiveClip{
			TrackID:      track.ID,
			Placement:    p,
			LocalFrames:  localFrames,
			LocalSeconds: localFrames / float64(ref.FPS),
			BlendWeight:  p.BlendWeight(t),
		})
	}
	return active
}

// WrapFrame applies the loop region to a candidate playhead position,
// returning where the playhead actually lands.
func (tl *Timeline) WrapFrame(f float64) float64 {
	region := tl.loopRegion
	if region == nil {
		return f
	}
	span := float64(region.End - region.Start)
	if span <= 0 || f < float64(region.End) {
		return f
	}
	offset := f - float64(region.Start)
	for offset >= span {
		offset -= span
	}
	return float64(region.Start) + offset
}

func (tl *Timeline) trackByID(id string) (*Track, error) {
	for _, track := range tl.tracks {
		if track.ID == id {
			return track, nil
		}
	}
	return nil, engine.Wrap(nil, "director", "track", fmt.Sprintf("track %s not found", id), nil)
}

// fpsRatio converts timeline frames to clip frames for a given source clip.
func (tl *Timeline) fpsRatio(ref *clip.Ref) float64 {
	if ref == nil || ref.FPS <= 0 || tl.fps <= 0 {
		return 1
	}
	return float64(ref.FPS) / float64(tl.fps)
}

func (tl *Timeline) compactOrder() {
	ordered := tl.Tracks()
	for i, t := range ordered {
		t.Order = i
	}
}

func (tl *Timeline) recomputeTotal() {
	total := 0
	for _, track := range tl.tracks {
		if end := track.maxEndFrame(); end > total {
			total = end
		}
	}
	tl.totalFrames = total
}
