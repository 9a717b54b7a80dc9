package director

import (
	"fmt"
	"log/slog"

	"playhead/internal/clip"
	"playhead/internal/engine"
)

// Descriptor is the JSON-exchange form of a timeline.
type Descriptor struct {
	TotalFrames int                   `json:"totalFrames"`
	FPS         int                   `json:"fps"`
	LoopRegion  *LoopRegionDescriptor `json:"loopRegion"`
	Tracks      []TrackDescriptor     `json:"tracks"`
}

// LoopRegionDescriptor is the exchange form of a loop region.
type LoopRegionDescriptor struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TrackDescriptor is the exchange form of a track.
type TrackDescriptor struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Order    int                   `json:"order"`
	IsLocked bool                  `json:"isLocked"`
	IsMuted  bool                  `json:"isMuted"`
	Clips    []PlacementDescriptor `json:"clips"`
}

// PlacementDescriptor is the exchange form of a placement. The original
// schema calls the clip reference sourceAnimationId.
type PlacementDescriptor struct {
	ID                string  `json:"id"`
	TrackID           string  `json:"trackId"`
	SourceModelID     string  `json:"sourceModelId"`
	SourceAnimationID string  `json:"sourceAnimationId"`
	StartFrame        int     `json:"startFrame"`
	EndFrame          int     `json:"endFrame"`
	TrimStart         int     `json:"trimStart"`
	TrimEnd           int     `json:"trimEnd"`
	Speed             float64 `json:"speed"`
	Loop              bool    `json:"loop"`
	BlendIn           int     `json:"blendIn"`
	BlendOut          int     `json:"blendOut"`
	Color             string  `json:"color"`
}

// ToDescriptor converts the timeline to its exchange form.
func (tl *Timeline) ToDescriptor() Descriptor {
	desc := Descriptor{
		TotalFrames: tl.totalFrames,
		FPS:         tl.fps,
		Tracks:      make([]TrackDescriptor, 0, len(tl.tracks)),
	}
	if tl.loopRegion != nil {
		desc.LoopRegion = &LoopRegionDescriptor{Start: tl.loopRegion.Start, End: tl.loopRegion.End}
	}
	for _, track := range tl.Tracks() {
		td := TrackDescriptor{
			ID:       track.ID,
			Name:     track.Name,
			Order:    track.Order,
			IsLocked: track.Locked,
			IsMuted:  track.Muted,
			Clips:    make([]PlacementDescriptor, 0, len(track.placements)),
		}
		for _, p := range track.Placements() {
			td.Clips = append(td.Clips, PlacementDescriptor{
				ID:                p.ID,
				TrackID:           p.TrackID,
				SourceModelID:     p.SourceModelID,
				SourceAnimationID: p.SourceClipID,
				StartFrame:        p.StartFrame,
				EndFrame:          p.EndFrame,
				TrimStart:         p.TrimStart,
				TrimEnd:           p.TrimEnd,
				Speed:             p.Speed,
				Loop:              p.Loop,
				BlendIn:           p.BlendIn,
				BlendOut:          p.BlendOut,
				Color:             p.Color,
			})
		}
		desc.Tracks = append(desc.Tracks, td)
	}
	return desc
}

// FromDescriptor rebuilds a timeline from its exchange form, revalidating
// every placement against the clip library. Unknown clips fail the load with
// ErrClipNotFound; invariant violations with ErrInvalidPlacement.
func FromDescriptor(desc Descriptor, library *clip.Library, logger *slog.Logger) (*Timeline, error) {
	tl, err := NewTimeline(desc.FPS, library, logger)
	if err != nil {
		return nil, err
	}
	if desc.LoopRegion != nil {
		if err := tl.SetLoopRegion(desc.LoopRegion.Start, desc.LoopRegion.End); err != nil {
			return nil, err
		}
	}
	for _, td := range desc.Tracks {
		if td.ID == "" {
			return nil, engine.Wrap(nil, "director", "load", "track without id", nil)
		}
		track := &Track{
			ID:     td.ID,
			Name:   td.Name,
			Order:  td.Order,
			Locked: td.IsLocked,
			Muted:  td.IsMuted,
		}
		tl.tracks = append(tl.tracks, track)
		for _, pd := range td.Clips {
			p := Placement{
				ID:            pd.ID,
				TrackID:       track.ID,
				SourceModelID: pd.SourceModelID,
				SourceClipID:  pd.SourceAnimationID,
				StartFrame:    pd.StartFrame,
				EndFrame:      pd.EndFrame,
				TrimStart:     pd.TrimStart,
				TrimEnd:       pd.TrimEnd,
				Speed:         pd.Speed,
				Loop:          pd.Loop,
				BlendIn:       pd.BlendIn,
				BlendOut:      pd.BlendOut,
				Color:         pd.Color,
			}
			ref, err := library.Resolve(p.SourceClipID)
			if err != nil {
				return nil, err
			}
			if err := p.validate(ref, tl.fpsRatio(ref)); err != nil {
				return nil, err
			}
			if other := track.overlaps(p, ""); other != nil {
				return nil, engine.Wrap(engine.ErrInvalidPlacement, "director", "load",
					fmt.Sprintf("placement %s overlaps %s on track %s", p.ID, other.ID, track.ID), nil)
			}
			track.insert(p)
		}
	}
	tl.compactOrder()
	tl.recomputeTotal()
	return tl, nil
}
