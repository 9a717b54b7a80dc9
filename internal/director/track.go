package director

import (
	"fmt"
	"sort"

	"playhead/internal/engine"
)

// Track is an ordered lane of non-overlapping placements. Mute removes a
// track from the active-set computation without deleting its contents; lock
// additionally freezes it against edits.
type Track struct {
	ID     string
	Name   string
	Order  int
	Locked bool
	Muted  bool

	placements []Placement
}

// Placements returns the track's placements ordered by global start frame.
func (t *Track) Placements() []Placement {
	out := make([]Placement, len(t.placements))
	copy(out, t.placements)
	return out
}

// PlacementByID returns the placement with the given id.
func (t *Track) PlacementByID(id string) (Placement, bool) {
	for _, p := range t.placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// activeAt returns the placement containing global frame f. Non-overlap
// guarantees at most one match.
func (t *Track) activeAt(f float64) (Placement, bool) {
	for _, p := range t.placements {
		if p.Contains(f) {
			return p, true
		}
	}
	return Placement{}, false
}

// overlaps reports whether candidate would overlap an existing placement,
// ignoring the placement with ignoreID (used when editing in place).
func (t *Track) overlaps(candidate Placement, ignoreID string) *Placement {
	for i := range t.placements {
		p := &t.placements[i]
		if p.ID == ignoreID {
			continue
		}
		if candidate.StartFrame < p.EndFrame && p.StartFrame < candidate.EndFrame {
			return p
		}
	}
	return nil
}

// insert adds a placement and restores start-frame order. The caller has
// already validated non-overlap.
func (t *Track) insert(p Placement) {
	t.placements = append(t.placements, p)
	sort.Slice(t.placements, func(i, j int) bool {
		return t.placements[i].StartFrame < t.placements[j].StartFrame
	})
}

// replace swaps the placement with p's id for p and restores order.
func (t *Track) replace(p Placement) error {
	for i := range t.placements {
		if t.placements[i].ID == p.ID {
			t.placements[i] = p
			sort.Slice(t.placements, func(a, b int) bool {
				return t.placements[a].StartFrame < t.placements[b].StartFrame
			})
			return nil
		}
	}
	return engine.Wrap(engine.ErrInvalidPlacement, "director", "replace",
		fmt.Sprintf("placement %s not on track %s", p.ID, t.ID), nil)
}

// remove drops the placement with the given id.
func (t *Track) remove(id string) bool {
	for i := range t.placements {
		if t.placements[i].ID == id {
			t.placements = append(t.placements[:i], t.placements[i+1:]...)
			return true
		}
	}
	return false
}

// maxEndFrame returns the largest end frame on the track, or 0 when empty.
func (t *Track) maxEndFrame() int {
	end := 0
	for _, p := range t.placements {
		if p.EndFrame > end {
			end = p.EndFrame
		}
	}
	return end
}
