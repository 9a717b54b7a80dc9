package clip

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"playhead/internal/engine"
)

var foldCaser = cases.Fold()

// Library holds the active set of clip references for one session.
// It is not safe for concurrent use; the engine runs on a single
// cooperative tick loop.
type Library struct {
	byID  map[string]*Ref
	order []string
}

// NewLibrary returns an empty clip library.
func NewLibrary() *Library {
	return &Library{byID: make(map[string]*Ref)}
}

// Create carves a new clip out of a source animation and registers it.
// The display name defaults to the original name, disambiguated with a
// counter suffix when another live clip already uses it.
func (l *Library) Create(originalName string, startFrame, endFrame, fps int) (*Ref, error) {
	if err := validateSpan(startFrame, endFrame, fps); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(originalName)
	if name == "" {
		name = "clip"
	}
	ref := &Ref{
		CustomID:     uuid.NewString(),
		DisplayName:  l.disambiguate(name),
		OriginalName: originalName,
		StartFrame:   startFrame,
		EndFrame:     endFrame,
		FPS:          fps,
	}
	l.byID[ref.CustomID] = ref
	l.order = append(l.order, ref.CustomID)
	return ref.Clone(), nil
}

// Import registers a reference restored from a descriptor, keeping its
// existing custom id. Importing an id that is already live is rejected so a
// project file cannot silently shadow an in-memory clip.
func (l *Library) Import(ref *Ref) error {
	if ref == nil {
		return engine.Wrap(nil, "clip", "import", "nil reference", nil)
	}
	if strings.TrimSpace(ref.CustomID) == "" {
		return engine.Wrap(nil, "clip", "import", "missing custom id", nil)
	}
	if err := validateSpan(ref.StartFrame, ref.EndFrame, ref.FPS); err != nil {
		return err
	}
	if _, ok := l.byID[ref.CustomID]; ok {
		return engine.Wrap(nil, "clip", "import", fmt.Sprintf("id %s already registered", ref.CustomID), nil)
	}
	cp := ref.Clone()
	if strings.TrimSpace(cp.DisplayName) == "" {
		cp.DisplayName = l.disambiguate(cp.OriginalName)
	}
	l.byID[cp.CustomID] = cp
	l.order = append(l.order, cp.CustomID)
	return nil
}

// Resolve returns the live reference for a custom id.
func (l *Library) Resolve(customID string) (*Ref, error) {
	ref, ok := l.byID[customID]
	if !ok {
		return nil, engine.Wrap(engine.ErrClipNotFound, "clip", "resolve", fmt.Sprintf("id %s", customID), nil)
	}
	return ref.Clone(), nil
}

// Contains reports whether a custom id is live without copying the reference.
func (l *Library) Contains(customID string) bool {
	_, ok := l.byID[customID]
	return ok
}

// Delete removes a clip from the active set. Deleting an unknown id fails
// with engine.ErrClipNotFound and leaves the library untouched.
func (l *Library) Delete(customID string) error {
	if _, ok := l.byID[customID]; !ok {
		return engine.Wrap(engine.ErrClipNotFound, "clip", "delete", fmt.Sprintf("id %s", customID), nil)
	}
	delete(l.byID, customID)
	for i, id := range l.order {
		if id == customID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// All returns the live references in creation order.
func (l *Library) All() []*Ref {
	out := make([]*Ref, 0, len(l.order))
	for _, id := range l.order {
		if ref, ok := l.byID[id]; ok {
			out = append(out, ref.Clone())
		}
	}
	return out
}

// Len returns the number of live clips.
func (l *Library) Len() int {
	return len(l.byID)
}

// disambiguate returns name, or name suffixed with the lowest free counter
// when a live clip already uses it. Comparison is case-folded so "Walk" and
// "walk" collide.
func (l *Library) disambiguate(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "clip"
	}
	taken := make(map[string]struct{}, len(l.byID))
	for _, ref := range l.byID {
		taken[foldCaser.String(ref.DisplayName)] = struct{}{}
	}
	if _, ok := taken[foldCaser.String(name)]; !ok {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", name, i)
		if _, ok := taken[foldCaser.String(candidate)]; !ok {
			return candidate
		}
	}
}

// SortedByDisplayName returns live references ordered by display name,
// case-folded, for stable presentation.
func (l *Library) SortedByDisplayName() []*Ref {
	out := l.All()
	sort.Slice(out, func(i, j int) bool {
		a := foldCaser.String(out[i].DisplayName)
		b := foldCaser.String(out[j].DisplayName)
		if a == b {
			return out[i].CustomID < out[j].CustomID
		}
		return a < b
	})
	return out
}
