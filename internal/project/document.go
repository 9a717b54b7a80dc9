package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"playhead/internal/clip"
	"playhead/internal/director"
	"playhead/internal/engine"
	"playhead/internal/trigger"
)

// Document is the JSON-exchange form of a project.
type Document struct {
	Name     string               `json:"name"`
	Clips    []clip.Descriptor    `json:"clips"`
	Triggers []trigger.Trigger    `json:"triggers"`
	Playlist []string             `json:"playlist"`
	Timeline *director.Descriptor `json:"timeline,omitempty"`
}

// Validate checks the document's internal references: every trigger and
// playlist entry must name a clip the document carries, and every clip span
// must be well formed. Timeline placements are validated on materialization,
// where the clip library exists.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return engine.Wrap(nil, "project", "validate", "project name is empty", nil)
	}
	known := make(map[string]*clip.Ref, len(d.Clips))
	for _, desc := range d.Clips {
		ref := clip.FromDescriptor(desc)
		if strings.TrimSpace(ref.CustomID) == "" {
			return engine.Wrap(nil, "project", "validate",
				fmt.Sprintf("clip %q has no custom id", desc.DisplayName), nil)
		}
		if _, dup := known[ref.CustomID]; dup {
			return engine.Wrap(nil, "project", "validate",
				fmt.Sprintf("duplicate clip id %s", ref.CustomID), nil)
		}
		known[ref.CustomID] = ref
	}
	for _, tr := range d.Triggers {
		ref, ok := known[tr.ClipID]
		if !ok {
			return engine.Wrap(engine.ErrClipNotFound, "project", "validate",
				fmt.Sprintf("trigger %s references unknown clip %s", tr.ID, tr.ClipID), nil)
		}
		if err := trigger.Validate(tr, ref); err != nil {
			return err
		}
	}
	for _, id := range d.Playlist {
		if _, ok := known[id]; !ok {
			return engine.Wrap(engine.ErrClipNotFound, "project", "validate",
				fmt.Sprintf("playlist references unknown clip %s", id), nil)
		}
	}
	return nil
}

// Materialize rebuilds the live clip library and director timeline from the
// document. The document is validated first; timeline placements are
// revalidated against the restored library.
func (d *Document) Materialize(logger *slog.Logger) (*clip.Library, *director.Timeline, error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	library := clip.NewLibrary()
	for _, desc := range d.Clips {
		if err := library.Import(clip.FromDescriptor(desc)); err != nil {
			return nil, nil, err
		}
	}
	var timeline *director.Timeline
	if d.Timeline != nil {
		tl, err := director.FromDescriptor(*d.Timeline, library, logger)
		if err != nil {
			return nil, nil, err
		}
		timeline = tl
	}
	return library, timeline, nil
}

// ReadFile loads and validates a project document.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", filepath.Base(path), err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteFile persists a document atomically. An advisory lock beside the
// target serializes concurrent writers; the write itself goes to a temp file
// that is renamed into place.
func WriteFile(path string, doc *Document) error {
	if doc == nil {
		return engine.Wrap(nil, "project", "write", "nil document", nil)
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock project: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".project-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace project: %w", err)
	}
	return nil
}
