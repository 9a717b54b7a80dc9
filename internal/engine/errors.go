package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClipNotFound marks references to a deleted or unknown clip id.
	ErrClipNotFound = errors.New("clip not found")
	// ErrInvalidPlacement marks placement edits that violate the trim/speed
	// reconciliation invariant or overlap another placement on the track.
	ErrInvalidPlacement = errors.New("invalid placement")
	// ErrInvalidTriggerFrame marks triggers whose frame lies outside the
	// referenced clip's span.
	ErrInvalidTriggerFrame = errors.New("invalid trigger frame")
	// ErrBindingConflict marks attempts to give a model two simultaneous
	// time authorities.
	ErrBindingConflict = errors.New("binding conflict")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided sentinel for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the category name shown by the CLI.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClipNotFound):
		return "clip_not_found"
	case errors.Is(err, ErrInvalidPlacement):
		return "invalid_placement"
	case errors.Is(err, ErrInvalidTriggerFrame):
		return "invalid_trigger_frame"
	case errors.Is(err, ErrBindingConflict):
		return "binding_conflict"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
