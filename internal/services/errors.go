package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Markers classify failures independently of the component that saw them.
var (
	// ErrExternalTool marks a failed ffmpeg or ffprobe invocation.
	ErrExternalTool = errors.New("external tool failed")
	// ErrValidation marks malformed input such as unusable probe output.
	ErrValidation = errors.New("invalid input")
	// ErrTimeout marks an external call that exceeded its deadline.
	ErrTimeout = errors.New("timed out")
	// ErrUnavailable marks input that does not exist yet but may appear.
	ErrUnavailable = errors.New("not available yet")
)

// Wrap tags err with marker and prefixes it with "component: operation:
// detail". Empty parts are skipped. A nil marker leaves the error untagged.
func Wrap(marker error, component, operation, detail string, err error) error {
	var parts []string
	for _, p := range []string{component, operation, detail} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	where := strings.Join(parts, ": ")
	if where == "" {
		where = "failure"
	}
	switch {
	case marker != nil && err != nil:
		return fmt.Errorf("%w: %s: %w", marker, where, err)
	case marker != nil:
		return fmt.Errorf("%w: %s", marker, where)
	case err != nil:
		return fmt.Errorf("%s: %w", where, err)
	default:
		return errors.New(where)
	}
}

// Kind returns a short label for the error_kind log field.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "other"
	}
}
