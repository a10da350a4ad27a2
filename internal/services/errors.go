package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for every failure kind the pipeline can surface. All of
// them are terminal for the job; the orchestrator records the kind alongside
// the state it failed from so the caller can decide whether to retry the
// whole job externally.
var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrSourceTooLarge    = errors.New("source too large")
	ErrFetch             = errors.New("fetch error")
	ErrProbe             = errors.New("source probe error")
	ErrNoRenditions      = errors.New("no renditions possible")
	ErrEngine            = errors.New("engine error")
	ErrTranscodeTimeout  = errors.New("transcode timeout")
	ErrDurationMismatch  = errors.New("rendition duration mismatch")
	ErrPublish           = errors.New("publish error")
	ErrValidation        = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later kind classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the stable kind string persisted in the job journal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceTooLarge):
		return "source_too_large"
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrNoRenditions):
		return "no_renditions_possible"
	case errors.Is(err, ErrTranscodeTimeout):
		return "transcode_timeout"
	case errors.Is(err, ErrEngine):
		return "engine"
	case errors.Is(err, ErrDurationMismatch):
		return "rendition_duration_mismatch"
	case errors.Is(err, ErrPublish):
		return "publish"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
