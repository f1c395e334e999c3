package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrGenerationFailed = errors.New("generation failed")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrDuplicateClip    = errors.New("duplicate clip")
	ErrNotFound         = errors.New("not found")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrCombination      = errors.New("combination error")
	ErrCaption          = errors.New("caption error")
	ErrExternalTool     = errors.New("external service error")
	ErrConfiguration    = errors.New("configuration error")
	ErrTimeout          = errors.New("timeout")
	ErrTransient        = errors.New("transient failure")
)

// markers is ordered from most to least specific so Details reports the
// domain failure rather than the transport marker it may also carry.
var markers = []struct {
	err  error
	kind string
}{
	{ErrGenerationFailed, "generation_failed"},
	{ErrCombination, "combination"},
	{ErrCaption, "caption"},
	{ErrInvalidSelection, "invalid_selection"},
	{ErrDuplicateClip, "duplicate_clip"},
	{ErrIndexOutOfRange, "index_out_of_range"},
	{ErrNotFound, "not_found"},
	{ErrValidation, "validation"},
	{ErrConfiguration, "configuration"},
	{ErrTimeout, "timeout"},
	{ErrExternalTool, "external"},
	{ErrTransient, "transient"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the persisted shape of a failure.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details classifies err against the sentinel markers.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: "unknown", Message: strings.TrimSpace(err.Error())}
	for _, m := range markers {
		if errors.Is(err, m.err) {
			details.Kind = m.kind
			break
		}
	}
	return details
}

// MarkerForKind maps a persisted kind back to its sentinel. Unknown kinds map
// to ErrTransient.
func MarkerForKind(kind string) error {
	kind = strings.TrimSpace(kind)
	for _, m := range markers {
		if m.kind == kind {
			return m.err
		}
	}
	return ErrTransient
}

// IsCallerError reports whether err represents caller misuse that must never
// be retried automatically.
func IsCallerError(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidSelection),
		errors.Is(err, ErrDuplicateClip),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrIndexOutOfRange),
		errors.Is(err, ErrConfiguration):
		return true
	default:
		return false
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
