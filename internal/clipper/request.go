package clipper

import (
	"fmt"

	"yt-clipper/internal/resolver"
)

// Request is one validated clip-extraction request. Immutable once
// Validate has accepted it.
type Request struct {
	VideoID  string
	Start    float64
	Duration float64
}

// ValidationError indicates a malformed request field. It is always a
// client fault and never allocates any resources.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the request invariants: a recognized video identifier,
// a non-negative start and a positive duration. maxDuration caps the
// requested window (0 disables the cap). On success the VideoID field is
// normalized to the canonical identifier.
func (r *Request) Validate(maxDuration float64) error {
	if r.VideoID == "" {
		return &ValidationError{Field: "videoId", Reason: "required"}
	}

	id, ok := resolver.ParseVideoID(r.VideoID)
	if !ok {
		return &ValidationError{Field: "videoId", Reason: "not a recognized video link or id"}
	}
	r.VideoID = id

	if r.Start < 0 {
		return &ValidationError{Field: "start", Reason: "must be >= 0"}
	}

	if r.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be > 0"}
	}

	if maxDuration > 0 && r.Duration > maxDuration {
		return &ValidationError{
			Field:  "duration",
			Reason: fmt.Sprintf("must be <= %.0f seconds", maxDuration),
		}
	}

	return nil
}
