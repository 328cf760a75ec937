package domain

import "errors"

var (
	// ErrSourceUnavailable means no fresh, live, or stale items exist for a topic.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedUpstream marks a single endpoint variant whose payload failed validation.
	ErrMalformedUpstream = errors.New("malformed upstream response")
	// ErrAnalysisSchema is returned when the analysis model output does not match its schema.
	ErrAnalysisSchema = errors.New("analysis schema error")
	// ErrGenerationSchema is returned when the generation model output does not match its schema.
	ErrGenerationSchema = errors.New("generation schema error")
	// ErrPersistence wraps store failures during concept insertion.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound is returned by stores for missing rows.
	ErrNotFound = errors.New("not found")
)

// IsPermanent reports whether retrying the failed step cannot help.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrAnalysisSchema) || errors.Is(err, ErrGenerationSchema)
}
