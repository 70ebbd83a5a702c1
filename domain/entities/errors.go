package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis pipeline. Handlers match on these to
// pick a response status; everything else collapses to a generic failure.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrProcessingFailed   = errors.New("media processing failed")
	ErrProcessingTimedOut = errors.New("media processing timed out")
	ErrMalformedResponse  = errors.New("model returned an unusable response")
)

// RateLimitedError reports a denied quota check along with how long the
// caller has to wait for the current hour bucket to roll over.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %d seconds", e.RetryAfterSeconds)
}

// UpstreamError reports a non-success response from the generation or
// file-processing backend. The upstream body is never carried here so it
// cannot leak into client responses.
type UpstreamError struct {
	Op         string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed with status %d", e.Op, e.StatusCode)
}
