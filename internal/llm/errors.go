package llm

import (
	"errors"
	"fmt"
)

// UpstreamError reports a failed call to the model endpoint. Status is the
// upstream HTTP status, or zero when the request never got a response.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream unreachable: %v", e.Err)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AsUpstream extracts an UpstreamError from err's chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr, true
	}
	return nil, false
}
