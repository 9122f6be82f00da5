package ai

import "errors"

// ErrUpstreamUnavailable wraps every failure of the hosted model API:
// transport errors, non-2xx statuses, malformed bodies and an open breaker.
var ErrUpstreamUnavailable = errors.New("upstream model service unavailable")
