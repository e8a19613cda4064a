package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Using sentinel errors allows services to return specific, recognizable error types
// without coupling them to implementation details like HTTP status codes. The API
// layer can then use `errors.Is()` to check for these specific errors and map
// them to the correct HTTP responses.

var (
	// ErrValidation signifies that input data provided by a client failed
	// validation. Never retried.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited signifies that the upstream completion API throttled us
	// and the bounded retry budget has been exhausted.
	// This is mapped to a 429 Too Many Requests HTTP status, carrying an
	// advisory retry-after duration.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream signifies that the upstream completion API answered with a
	// non-success status other than a rate limit. Not retried.
	// This is typically mapped to a 502 Bad Gateway HTTP status.
	ErrUpstream = errors.New("upstream request failed")

	// ErrEmptyReply signifies that the upstream answered successfully but the
	// response carried no usable reply text.
	// This is typically mapped to a 502 Bad Gateway HTTP status.
	ErrEmptyReply = errors.New("upstream returned an empty reply")

	// ErrNoCredential signifies that the upstream API credential is missing
	// from the configuration. Reported before any network attempt is made.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrNoCredential = errors.New("upstream credential not configured")

	// ErrInternal signifies an unexpected error on the server. This is a generic
	// error used to prevent leaking sensitive implementation details to the client.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")
)
