// Package apperr declares the failure classes shared between the
// annotation provider adapter and the pipeline. Rate limiting is retried
// with backoff; a malformed response is not, because retrying immediately
// would not help.
package apperr

import "errors"

var (
	ErrRateLimited = errors.New("rate limited")
	ErrMalformed   = errors.New("malformed response")
)
