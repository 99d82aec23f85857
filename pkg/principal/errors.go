package principal

import "errors"

var (
	// ErrAuthenticationFailed indicates no valid principal could be
	// resolved. Always fails closed: the request is denied, never served
	// with cached data belonging to anyone else.
	ErrAuthenticationFailed = errors.New("principal.authentication_failed")
)
