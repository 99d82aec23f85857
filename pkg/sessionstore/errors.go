package sessionstore

import "errors"

var (
	// ErrSessionNotFound indicates no session record exists for the user.
	ErrSessionNotFound = errors.New("sessionstore.session_not_found")

	// ErrLockDenied indicates a tenant switch is already in flight for the
	// user. Callers surface it as a retryable conflict, not a failure.
	ErrLockDenied = errors.New("sessionstore.lock_denied")

	// ErrStoreUnavailable indicates the backing store is unreachable.
	// Tenant switches must fail closed when they see it.
	ErrStoreUnavailable = errors.New("sessionstore.unavailable")

	// ErrInvalidRecord indicates a nil or unkeyed session record.
	ErrInvalidRecord = errors.New("sessionstore.invalid_record")

	// ErrFailedToParseConnString indicates a malformed store connection URL.
	ErrFailedToParseConnString = errors.New("failed to parse store connection string")

	// ErrStoreNotReady indicates the store did not become reachable within
	// the configured connection window.
	ErrStoreNotReady = errors.New("store did not become ready within the given time period")

	// ErrHealthcheckFailed indicates the store ping failed.
	ErrHealthcheckFailed = errors.New("store healthcheck failed")
)
