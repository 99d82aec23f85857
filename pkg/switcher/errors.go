package switcher

import (
	"errors"

	"github.com/leaddesk/authkit/pkg/sessionstore"
)

var (
	// ErrLockDenied indicates a switch for this user is already in flight.
	// It matches sessionstore.ErrLockDenied under errors.Is.
	ErrLockDenied = sessionstore.ErrLockDenied

	// ErrValidationFailed indicates the target tenant is not accessible to
	// the principal. Not retried.
	ErrValidationFailed = errors.New("switcher.validation_failed")

	// ErrApplyFailed indicates the session mutation could not be persisted.
	ErrApplyFailed = errors.New("switcher.apply_failed")
)
