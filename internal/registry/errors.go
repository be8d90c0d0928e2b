package registry

import "errors"

// Validation errors: detected before any state mutation.
var (
	ErrInvalidKey     = errors.New("invalid certificate key")
	ErrInvalidLocator = errors.New("storage locator is required")
)

// State-conflict errors: the operation does not apply to the record's
// current state. Expected during normal operation, e.g. a duplicate upload.
var (
	ErrAlreadyIssued  = errors.New("certificate already issued")
	ErrNotFound       = errors.New("certificate not found")
	ErrAlreadyRevoked = errors.New("certificate already revoked")
)

// ErrNotAuthorized means the caller is not the record's owner. Permanent
// for that caller.
var ErrNotAuthorized = errors.New("caller is not the certificate owner")

// ErrUnavailable wraps transient backend failures (peer unreachable,
// transaction not finalized). Callers may retry; the registry never does.
var ErrUnavailable = errors.New("registry backend unavailable")
