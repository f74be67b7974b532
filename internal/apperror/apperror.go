// Package apperror holds the error kinds shared by every layer of the backend.
// Components wrap these with fmt.Errorf("...: %w", ...) and callers classify
// with errors.Is; handlers translate each kind into one HTTP status.
package apperror

import "errors"

var (
	// ErrUnauthenticated means no usable credential was presented (401).
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken means a credential was presented but failed verification
	// or has expired (400).
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden means the caller is authenticated but does not own the
	// resource it tried to mutate (403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the referenced entity does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail means registration used an email that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrAuthFailed means login credentials did not match a stored identity.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInvalidInput means a request passed binding but the value cannot be
	// accepted (400).
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable means the persistence layer could not complete the
	// operation in time (503).
	ErrStoreUnavailable = errors.New("store unavailable")
)
