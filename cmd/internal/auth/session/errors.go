package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionInvalid is returned when a presented token fails verification
	// for any reason other than a missing account. Callers must not leak the
	// concrete reason to clients; it is carried only in the error message for
	// server-side logs.
	ErrSessionInvalid = errors.New("invalid session token")

	// ErrAccountNotFound is returned when the user the token claims to belong
	// to does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTokenTooShort is returned at sign-in when the client token does not
	// meet the minimum length. This is a malformed request, not an auth failure.
	ErrTokenTooShort = errors.New("client token too short")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// Internal refinements of ErrSessionInvalid. External callers match with
// errors.Is(err, ErrSessionInvalid); the refinement only shapes log lines.
var (
	errNoActiveSession = fmt.Errorf("%w: no active session", ErrSessionInvalid)
	errSessionExpired  = fmt.Errorf("%w: session expired", ErrSessionInvalid)
	errTokenMismatch   = fmt.Errorf("%w: token mismatch", ErrSessionInvalid)
)
